package buildconfig

import (
	"regexp"
	"strings"
)

// Plugin is a single directive handed to the bundler.
type Plugin interface {
	Kind() string
}

var (
	_ Plugin = (*HTML)(nil)
	_ Plugin = (*BaseHref)(nil)
	_ Plugin = (*CommonsChunk)(nil)
	_ Plugin = (*SourceMap)(nil)
	_ Plugin = (*ContextReplacement)(nil)
	_ Plugin = (*Define)(nil)
)

// ChunkSortFunc orders chunk names for tag injection, see slices.SortStableFunc.
type ChunkSortFunc func(a, b string) int

// HTML generates the index document and injects the emitted chunks into it.
type HTML struct {
	Template       string
	Filename       string
	ChunksSortMode ChunkSortFunc
	ExcludeChunks  []string
	XHTML          bool
	// nil disables minification
	Minify *Minify
}

type Minify struct {
	CaseSensitive      bool
	CollapseWhitespace bool
	KeepClosingSlash   bool
}

func (*HTML) Kind() string { return "html" }

// BaseHref sets the href of the <base> element of the generated document.
type BaseHref struct {
	BaseHref string
}

func (*BaseHref) Kind() string { return "base-href" }

// Module is the view of a bundled module offered to chunk predicates.
type Module struct {
	// Absolute source path, empty for virtual modules
	Resource string
	// Number of candidate chunks referencing the module
	ChunkCount int
}

// MinChunks reports whether a module moves into the commons chunk given the
// number of candidate chunks.
type MinChunks func(m Module, chunks int) bool

// AtLeast selects modules referenced by n or more chunks.
func AtLeast(n int) MinChunks {
	return func(m Module, _ int) bool {
		return m.ChunkCount >= n
	}
}

// EveryChunk selects modules referenced by every candidate chunk.
func EveryChunk() MinChunks {
	return func(m Module, chunks int) bool {
		return chunks > 0 && m.ChunkCount == chunks
	}
}

// ResourcePrefix selects modules whose source path starts with prefix.
func ResourcePrefix(prefix string) MinChunks {
	return func(m Module, _ int) bool {
		return m.Resource != "" && strings.HasPrefix(m.Resource, prefix)
	}
}

// CommonsChunk groups modules matching MinChunks into the chunk Name.
type CommonsChunk struct {
	Name string
	// Candidate chunks, all entry chunks when empty
	Chunks []string
	// Name of the async commons chunk, only used with Children
	Async     string
	Children  bool
	MinChunks MinChunks
}

func (*CommonsChunk) Kind() string { return "commons-chunk" }

// SourceMap controls source map emission.
type SourceMap struct {
	Filename                       string
	ModuleFilenameTemplate         string
	FallbackModuleFilenameTemplate string
	SourceRoot                     string
}

func (*SourceMap) Kind() string { return "source-map" }

// ModuleContext is the resolution context of a dynamic require such as
// require("./locale/" + name).
type ModuleContext struct {
	// Directory the request is resolved from
	Context string
	Request string
	// Files of the context directory that may be included, all when nil
	RegExp *regexp.Regexp
}

// ContextReplacement rewrites module contexts whose request matches
// ResourceRegExp. NewContext returns its argument unchanged to leave a
// context alone.
type ContextReplacement struct {
	ResourceRegExp *regexp.Regexp
	NewContext     func(ModuleContext) ModuleContext
}

func (*ContextReplacement) Kind() string { return "context-replacement" }

// Define replaces global expressions with constant values at build time.
type Define struct {
	// expression -> JavaScript literal
	Definitions map[string]string
}

func (*Define) Kind() string { return "define" }
