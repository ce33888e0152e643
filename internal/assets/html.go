package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/browserbuild/internal/buildconfig"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrTemplateNotFound indicates the index template of the app is missing
var ErrTemplateNotFound = errors.New("index template not found")

// documentTransform edits the generated document before it is rendered.
type documentTransform func(doc *html.Node)

var (
	chunkHash     = regexp.MustCompile(`-[A-Z2-7]{8}$`)
	whitespace    = regexp.MustCompile(`\s+`)
	closingSlash  = regexp.MustCompile(`(<(?:area|base|br|col|embed|hr|img|input|link|meta|source|track|wbr)\b[^>]*?)\s*/>`)
	preserveSpace = []atom.Atom{atom.Pre, atom.Textarea, atom.Script, atom.Style}

	inlineElements = []atom.Atom{
		atom.A, atom.Abbr, atom.Acronym, atom.B, atom.Bdi, atom.Bdo, atom.Big, atom.Button,
		atom.Cite, atom.Code, atom.Del, atom.Dfn, atom.Em, atom.Font, atom.I, atom.Img,
		atom.Input, atom.Ins, atom.Kbd, atom.Label, atom.Mark, atom.Math, atom.Nobr,
		atom.Object, atom.Q, atom.Rp, atom.Rt, atom.Rtc, atom.Ruby, atom.S, atom.Samp,
		atom.Select, atom.Small, atom.Span, atom.Strike, atom.Strong, atom.Sub, atom.Sup,
		atom.Svg, atom.Textarea, atom.Time, atom.Tt, atom.U, atom.Var,
	}
)

type chunkFile struct {
	name    string
	path    string
	css     bool
	preload []string
}

func htmlPlugin(h *buildconfig.HTML, cfg Config, transforms ...documentTransform) api.Plugin {
	return api.Plugin{
		Name: "html",
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if len(result.Errors) > 0 {
					return api.OnEndResult{}, nil
				}

				var metadata BuildMetadata
				if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
					return api.OnEndResult{}, fmt.Errorf("failed to parse metafile: %w", err)
				}

				out, err := renderIndex(h, cfg, &metadata, transforms...)
				if err != nil {
					return api.OnEndResult{}, err
				}

				if err := writeFile(h.Filename, out); err != nil {
					return api.OnEndResult{}, fmt.Errorf("failed to write index: %w", err)
				}

				log.Info().Str("file", h.Filename).Msg("Built file")
				return api.OnEndResult{}, nil
			})
		},
	}
}

// renderIndex injects the entry chunks of the build into the index template.
func renderIndex(h *buildconfig.HTML, cfg Config, metadata *BuildMetadata, transforms ...documentTransform) ([]byte, error) {
	tmpl, err := os.ReadFile(h.Template)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, h.Template)
		}
		return nil, err
	}

	doc, err := html.Parse(bytes.NewReader(tmpl))
	if err != nil {
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}

	head := findElement(doc, atom.Head)
	body := findElement(doc, atom.Body)
	if head == nil || body == nil {
		return nil, errors.New("index template has no head or body")
	}

	htmlDir := filepath.Dir(h.Filename)
	href := func(path string) string {
		abs := filepath.Join(cfg.ProjectRoot, path)
		rel, err := filepath.Rel(htmlDir, abs)
		if err != nil {
			return filepath.ToSlash(abs)
		}
		return filepath.ToSlash(rel)
	}

	chunks := entryChunks(metadata, cfg.ProjectRoot, cfg.OutputDir)
	chunks = slices.DeleteFunc(chunks, func(c chunkFile) bool {
		return slices.Contains(h.ExcludeChunks, c.name)
	})
	if h.ChunksSortMode != nil {
		slices.SortStableFunc(chunks, func(a, b chunkFile) int {
			return h.ChunksSortMode(a.name, b.name)
		})
	}

	preloaded := map[string]bool{}

	for _, c := range chunks {
		if c.css {
			head.AppendChild(element(atom.Link, "rel", "stylesheet", "href", href(c.path)))
			continue
		}

		for _, dep := range c.preload {
			if preloaded[dep] {
				continue
			}
			preloaded[dep] = true
			head.AppendChild(element(atom.Link, "rel", "modulepreload", "href", href(dep)))
		}
		body.AppendChild(element(atom.Script, "type", "module", "src", href(c.path)))
	}

	for _, transform := range transforms {
		transform(doc)
	}

	if h.Minify != nil && h.Minify.CollapseWhitespace {
		collapseWhitespace(doc)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("failed to render index: %w", err)
	}

	out := buf.Bytes()

	// the renderer always closes void elements
	if !h.XHTML || (h.Minify != nil && !h.Minify.KeepClosingSlash) {
		out = closingSlash.ReplaceAll(out, []byte("$1>"))
	}

	return out, nil
}

// entryChunks lists the emitted entry chunks named after their path in the
// output directory, with hashes and extensions removed.
func entryChunks(metadata *BuildMetadata, root, outDir string) []chunkFile {
	cssBundles := map[string]bool{}
	for _, info := range metadata.Outputs {
		if info.CSSBundle != "" {
			cssBundles[info.CSSBundle] = true
		}
	}

	var chunks []chunkFile

	for _, path := range slices.Sorted(maps.Keys(metadata.Outputs)) {
		info := metadata.Outputs[path]
		ext := filepath.Ext(path)

		if ext != ".js" && ext != ".css" {
			continue
		}
		if info.EntryPoint == "" && !cssBundles[path] {
			continue
		}

		c := chunkFile{
			name: chunkName(path, root, outDir),
			path: path,
			css:  ext == ".css",
		}
		if !c.css {
			visited := map[string]bool{path: true}
			c.preload = dependencies(metadata, info, visited, nil)
		}

		chunks = append(chunks, c)
	}

	return chunks
}

func chunkName(path, root, outDir string) string {
	rel, err := filepath.Rel(outDir, filepath.Join(root, path))
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
	return chunkHash.ReplaceAllString(rel, "")
}

// dependencies collects the chunks statically imported by output, depth first.
func dependencies(metadata *BuildMetadata, output OutputInfo, visited map[string]bool, deps []string) []string {
	for _, imp := range output.Imports {
		if imp.External || imp.Kind != "import-statement" || visited[imp.Path] {
			continue
		}
		visited[imp.Path] = true
		deps = append(deps, imp.Path)

		if chunkInfo, exists := metadata.Outputs[imp.Path]; exists {
			deps = dependencies(metadata, chunkInfo, visited, deps)
		}
	}
	return deps
}

// setBaseHref points the <base> element of the document at href, adding
// one to the head when the template has none.
func setBaseHref(href string) documentTransform {
	return func(doc *html.Node) {
		if href == "" {
			return
		}

		if base := findElement(doc, atom.Base); base != nil {
			setAttr(base, "href", href)
			return
		}

		head := findElement(doc, atom.Head)
		if head == nil {
			return
		}
		head.InsertBefore(element(atom.Base, "href", href), head.FirstChild)
	}
}

// collapseWhitespace folds runs of whitespace into a single space, dropping
// it entirely where it touches an element that is not inline.
func collapseWhitespace(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling

		switch c.Type {
		case html.TextNode:
			data := whitespace.ReplaceAllString(c.Data, " ")
			if breaksLine(c.PrevSibling, n) {
				data = strings.TrimLeft(data, " ")
			}
			if breaksLine(c.NextSibling, n) {
				data = strings.TrimRight(data, " ")
			}

			if data == "" {
				n.RemoveChild(c)
			} else {
				c.Data = data
			}
		case html.ElementNode:
			if !slices.Contains(preserveSpace, c.DataAtom) {
				collapseWhitespace(c)
			}
		default:
			collapseWhitespace(c)
		}

		c = next
	}
}

// breaksLine reports whether whitespace next to sibling is insignificant,
// either because sibling is a block or because there is no sibling and the
// parent is one.
func breaksLine(sibling, parent *html.Node) bool {
	if sibling == nil {
		return !inline(parent)
	}
	return sibling.Type == html.ElementNode && !inline(sibling)
}

func inline(n *html.Node) bool {
	return n.Type == html.ElementNode && slices.Contains(inlineElements, n.DataAtom)
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
