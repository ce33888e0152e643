package buildconfig

import (
	"maps"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/rs/zerolog/log"
)

var (
	localeRequest = regexp.MustCompile(`^\./locale$`)
	momentContext = regexp.MustCompile(`/moment/`)
	// Only the zh locales ship with the bundle.
	momentLocales = regexp.MustCompile(`^\./(zh)`)
)

// Externals are supplied as globals by the hosting page instead of bundled.
var Externals = map[string]string{
	"moment":  "moment",
	"lodash":  "_",
	"rxjs":    "Rx",
	"numeral": "numeral",
}

// Browser composes the bundler configuration for the browser target of app.
func Browser(projectRoot string, opts BuildOptions, app AppConfig) *Config {
	appRoot := filepath.Join(projectRoot, app.Root)

	// figure out which are the lazy loaded entry points
	entries := ParseEntries(app.Scripts, appRoot, "scripts")
	entries = append(entries, ParseEntries(app.Styles, appRoot, "styles")...)
	lazyChunks := LazyChunks(entries)

	var extraPlugins []Plugin

	if opts.VendorChunk {
		nodeModules := filepath.Join(projectRoot, "node_modules")

		extraPlugins = append(extraPlugins, &CommonsChunk{
			Name:      "vendor",
			Chunks:    []string{"main"},
			MinChunks: ResourcePrefix(nodeModules),
		})
	}

	if opts.Sourcemaps {
		extraPlugins = append(extraPlugins, &SourceMap{
			Filename:                       "[file].map[query]",
			ModuleFilenameTemplate:         "[resource-path]",
			FallbackModuleFilenameTemplate: "[resource-path]?[hash]",
			SourceRoot:                     "webpack:///",
		})
	}

	if opts.CommonChunk {
		extraPlugins = append(extraPlugins, &CommonsChunk{
			Name:      "main",
			Async:     "common",
			Children:  true,
			MinChunks: AtLeast(2),
		})
	}

	var minify *Minify
	if opts.Target == TargetProduction {
		minify = &Minify{
			CaseSensitive:      true,
			CollapseWhitespace: true,
			KeepClosingSlash:   true,
		}
	}

	// an unset NODE_ENV is injected as the string "undefined"
	buildMode := opts.BuildMode
	if buildMode == "" {
		buildMode = "undefined"
	}

	log.Info().Str("NODE_ENV", buildMode).Msg("inject process.env.NODE_ENV")

	plugins := []Plugin{
		&HTML{
			Template:       filepath.Join(appRoot, app.Index),
			Filename:       filepath.Join(opts.OutputPath, app.Index),
			ChunksSortMode: PackageChunkSort(app),
			ExcludeChunks:  lazyChunks,
			XHTML:          true,
			Minify:         minify,
		},
		&BaseHref{
			BaseHref: opts.BaseHref,
		},
		&CommonsChunk{
			Name:      "inline",
			MinChunks: EveryChunk(),
		},
		&ContextReplacement{
			ResourceRegExp: localeRequest,
			NewContext:     momentLocaleContext,
		},
		&Define{
			Definitions: map[string]string{
				"process.env.NODE_ENV": strconv.Quote(buildMode),
			},
		},
	}

	return &Config{
		Plugins:   append(plugins, extraPlugins...),
		Externals: maps.Clone(Externals),
	}
}

func momentLocaleContext(ctx ModuleContext) ModuleContext {
	// only contexts created inside the moment package
	if !momentContext.MatchString(filepath.ToSlash(ctx.Context)) {
		return ctx
	}

	ctx.RegExp = momentLocales
	ctx.Request = "../../locale"
	return ctx
}
