package assets

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/browserbuild/internal/buildconfig"
)

// Build runs esbuild with the composed configuration, then writes the
// metafile and chunk manifest.
func (p *Pipeline) Build() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	opts := p.buildOptions()

	log.Info().Int("entrypoints", len(opts.EntryPointsAdvanced)).Str("outdir", opts.Outdir).Msg("Building assets")

	result := api.Build(opts)

	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			log.Error().Str("error", msg.Text).Str("plugin", msg.PluginName).Msg("Build error")
		}
		return fmt.Errorf("%w: %d errors", ErrBuildFailed, len(result.Errors))
	}

	for _, msg := range result.Warnings {
		log.Warn().Str("warning", msg.Text).Msg("Build warning")
	}

	for _, file := range result.OutputFiles {
		log.Info().Str("file", file.Path).Msg("Built file")
	}

	if err := writeFile(p.config.MetafilePath, []byte(result.Metafile)); err != nil {
		return fmt.Errorf("failed to write metafile: %w", err)
	}

	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return fmt.Errorf("failed to parse metafile: %w", err)
	}

	manifest := planChunks(&metadata, p.generated.Plugins, p.config.ProjectRoot, p.config.OutputDir)

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFile(p.config.ManifestPath, data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	if p.config.Precompress {
		if err := precompress(p.config.OutputDir); err != nil {
			return fmt.Errorf("failed to precompress assets: %w", err)
		}
	}

	p.manifest = manifest
	return nil
}

func (p *Pipeline) buildOptions() api.BuildOptions {
	entryPoints, virtualEntries := p.entryPoints()

	opts := api.BuildOptions{
		EntryPointsAdvanced: entryPoints,
		AbsWorkingDir:       p.config.ProjectRoot,
		Bundle:              true,
		Write:               true,
		Outdir:              p.config.OutputDir,
		Format:              api.FormatESModule,
		Platform:            api.PlatformBrowser,
		ChunkNames:          "chunk-[hash]",
		AssetNames:          "assets/[name]-[hash]",
		MinifyWhitespace:    p.config.Minify,
		MinifyIdentifiers:   p.config.Minify,
		MinifySyntax:        p.config.Minify,
		TreeShaking:         api.TreeShakingTrue,
		Sourcemap:           api.SourceMapNone,
		LegalComments:       cond(p.config.Minify, api.LegalCommentsLinked, api.LegalCommentsEndOfFile),
		Metafile:            true,
		LogLevel:            api.LogLevelSilent,
		Plugins:             []api.Plugin{entryPlugin(virtualEntries, p.config.appRoot())},
	}

	if len(p.generated.Externals) > 0 {
		opts.Plugins = append(opts.Plugins, externalsPlugin(p.generated.Externals))
	}

	var (
		html      *buildconfig.HTML
		baseHrefs []*buildconfig.BaseHref
	)

	for _, directive := range p.generated.Plugins {
		switch d := directive.(type) {
		case *buildconfig.HTML:
			html = d
		case *buildconfig.BaseHref:
			baseHrefs = append(baseHrefs, d)
		case *buildconfig.CommonsChunk:
			// async commons chunks map onto esbuild code splitting
			if d.Children {
				opts.Splitting = true
			}
		case *buildconfig.SourceMap:
			opts.Sourcemap = api.SourceMapLinked
			opts.SourceRoot = d.SourceRoot
		case *buildconfig.ContextReplacement:
			opts.Plugins = append(opts.Plugins, contextReplacementPlugin(d))
		case *buildconfig.Define:
			if opts.Define == nil {
				opts.Define = map[string]string{}
			}
			maps.Copy(opts.Define, d.Definitions)
		}
	}

	if html != nil {
		var transforms []documentTransform
		for _, b := range baseHrefs {
			transforms = append(transforms, setBaseHref(b.BaseHref))
		}
		opts.Plugins = append(opts.Plugins, htmlPlugin(html, p.config, transforms...))
	}

	return opts
}

// entryPoints maps the app onto esbuild entry points. Extra entries sharing
// a chunk name are bundled through a generated entry module.
func (p *Pipeline) entryPoints() ([]api.EntryPoint, map[string]virtualEntry) {
	app := p.config.App
	appRoot := p.config.appRoot()

	var entryPoints []api.EntryPoint
	virtualEntries := map[string]virtualEntry{}

	if app.Polyfills != "" {
		entryPoints = append(entryPoints, api.EntryPoint{InputPath: filepath.Join(appRoot, app.Polyfills), OutputPath: "polyfills"})
	}

	groups := []struct {
		specs  []buildconfig.EntrySpec
		loader api.Loader
		ext    string
	}{
		{specs: buildconfig.ParseEntries(app.Styles, appRoot, "styles"), loader: api.LoaderCSS, ext: ".css"},
		{specs: buildconfig.ParseEntries(app.Scripts, appRoot, "scripts"), loader: api.LoaderJS, ext: ".js"},
	}

	for _, g := range groups {
		for _, spec := range g.specs {
			key := virtualEntryPrefix + spec.Entry + g.ext

			entry, ok := virtualEntries[key]
			if !ok {
				entry = virtualEntry{loader: g.loader}
				entryPoints = append(entryPoints, api.EntryPoint{InputPath: key, OutputPath: spec.Entry})
			}
			entry.paths = append(entry.paths, spec.Path)
			virtualEntries[key] = entry
		}
	}

	if app.Main != "" {
		entryPoints = append(entryPoints, api.EntryPoint{InputPath: filepath.Join(appRoot, app.Main), OutputPath: "main"})
	}

	return entryPoints, virtualEntries
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
