package commands

import (
	"path/filepath"

	"github.com/wolfeidau/browserbuild/internal/assets"
	"github.com/wolfeidau/browserbuild/internal/buildconfig"
	"github.com/wolfeidau/browserbuild/internal/logger"
)

type BuildCmd struct {
	BuildFlags  `embed:""`
	Precompress bool `help:"write gzip compressed copies of text output" default:"false" env:"BROWSERBUILD_PRECOMPRESS"`
}

func (c *BuildCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)

	log.Info().Str("version", globals.Version).Str("target", c.Target).Msg("Starting build")

	composed, err := c.compose()
	if err != nil {
		return err
	}

	cfg := assets.DefaultConfig(composed.root, composed.app)
	cfg.OutputDir = composed.options.OutputPath
	cfg.MetafilePath = filepath.Join(cfg.OutputDir, "meta.json")
	cfg.ManifestPath = filepath.Join(cfg.OutputDir, "manifest.json")
	cfg.Minify = composed.options.Target == buildconfig.TargetProduction
	cfg.Precompress = c.Precompress

	pipeline := assets.New(cfg, composed.config)
	if err := pipeline.Build(); err != nil {
		return err
	}

	manifest, err := pipeline.Manifest()
	if err != nil {
		return err
	}

	for name, files := range manifest.Chunks {
		log.Info().Str("chunk", name).Strs("files", files).Int("modules", len(manifest.Modules[name])).Msg("Chunk")
	}

	log.Info().Str("outdir", cfg.OutputDir).Msg("Build complete")
	return nil
}
