package assets

import (
	"path/filepath"

	"github.com/wolfeidau/browserbuild/internal/buildconfig"
)

type Config struct {
	// Project root, metafile paths are relative to it
	ProjectRoot string
	App         buildconfig.AppConfig
	// Output directory for built files
	OutputDir string
	// Path to metafile
	MetafilePath string
	// Path to the chunk manifest
	ManifestPath string
	// Whether to minify output
	Minify bool
	// Write gzip compressed copies of text output
	Precompress bool
}

// DefaultConfig returns the configuration for a development build of app.
func DefaultConfig(projectRoot string, app buildconfig.AppConfig) Config {
	outDir := filepath.Join(projectRoot, app.OutDir)

	return Config{
		ProjectRoot:  projectRoot,
		App:          app,
		OutputDir:    outDir,
		MetafilePath: filepath.Join(outDir, "meta.json"),
		ManifestPath: filepath.Join(outDir, "manifest.json"),
	}
}

func (c Config) appRoot() string {
	return filepath.Join(c.ProjectRoot, c.App.Root)
}
