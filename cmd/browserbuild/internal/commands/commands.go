package commands

import (
	"fmt"
	"path/filepath"

	"github.com/wolfeidau/browserbuild/internal/buildconfig"
	"github.com/wolfeidau/browserbuild/internal/project"
)

type Globals struct {
	Debug   bool
	Version string
}

// BuildFlags are shared by every command that composes a configuration.
type BuildFlags struct {
	Project    string `help:"path to the project file" default:"browserbuild.yaml" env:"BROWSERBUILD_PROJECT"`
	App        string `help:"app to build, defaults to the first app in the project" env:"BROWSERBUILD_APP"`
	Target     string `help:"build target" default:"development" enum:"development,production" env:"BROWSERBUILD_TARGET"`
	OutputPath string `help:"output directory, defaults to the app outDir" env:"BROWSERBUILD_OUTPUT_PATH"`
	BaseHref   string `help:"href of the <base> element in the generated index" env:"BROWSERBUILD_BASE_HREF"`

	VendorChunk bool `help:"extract node_modules into a vendor chunk" default:"true" negatable:"" env:"BROWSERBUILD_VENDOR_CHUNK"`
	Sourcemaps  bool `help:"emit source maps" default:"true" negatable:"" env:"BROWSERBUILD_SOURCEMAPS"`
	CommonChunk bool `help:"extract modules shared by lazy chunks into a common chunk" default:"true" negatable:"" env:"BROWSERBUILD_COMMON_CHUNK"`

	BuildMode string `help:"value injected as process.env.NODE_ENV" env:"NODE_ENV"`
}

type composition struct {
	root    string
	app     buildconfig.AppConfig
	options buildconfig.BuildOptions
	config  *buildconfig.Config
}

func (f *BuildFlags) compose() (*composition, error) {
	proj, err := project.Load(f.Project)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	app, err := proj.App(f.App)
	if err != nil {
		return nil, err
	}

	outputPath := f.OutputPath
	if outputPath == "" {
		outputPath = filepath.Join(proj.Root, app.OutDir)
	}
	outputPath, err = filepath.Abs(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output path: %w", err)
	}

	opts := buildconfig.BuildOptions{
		VendorChunk: f.VendorChunk,
		Sourcemaps:  f.Sourcemaps,
		CommonChunk: f.CommonChunk,
		Target:      buildconfig.Target(f.Target),
		BaseHref:    f.BaseHref,
		OutputPath:  outputPath,
		BuildMode:   f.BuildMode,
	}

	appConfig := app.Config()

	return &composition{
		root:    proj.Root,
		app:     appConfig,
		options: opts,
		config:  buildconfig.Browser(proj.Root, opts, appConfig),
	}, nil
}
