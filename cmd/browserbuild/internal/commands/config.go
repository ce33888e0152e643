package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/wolfeidau/browserbuild/internal/buildconfig"
	"github.com/wolfeidau/browserbuild/internal/logger"
	"gopkg.in/yaml.v3"
)

type ConfigCmd struct {
	BuildFlags `embed:""`
	Format     string `help:"output format" default:"yaml" enum:"yaml,json"`

	out io.Writer
}

type pluginView struct {
	Kind    string         `yaml:"kind" json:"kind"`
	Options map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

type configView struct {
	Plugins   []pluginView      `yaml:"plugins" json:"plugins"`
	Externals map[string]string `yaml:"externals" json:"externals"`
}

func (c *ConfigCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)

	composed, err := c.compose()
	if err != nil {
		return err
	}

	log.Debug().Str("app", composed.app.Name).Int("plugins", len(composed.config.Plugins)).Msg("Composed configuration")

	view := describe(composed.config)

	var data []byte
	if c.Format == "json" {
		data, err = json.MarshalIndent(view, "", "  ")
	} else {
		data, err = yaml.Marshal(view)
	}
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	out := c.out
	if out == nil {
		out = os.Stdout
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// describe renders the directives without their callbacks.
func describe(cfg *buildconfig.Config) configView {
	view := configView{Externals: cfg.Externals}

	for _, p := range cfg.Plugins {
		v := pluginView{Kind: p.Kind()}

		switch d := p.(type) {
		case *buildconfig.HTML:
			v.Options = map[string]any{
				"template":      d.Template,
				"filename":      d.Filename,
				"excludeChunks": d.ExcludeChunks,
				"xhtml":         d.XHTML,
				"minify":        d.Minify != nil,
			}
		case *buildconfig.BaseHref:
			v.Options = map[string]any{"baseHref": d.BaseHref}
		case *buildconfig.CommonsChunk:
			v.Options = map[string]any{"name": d.Name}
			if len(d.Chunks) > 0 {
				v.Options["chunks"] = d.Chunks
			}
			if d.Children {
				v.Options["async"] = d.Async
				v.Options["children"] = true
			}
		case *buildconfig.SourceMap:
			v.Options = map[string]any{
				"filename":                       d.Filename,
				"moduleFilenameTemplate":         d.ModuleFilenameTemplate,
				"fallbackModuleFilenameTemplate": d.FallbackModuleFilenameTemplate,
				"sourceRoot":                     d.SourceRoot,
			}
		case *buildconfig.ContextReplacement:
			v.Options = map[string]any{"resourceRegExp": d.ResourceRegExp.String()}
		case *buildconfig.Define:
			v.Options = map[string]any{"definitions": d.Definitions}
		}

		view.Plugins = append(view.Plugins, v)
	}

	return view
}
