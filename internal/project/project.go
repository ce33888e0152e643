package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wolfeidau/browserbuild/internal/buildconfig"
	"gopkg.in/yaml.v3"
)

var (
	// ErrProjectNotFound indicates the project file does not exist
	ErrProjectNotFound = errors.New("project file not found")
	// ErrAppNotFound indicates the requested app is not declared in the project
	ErrAppNotFound = errors.New("app not found")
)

// DefaultFile is the project file looked up in the working directory.
const DefaultFile = "browserbuild.yaml"

type Project struct {
	// Directory containing the project file
	Root string `yaml:"-" json:"-"`
	Apps []App  `yaml:"apps" json:"apps"`
}

type App struct {
	Name      string  `yaml:"name" json:"name"`
	Root      string  `yaml:"root" json:"root"`
	OutDir    string  `yaml:"outDir" json:"outDir"`
	Index     string  `yaml:"index" json:"index"`
	Main      string  `yaml:"main" json:"main"`
	Polyfills string  `yaml:"polyfills" json:"polyfills"`
	Scripts   []Entry `yaml:"scripts" json:"scripts"`
	Styles    []Entry `yaml:"styles" json:"styles"`
}

// Entry is either a plain path or an object with input, output and lazy.
type Entry struct {
	Input  string `yaml:"input" json:"input"`
	Output string `yaml:"output" json:"output"`
	Lazy   bool   `yaml:"lazy" json:"lazy"`
}

func (e *Entry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return value.Decode(&e.Input)
	}

	type plain Entry
	return value.Decode((*plain)(e))
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &e.Input)
	}

	type plain Entry
	return json.Unmarshal(data, (*plain)(e))
}

// Load reads a YAML or JSON project file, chosen by extension.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, path)
		}
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}

	var p Project

	if strings.HasSuffix(strings.ToLower(path), ".json") {
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to parse JSON project file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to parse YAML project file: %w", err)
		}
	}

	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	p.Root = root

	for i := range p.Apps {
		p.Apps[i].applyDefaults()
	}

	return &p, nil
}

// App returns the named app, or the first app when name is empty.
func (p *Project) App(name string) (App, error) {
	if name == "" && len(p.Apps) > 0 {
		return p.Apps[0], nil
	}

	for _, app := range p.Apps {
		if app.Name == name {
			return app, nil
		}
	}

	return App{}, fmt.Errorf("%w: %q", ErrAppNotFound, name)
}

func (a *App) applyDefaults() {
	if a.Root == "" {
		a.Root = "src"
	}
	if a.OutDir == "" {
		a.OutDir = "dist"
	}
	if a.Index == "" {
		a.Index = "index.html"
	}
}

// Config converts the app into the form consumed by the config composer.
func (a App) Config() buildconfig.AppConfig {
	return buildconfig.AppConfig{
		Name:      a.Name,
		Root:      a.Root,
		OutDir:    a.OutDir,
		Index:     a.Index,
		Main:      a.Main,
		Polyfills: a.Polyfills,
		Scripts:   extraEntries(a.Scripts),
		Styles:    extraEntries(a.Styles),
	}
}

func extraEntries(entries []Entry) []buildconfig.ExtraEntry {
	out := make([]buildconfig.ExtraEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, buildconfig.ExtraEntry{Input: e.Input, Output: e.Output, Lazy: e.Lazy})
	}
	return out
}
