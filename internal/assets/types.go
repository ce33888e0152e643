package assets

import (
	"errors"
	"sync"

	"github.com/wolfeidau/browserbuild/internal/buildconfig"
)

var (
	// ErrBuildFailed indicates esbuild reported errors
	ErrBuildFailed = errors.New("esbuild failed with errors")
	// ErrNotBuilt indicates the pipeline has not completed a build yet
	ErrNotBuilt = errors.New("assets not built yet, call Build() first")
)

// BuildMetadata is the subset of the esbuild metafile used after a build.
type BuildMetadata struct {
	Inputs  map[string]InputInfo  `json:"inputs"`
	Outputs map[string]OutputInfo `json:"outputs"`
}

type InputInfo struct {
	Bytes int `json:"bytes"`
}

type OutputInfo struct {
	Bytes      int                    `json:"bytes"`
	EntryPoint string                 `json:"entryPoint"`
	CSSBundle  string                 `json:"cssBundle"`
	Imports    []ImportInfo           `json:"imports"`
	Inputs     map[string]OutputInput `json:"inputs"`
}

type ImportInfo struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external"`
}

type OutputInput struct {
	BytesInOutput int `json:"bytesInOutput"`
}

// Pipeline builds a browser app from its composed bundler configuration.
type Pipeline struct {
	config    Config
	generated *buildconfig.Config
	manifest  *Manifest
	mu        sync.RWMutex
}

// New creates a new asset pipeline for the composed configuration
func New(config Config, generated *buildconfig.Config) *Pipeline {
	return &Pipeline{
		config:    config,
		generated: generated,
	}
}

// Manifest returns the chunk manifest of the last build.
func (p *Pipeline) Manifest() (*Manifest, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.manifest == nil {
		return nil, ErrNotBuilt
	}
	return p.manifest, nil
}
