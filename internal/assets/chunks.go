package assets

import (
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/wolfeidau/browserbuild/internal/buildconfig"
)

// Manifest records what a build emitted and which chunk group each bundled
// module was attributed to.
type Manifest struct {
	// chunk name -> emitted files
	Chunks map[string][]string `json:"chunks"`
	// chunk group -> modules
	Modules map[string][]string `json:"modules"`
}

type plannedChunk struct {
	name    string
	entry   bool
	modules []string
}

// planChunks applies the commons chunk directives in list order. A module
// claimed by an earlier directive is not offered to later ones; modules no
// directive claims stay with the first chunk that contains them.
func planChunks(metadata *BuildMetadata, plugins []buildconfig.Plugin, root, outDir string) *Manifest {
	manifest := &Manifest{
		Chunks:  map[string][]string{},
		Modules: map[string][]string{},
	}

	var chunks []plannedChunk

	for _, path := range slices.Sorted(maps.Keys(metadata.Outputs)) {
		if filepath.Ext(path) == ".map" {
			continue
		}

		info := metadata.Outputs[path]
		name := chunkName(path, root, outDir)
		manifest.Chunks[name] = append(manifest.Chunks[name], path)

		if filepath.Ext(path) != ".js" {
			continue
		}

		chunks = append(chunks, plannedChunk{
			name:    name,
			entry:   info.EntryPoint != "",
			modules: slices.Sorted(maps.Keys(info.Inputs)),
		})
	}

	assigned := map[string]string{}

	for _, directive := range plugins {
		cc, ok := directive.(*buildconfig.CommonsChunk)
		if !ok || cc.MinChunks == nil {
			continue
		}

		candidates := slices.DeleteFunc(slices.Clone(chunks), func(c plannedChunk) bool {
			switch {
			case cc.Children:
				return c.entry
			case len(cc.Chunks) > 0:
				return !c.entry || !slices.Contains(cc.Chunks, c.name)
			default:
				return !c.entry
			}
		})

		counts := map[string]int{}
		for _, c := range candidates {
			for _, m := range c.modules {
				counts[m]++
			}
		}

		for _, m := range slices.Sorted(maps.Keys(counts)) {
			if _, done := assigned[m]; done {
				continue
			}

			module := buildconfig.Module{Resource: resource(root, m), ChunkCount: counts[m]}
			if cc.MinChunks(module, len(candidates)) {
				assigned[m] = cc.Name
			}
		}
	}

	for _, c := range chunks {
		for _, m := range c.modules {
			if _, done := assigned[m]; !done {
				assigned[m] = c.name
			}
		}
	}

	for m, group := range assigned {
		manifest.Modules[group] = append(manifest.Modules[group], m)
	}
	for _, modules := range manifest.Modules {
		slices.Sort(modules)
	}

	return manifest
}

// resource returns the absolute source path of a metafile input, or "" for
// modules served from a plugin namespace.
func resource(root, input string) string {
	if i := strings.Index(input, ":"); i > 1 {
		return ""
	}
	return filepath.Join(root, input)
}
