package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/browserbuild/internal/project"
	"gopkg.in/yaml.v3"
)

const testProject = `
apps:
  - name: web
    main: main.js
    scripts:
      - input: lazy.js
        lazy: true
    styles:
      - styles.css
`

func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		project.DefaultFile: testProject,
		"src/index.html":    `<!DOCTYPE html><html><head><title>App</title></head><body></body></html>`,
		"src/main.js":       "console.log(process.env.NODE_ENV);\n",
		"src/lazy.js":       "console.log(\"lazy\");\n",
		"src/styles.css":    "body { margin: 0; }\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	return filepath.Join(dir, project.DefaultFile)
}

func testFlags(projectFile string) BuildFlags {
	return BuildFlags{
		Project:     projectFile,
		Target:      "development",
		BaseHref:    "/",
		VendorChunk: true,
		Sourcemaps:  true,
		CommonChunk: true,
		BuildMode:   "development",
	}
}

func TestConfigCmd_Run(t *testing.T) {
	projectFile := setupProject(t)

	var buf bytes.Buffer
	cmd := &ConfigCmd{BuildFlags: testFlags(projectFile), Format: "yaml", out: &buf}

	require.NoError(t, cmd.Run(&Globals{}))

	var view configView
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &view))

	var kinds []string
	for _, p := range view.Plugins {
		kinds = append(kinds, p.Kind)
	}
	assert.Equal(t, []string{
		"html", "base-href", "commons-chunk", "context-replacement", "define",
		"commons-chunk", "source-map", "commons-chunk",
	}, kinds)
	assert.Equal(t, "_", view.Externals["lodash"])
	assert.Equal(t, []any{"lazy"}, view.Plugins[0].Options["excludeChunks"])
	assert.Equal(t, "vendor", view.Plugins[5].Options["name"])
}

func TestConfigCmd_RunJSON(t *testing.T) {
	projectFile := setupProject(t)

	flags := testFlags(projectFile)
	flags.VendorChunk, flags.Sourcemaps, flags.CommonChunk = false, false, false

	var buf bytes.Buffer
	cmd := &ConfigCmd{BuildFlags: flags, Format: "json", out: &buf}
	require.NoError(t, cmd.Run(&Globals{}))

	var view configView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &view))
	assert.Len(t, view.Plugins, 5)
	assert.Len(t, view.Externals, 4)
}

func TestConfigCmd_UnknownApp(t *testing.T) {
	projectFile := setupProject(t)

	flags := testFlags(projectFile)
	flags.App = "admin"

	cmd := &ConfigCmd{BuildFlags: flags, Format: "yaml", out: &bytes.Buffer{}}
	err := cmd.Run(&Globals{})
	require.ErrorIs(t, err, project.ErrAppNotFound)
}

func TestBuildCmd_Run(t *testing.T) {
	projectFile := setupProject(t)
	root := filepath.Dir(projectFile)

	flags := testFlags(projectFile)
	flags.Target = "production"
	flags.BuildMode = "production"

	cmd := &BuildCmd{BuildFlags: flags, Precompress: true}
	require.NoError(t, cmd.Run(&Globals{}))

	for _, name := range []string{"index.html", "index.html.gz", "main.js", "main.js.map", "lazy.js", "styles.css", "manifest.json"} {
		_, err := os.Stat(filepath.Join(root, "dist", name))
		assert.NoError(t, err, name)
	}

	index, err := os.ReadFile(filepath.Join(root, "dist", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), `<base href="/"/>`)
	assert.Contains(t, string(index), `src="main.js"`)
	assert.NotContains(t, string(index), "lazy.js")
}
