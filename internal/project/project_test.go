package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/browserbuild/internal/buildconfig"
)

const yamlProject = `
apps:
  - name: web
    main: main.ts
    polyfills: polyfills.ts
    scripts:
      - vendor/jquery.js
      - input: lazy/charts.js
        lazy: true
    styles:
      - styles.css
  - name: admin
    root: admin
    outDir: dist/admin
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, DefaultFile, yamlProject)

	p, err := Load(path)
	require.NoError(t, err)
	require.Len(t, p.Apps, 2)

	root, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, root, p.Root)

	app, err := p.App("")
	require.NoError(t, err)
	assert.Equal(t, "web", app.Name)
	assert.Equal(t, "src", app.Root)
	assert.Equal(t, "dist", app.OutDir)
	assert.Equal(t, "index.html", app.Index)

	assert.Equal(t, buildconfig.AppConfig{
		Name:      "web",
		Root:      "src",
		OutDir:    "dist",
		Index:     "index.html",
		Main:      "main.ts",
		Polyfills: "polyfills.ts",
		Scripts: []buildconfig.ExtraEntry{
			{Input: "vendor/jquery.js"},
			{Input: "lazy/charts.js", Lazy: true},
		},
		Styles: []buildconfig.ExtraEntry{
			{Input: "styles.css"},
		},
	}, app.Config())

	admin, err := p.App("admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Root)
	assert.Equal(t, "dist/admin", admin.OutDir)
}

func TestLoad_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "browserbuild.json", `{
  "apps": [{
    "name": "web",
    "styles": ["styles.css", {"input": "dark.scss", "output": "dark", "lazy": true}]
  }]
}`)

	p, err := Load(path)
	require.NoError(t, err)

	app, err := p.App("web")
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Input: "styles.css"},
		{Input: "dark.scss", Output: "dark", Lazy: true},
	}, app.Styles)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, ErrProjectNotFound)

	path := writeFile(t, dir, "broken.yaml", "apps: [")
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML project file")

	path = writeFile(t, dir, DefaultFile, yamlProject)
	p, err := Load(path)
	require.NoError(t, err)

	_, err = p.App("mobile")
	require.ErrorIs(t, err, ErrAppNotFound)
}
