package assets

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/browserbuild/internal/buildconfig"
)

func TestEntryModule(t *testing.T) {
	js := entryModule(virtualEntry{loader: api.LoaderJS, paths: []string{"/app/src/a.js", "/app/src/b.js"}})
	assert.Equal(t, "import \"/app/src/a.js\";\nimport \"/app/src/b.js\";\n", js)

	css := entryModule(virtualEntry{loader: api.LoaderCSS, paths: []string{"/app/src/styles.css"}})
	assert.Equal(t, "@import \"/app/src/styles.css\";\n", css)
}

func TestExternalModule(t *testing.T) {
	assert.Equal(t, "module.exports = globalThis[\"Rx\"];\n", externalModule("Rx"))
	assert.Equal(t, "module.exports = globalThis[\"_\"];\n", externalModule("_"))
}

func TestContextModule(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"zh-cn.js", "zh-tw.js", "en-gb.js", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("module.exports = {};"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "zh-nested"), 0o755))

	contents, err := contextModule(dir, regexp.MustCompile(`^\./(zh)`))
	require.NoError(t, err)

	assert.Contains(t, contents, `"./zh-cn": function () { return require("./zh-cn.js"); },`)
	assert.Contains(t, contents, `"./zh-tw": function () { return require("./zh-tw.js"); },`)
	assert.NotContains(t, contents, "en-gb")
	assert.NotContains(t, contents, "README")
	assert.NotContains(t, contents, "zh-nested")
	assert.Contains(t, contents, "module.exports = context;")

	all, err := contextModule(dir, nil)
	require.NoError(t, err)
	assert.Contains(t, all, `"./en-gb"`)

	_, err = contextModule(filepath.Join(dir, "missing"), nil)
	require.Error(t, err)
}

func TestRewriteContexts(t *testing.T) {
	cfg := buildconfig.Browser("/work", buildconfig.BuildOptions{}, buildconfig.AppConfig{})

	var cr *buildconfig.ContextReplacement
	for _, p := range cfg.Plugins {
		if c, ok := p.(*buildconfig.ContextReplacement); ok {
			cr = c
		}
	}
	require.NotNil(t, cr)

	source := "function load(name) { return require('./locale/' + name); }\nrequire(\"./util\");\n"

	t.Run("moment context", func(t *testing.T) {
		out, contexts := rewriteContexts(source, "/work/node_modules/moment/src/lib/locale", cr)

		require.Len(t, contexts, 1)
		assert.Contains(t, contexts, "module-context:/work/node_modules/moment/src/locale")
		assert.Contains(t, out, `return require("module-context:/work/node_modules/moment/src/locale")("./" + name);`)
		assert.Contains(t, out, `require("./util");`)
	})

	t.Run("other packages untouched", func(t *testing.T) {
		out, contexts := rewriteContexts(source, "/work/node_modules/dayjs/esm", cr)

		assert.Empty(t, contexts)
		assert.Equal(t, source, out)
	})

	t.Run("other requests untouched", func(t *testing.T) {
		other := "require('./lang/' + name);\n"
		out, contexts := rewriteContexts(other, "/work/node_modules/moment/src/lib/locale", cr)

		assert.Empty(t, contexts)
		assert.Equal(t, other, out)
	})
}
