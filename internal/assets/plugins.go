package assets

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/browserbuild/internal/buildconfig"
)

const (
	virtualEntryPrefix  = "browserbuild-entry:"
	virtualEntryNS      = "browserbuild-entry"
	externalGlobalNS    = "external-global"
	moduleContextNS     = "module-context"
	moduleContextPrefix = "module-context:"
)

type virtualEntry struct {
	loader api.Loader
	paths  []string
}

// entryPlugin serves the generated modules that bundle several extra
// entries into a single chunk.
func entryPlugin(entries map[string]virtualEntry, resolveDir string) api.Plugin {
	return api.Plugin{
		Name: "extra-entries",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: "^" + regexp.QuoteMeta(virtualEntryPrefix)},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: args.Path, Namespace: virtualEntryNS}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: virtualEntryNS},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					entry, ok := entries[args.Path]
					if !ok {
						return api.OnLoadResult{}, fmt.Errorf("unknown entry %q", args.Path)
					}

					contents := entryModule(entry)
					return api.OnLoadResult{Contents: &contents, Loader: entry.loader, ResolveDir: resolveDir}, nil
				})
		},
	}
}

func entryModule(entry virtualEntry) string {
	var sb strings.Builder
	for _, path := range entry.paths {
		quoted := strconv.Quote(filepath.ToSlash(path))
		if entry.loader == api.LoaderCSS {
			fmt.Fprintf(&sb, "@import %s;\n", quoted)
		} else {
			fmt.Fprintf(&sb, "import %s;\n", quoted)
		}
	}
	return sb.String()
}

// externalsPlugin replaces imports of externals with the global the page
// provides for them.
func externalsPlugin(externals map[string]string) api.Plugin {
	names := slices.Sorted(maps.Keys(externals))
	for i, name := range names {
		names[i] = regexp.QuoteMeta(name)
	}
	filter := "^(" + strings.Join(names, "|") + ")$"

	return api.Plugin{
		Name: "externals",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: filter},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: args.Path, Namespace: externalGlobalNS}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: externalGlobalNS},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					contents := externalModule(externals[args.Path])
					return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}, nil
				})
		},
	}
}

func externalModule(global string) string {
	return fmt.Sprintf("module.exports = globalThis[%s];\n", strconv.Quote(global))
}

var dynamicRequire = regexp.MustCompile(`\brequire\(\s*['"](\.{1,2}/[^'"]*)['"]\s*\+`)

// contextReplacementPlugin lets the directive rewrite the context of
// matching requests. A rewritten context is served as a module mapping each
// admitted file of the context directory to a lazy require.
//
// Literal requests are caught on resolve. Expression requests such as
// require('./locale/' + name) never reach the resolver, so modules holding
// them are rewritten on load to call the context module instead.
func contextReplacementPlugin(cr *buildconfig.ContextReplacement) api.Plugin {
	return api.Plugin{
		Name: "context-replacement",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: cr.ResourceRegExp.String()},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					ctx := buildconfig.ModuleContext{Context: args.ResolveDir, Request: args.Path}

					next := cr.NewContext(ctx)
					if next == ctx {
						return api.OnResolveResult{}, nil
					}

					return api.OnResolveResult{
						Path:       filepath.Join(next.Context, next.Request),
						Namespace:  moduleContextNS,
						PluginData: next,
					}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: `\.[cm]?js$`, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					source, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}

					contents, contexts := rewriteContexts(string(source), filepath.Dir(args.Path), cr)
					if len(contexts) == 0 {
						return api.OnLoadResult{}, nil
					}

					return api.OnLoadResult{
						Contents:   &contents,
						Loader:     api.LoaderJS,
						ResolveDir: filepath.Dir(args.Path),
						PluginData: contexts,
					}, nil
				})

			build.OnResolve(api.OnResolveOptions{Filter: "^" + regexp.QuoteMeta(moduleContextPrefix)},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					contexts, _ := args.PluginData.(map[string]buildconfig.ModuleContext)

					next, ok := contexts[args.Path]
					if !ok {
						return api.OnResolveResult{}, fmt.Errorf("unknown module context %q", args.Path)
					}

					return api.OnResolveResult{
						Path:       filepath.Join(next.Context, next.Request),
						Namespace:  moduleContextNS,
						PluginData: next,
					}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: moduleContextNS},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					next, _ := args.PluginData.(buildconfig.ModuleContext)

					contents, err := contextModule(args.Path, next.RegExp)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS, ResolveDir: args.Path}, nil
				})
		},
	}
}

// rewriteContexts replaces require('<request>/' + expr) calls whose request
// the directive rewrites with a call through the matching context module.
// It returns the rewritten source and the contexts it references, keyed by
// the require path used for each.
func rewriteContexts(source, dir string, cr *buildconfig.ContextReplacement) (string, map[string]buildconfig.ModuleContext) {
	contexts := map[string]buildconfig.ModuleContext{}

	out := dynamicRequire.ReplaceAllStringFunc(source, func(call string) string {
		request := strings.TrimSuffix(dynamicRequire.FindStringSubmatch(call)[1], "/")
		if !cr.ResourceRegExp.MatchString(request) {
			return call
		}

		ctx := buildconfig.ModuleContext{Context: dir, Request: request}
		next := cr.NewContext(ctx)
		if next == ctx {
			return call
		}

		path := moduleContextPrefix + filepath.ToSlash(filepath.Join(next.Context, next.Request))
		contexts[path] = next

		return fmt.Sprintf("require(%s)(\"./\" +", strconv.Quote(path))
	})

	return out, contexts
}

func contextModule(dir string, admit *regexp.Regexp) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read context directory: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("var modules = {\n")

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".js" {
			continue
		}

		request := "./" + strings.TrimSuffix(e.Name(), ".js")
		if admit != nil && !admit.MatchString(request) {
			continue
		}

		fmt.Fprintf(&sb, "  %s: function () { return require(%s); },\n",
			strconv.Quote(request), strconv.Quote("./"+e.Name()))
	}

	sb.WriteString("};\n")
	sb.WriteString(`function context(request) {
  var load = modules[request] || modules[request.replace(/\.js$/, "")];
  if (!load) {
    throw new Error("Cannot find module '" + request + "'");
  }
  return load();
}
context.keys = function () { return Object.keys(modules); };
module.exports = context;
`)

	return sb.String(), nil
}
