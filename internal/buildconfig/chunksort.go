package buildconfig

import (
	"cmp"
	"slices"
)

// PackageChunkSort orders chunks the way the browser must load them: the
// runtime first, then polyfills, global styles and scripts, vendor code and
// finally the application. Chunks it does not know about sort first.
func PackageChunkSort(app AppConfig) ChunkSortFunc {
	order := []string{"inline", "polyfills", "sw-register"}

	push := func(specs []EntrySpec) {
		for _, s := range specs {
			if !slices.Contains(order, s.Entry) {
				order = append(order, s.Entry)
			}
		}
	}

	push(ParseEntries(app.Styles, "./", "styles"))
	push(ParseEntries(app.Scripts, "./", "scripts"))

	order = append(order, "vendor", "main")

	return func(a, b string) int {
		return cmp.Compare(slices.Index(order, a), slices.Index(order, b))
	}
}
