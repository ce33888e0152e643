package buildconfig

import (
	"path/filepath"
	"regexp"
	"slices"
)

var entryExt = regexp.MustCompile(`(?i)\.(js|css|scss|sass|less|styl)$`)

// ParseEntries resolves entries against appRoot and names their chunks.
// Entries with an explicit output are named after it, lazy entries after
// their input, everything else shares defaultEntry.
func ParseEntries(entries []ExtraEntry, appRoot, defaultEntry string) []EntrySpec {
	specs := make([]EntrySpec, 0, len(entries))

	for _, e := range entries {
		spec := EntrySpec{
			Path:  filepath.Join(appRoot, e.Input),
			Entry: defaultEntry,
			Lazy:  e.Lazy,
		}

		switch {
		case e.Output != "":
			spec.Entry = entryExt.ReplaceAllString(e.Output, "")
		case e.Lazy:
			spec.Entry = entryExt.ReplaceAllString(e.Input, "")
		}

		specs = append(specs, spec)
	}

	return specs
}

// LazyChunks returns the chunk names of lazy entries in first seen order.
func LazyChunks(specs []EntrySpec) []string {
	chunks := []string{}
	for _, s := range specs {
		if s.Lazy && !slices.Contains(chunks, s.Entry) {
			chunks = append(chunks, s.Entry)
		}
	}
	return chunks
}
