package buildconfig

// Target selects the optimisation profile of a build.
type Target string

const (
	TargetDevelopment Target = "development"
	TargetProduction  Target = "production"
)

// BuildOptions are the caller supplied switches for a browser build.
type BuildOptions struct {
	// Extract modules resolved from node_modules into a "vendor" chunk
	VendorChunk bool
	// Emit source maps
	Sourcemaps bool
	// Extract modules shared by async chunks into a common chunk
	CommonChunk bool
	Target      Target
	BaseHref    string
	OutputPath  string
	// Value injected as process.env.NODE_ENV, "undefined" when empty
	BuildMode string
}

// ExtraEntry is a script or style entry as written in the project file.
type ExtraEntry struct {
	Input  string
	Output string
	Lazy   bool
}

// EntrySpec is a parsed ExtraEntry with its resolved path and chunk name.
type EntrySpec struct {
	Path  string
	Entry string
	Lazy  bool
}

// AppConfig describes a single browser application within a project.
type AppConfig struct {
	Name      string
	Root      string
	OutDir    string
	Index     string
	Main      string
	Polyfills string
	Scripts   []ExtraEntry
	Styles    []ExtraEntry
}

// Config is the bundler configuration produced for the browser target.
type Config struct {
	Plugins   []Plugin
	Externals map[string]string
}
