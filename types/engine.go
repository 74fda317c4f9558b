package types

// EngineDescriptor is the registry-owned metadata for one search engine.
// Descriptors are registered once at process init and are read-only
// thereafter.
type EngineDescriptor struct {
	Name           string
	Shortcut       string
	Categories     map[Category]bool
	SupportsPaging bool
	MaxPage        int
	TimeoutMs      int
	Weight         float64
	Enabled        bool
}

// HasCategory reports whether the engine serves the given category.
func (d EngineDescriptor) HasCategory(c Category) bool {
	return d.Categories[c]
}

// OptionalMedia carries category-specific fields a Hit may or may not have.
type OptionalMedia struct {
	ThumbnailURL string
	Duration     string // canonical "HH:MM:SS"
	DurationSecs int
	EmbedURL     string
	Views        int64
	Channel      string
	PublishedAt  string // RFC3339, empty if unknown
	Width        int
	Height       int
}

// Hit is a single result produced by one engine for one query.
type Hit struct {
	URL      string
	Title    string
	Snippet  string
	Engine   string
	Score    float64 // raw engine score, 0-1.5
	Category Category
	Media    OptionalMedia
}

// EngineDiagnostics records one engine's per-request outcome.
type EngineDiagnostics struct {
	Engine    string
	ElapsedMs int64
	Error     string // empty on success
}

// EngineResult is what one engine produces for one query.
type EngineResult struct {
	Hits        []Hit
	Diagnostics EngineDiagnostics
}
