package types

import "time"

// WidgetSetting is a per-user enable/position preference for one widget type.
type WidgetSetting struct {
	UserID     string
	WidgetType WidgetType
	Enabled    bool
	Position   int
}

// CheatItem is one line of a CheatSection.
type CheatItem struct {
	Code        string
	Description string
}

// CheatSection groups related CheatItems under a heading.
type CheatSection struct {
	Name  string
	Items []CheatItem
}

// CheatSheet is a programming-language quick reference attached as a widget.
type CheatSheet struct {
	Language string
	Title    string
	Sections []CheatSection
}

// EnrichType identifies the kind of small-web enrichment result.
type EnrichType string

const (
	EnrichTypeResult EnrichType = "result"
)

// SmallWebEntry is one indexed independent web/news page, used by the
// enrichment pipeline to surface non-mainstream sources alongside the
// primary result set.
type SmallWebEntry struct {
	ID          string
	URL         string
	Title       string
	Snippet     string
	SourceType  string // "web" or "news"
	Domain      string
	PublishedAt time.Time
}
