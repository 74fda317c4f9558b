package engine

import (
	"time"

	"github.com/privasearch/search/types"
)

// DefaultDescriptors pins the weight, per-engine timeout, and max page
// depth for every built-in remote adapter. Weight ordering mirrors the
// precedence a human would give each source: direct web search first,
// video verticals next, the reader/summarizer last since it isn't a
// general-purpose ranking signal.
var DefaultDescriptors = map[string]types.EngineDescriptor{
	"google":     {Shortcut: "g", Weight: 1.0, TimeoutMs: 3000, MaxPage: 100},
	"bing":       {Shortcut: "b", Weight: 0.9, TimeoutMs: 3000, MaxPage: 100},
	"duckduckgo": {Shortcut: "ddg", Weight: 0.85, TimeoutMs: 3000, MaxPage: 100},
	"youtube":    {Shortcut: "yt", Weight: 1.0, TimeoutMs: 3000, MaxPage: 50},
	"vimeo":      {Shortcut: "vim", Weight: 0.8, TimeoutMs: 3000, MaxPage: 50},
	"peertube":   {Shortcut: "pt", Weight: 0.6, TimeoutMs: 3000, MaxPage: 50},
	"jina":       {Shortcut: "r", Weight: 0.5, TimeoutMs: 5000, MaxPage: 1},
	"local":      {Shortcut: "l", Weight: 0.7, TimeoutMs: 2000, MaxPage: 1000},
}

// RegisterRemote fills in d's Categories/Name/Enabled from e, applies
// DefaultDescriptors' tuning for e.Name() if present, and registers it.
// Used by cmd/searchd to wire up every remote engine without repeating
// the descriptor-construction boilerplate at each call site.
func RegisterRemote(r *Registry, e Engine) {
	d := DefaultDescriptors[e.Name()]
	d.Name = e.Name()
	d.Categories = categorySet(e.Categories())
	d.SupportsPaging = true
	d.Enabled = true
	if d.TimeoutMs <= 0 {
		d.TimeoutMs = int(3 * time.Second / time.Millisecond)
	}
	r.Register(e, d)
}

func categorySet(cats []Category) map[types.Category]bool {
	out := make(map[types.Category]bool, len(cats))
	for _, c := range cats {
		out[c] = true
	}
	return out
}
