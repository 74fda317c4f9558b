// Package bang resolves "!trigger" shortcuts embedded in a query: built-in
// category switches, time filters, AI/summarizer actions, and user-defined
// external redirects.
package bang

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

// Result is what Parse returns: either a rewritten Query to keep
// searching with, or a RedirectURL to send the caller to directly.
type Result struct {
	Query       types.Query
	RedirectURL string
	Matched     bool
	BangName    string
}

// Service resolves bangs against the built-in table and per-user
// BangStore entries.
type Service struct {
	store store.BangStore
}

// NewService returns a Service backed by the given BangStore.
func NewService(s store.BangStore) *Service {
	return &Service{store: s}
}

type builtinBang struct {
	name     string
	category types.Category
	timeRng  types.TimeRange
	kind     string // "category", "time", "ai", "lucky", "summarize"
}

var builtins = map[string]builtinBang{
	"images": {name: "Images", category: types.CategoryImages, kind: "category"},
	"i":      {name: "Images", category: types.CategoryImages, kind: "category"},
	"videos": {name: "Videos", category: types.CategoryVideos, kind: "category"},
	"v":      {name: "Videos", category: types.CategoryVideos, kind: "category"},
	"news":   {name: "News", category: types.CategoryNews, kind: "category"},
	"n":      {name: "News", category: types.CategoryNews, kind: "category"},
	"maps":   {name: "Maps", category: types.CategoryMaps, kind: "category"},
	"music":  {name: "Music", category: types.CategoryMusic, kind: "category"},
	"files":  {name: "Files", category: types.CategoryFiles, kind: "category"},
	"it":     {name: "IT", category: types.CategoryIT, kind: "category"},
	"science": {name: "Science", category: types.CategoryScience, kind: "category"},
	"social": {name: "Social", category: types.CategorySocial, kind: "category"},

	"day":   {name: "Past day", timeRng: types.TimeRangeDay, kind: "time"},
	"week":  {name: "Past week", timeRng: types.TimeRangeWeek, kind: "time"},
	"month": {name: "Past month", timeRng: types.TimeRangeMonth, kind: "time"},
	"year":  {name: "Past year", timeRng: types.TimeRangeYear, kind: "time"},

	"ai":        {name: "Ask AI", kind: "ai"},
	"summarize": {name: "Summarize page", kind: "summarize"},
	"lucky":     {name: "I'm feeling lucky", kind: "lucky"},
}

// Parse scans query's text for a "!trigger" token (as a prefix or
// anywhere as a standalone word), resolves it against the built-in table
// first and the user's BangStore second, and returns the rewritten result.
// A query with no bang token returns Matched=false and the original Query
// unchanged.
func (s *Service) Parse(ctx context.Context, userID string, q types.Query) (Result, error) {
	trigger, rest, ok := extractBang(q.Text())
	if !ok {
		return Result{Query: q, Matched: false}, nil
	}

	if b, ok := builtins[trigger]; ok {
		return s.applyBuiltin(b, q, rest), nil
	}

	dbBang, found, err := s.store.Get(ctx, userID, trigger)
	if err != nil {
		return Result{}, fmt.Errorf("bang: lookup %q: %w", trigger, err)
	}
	if !found {
		dbBang, found, err = s.store.Get(ctx, "", trigger)
		if err != nil {
			return Result{}, fmt.Errorf("bang: lookup built-in-table %q: %w", trigger, err)
		}
	}
	if !found {
		return Result{Query: q, Matched: false}, nil
	}

	if dbBang.IsExternal {
		return Result{
			RedirectURL: buildRedirectURL(dbBang.URLTemplate, rest),
			Matched:     true,
			BangName:    dbBang.Name,
		}, nil
	}

	newQuery := q.WithText(rest)
	if dbBang.Category != "" {
		newQuery = newQuery.WithCategory(types.Category(dbBang.Category))
	}
	return Result{Query: newQuery, Matched: true, BangName: dbBang.Name}, nil
}

func (s *Service) applyBuiltin(b builtinBang, q types.Query, rest string) Result {
	newQuery := q.WithText(rest)
	switch b.kind {
	case "category":
		newQuery = newQuery.WithCategory(b.category)
	case "time":
		newQuery = newQuery.WithTimeRange(b.timeRng)
	case "ai", "summarize", "lucky":
		// category/time unchanged; feature/search inspects BangName to
		// branch into the AI/summarize/lucky path.
	}
	return Result{Query: newQuery, Matched: true, BangName: b.name}
}

// extractBang finds the first "!token" in text, whether it leads,
// trails, or sits in the middle, and returns the lowercased trigger plus
// the remaining text with that token removed and whitespace collapsed.
func extractBang(text string) (trigger, rest string, ok bool) {
	fields := strings.Fields(text)
	for i, f := range fields {
		if len(f) < 2 || f[0] != '!' {
			continue
		}
		trigger = strings.ToLower(f[1:])
		remaining := append(append([]string{}, fields[:i]...), fields[i+1:]...)
		return trigger, strings.TrimSpace(strings.Join(remaining, " ")), true
	}
	return "", text, false
}

// buildRedirectURL substitutes the remaining query text into urlTemplate's
// "{query}" placeholder, percent-encoding spaces as "%20" rather than "+"
// to match the literal template substitution upstream services expect.
func buildRedirectURL(urlTemplate, query string) string {
	return strings.ReplaceAll(urlTemplate, "{query}", url.PathEscape(query))
}
