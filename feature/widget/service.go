// Package widget assembles the enrichment blocks (cheat sheets, related
// searches, knowledge panels, instant answers) attached to a result page.
package widget

import (
	"context"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

// Service builds and persists widget data.
type Service struct {
	store store.WidgetStore
}

// NewService returns a Service backed by the given WidgetStore.
func NewService(s store.WidgetStore) *Service {
	return &Service{store: s}
}

// GetSettings returns userID's per-widget enable/position preferences.
func (s *Service) GetSettings(ctx context.Context, userID string) ([]types.WidgetSetting, error) {
	settings, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("widget: get settings: %w", err)
	}
	return settings, nil
}

// GetCheatSheet returns the cheat sheet for a detected programming
// language, if one is registered.
func (s *Service) GetCheatSheet(ctx context.Context, language string) (types.CheatSheet, bool, error) {
	sheet, ok, err := s.store.GetCheatSheet(ctx, language)
	if err != nil {
		return types.CheatSheet{}, false, fmt.Errorf("widget: get cheat sheet: %w", err)
	}
	return sheet, ok, nil
}

// GetRelatedSearches returns the cached related-search suggestions for a
// query, if any have been computed and cached.
func (s *Service) GetRelatedSearches(ctx context.Context, query string) ([]string, bool, error) {
	related, ok, err := s.store.GetRelatedSearches(ctx, hashQuery(query))
	if err != nil {
		return nil, false, fmt.Errorf("widget: get related searches: %w", err)
	}
	return related, ok, nil
}

// SaveRelatedSearches caches related search suggestions for a query.
func (s *Service) SaveRelatedSearches(ctx context.Context, query string, related []string) error {
	if err := s.store.SaveRelatedSearches(ctx, hashQuery(query), related); err != nil {
		return fmt.Errorf("widget: save related searches: %w", err)
	}
	return nil
}

// GenerateWidgets builds the widget set for one result page: a cheat
// sheet if the query looks like a programming question, related
// searches if cached, and any instant answer or knowledge panel the
// caller already computed. userID's saved settings control which
// widget types and positions are honored.
func (s *Service) GenerateWidgets(ctx context.Context, userID string, query string, instant *types.InstantAnswer, panel *types.KnowledgePanel) ([]types.Widget, error) {
	settings, err := s.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	enabled := make(map[types.WidgetType]int)
	for _, st := range settings {
		if st.Enabled {
			enabled[st.WidgetType] = st.Position
		}
	}
	isEnabled := func(t types.WidgetType, def bool) (bool, int) {
		if len(settings) == 0 {
			return def, 0
		}
		pos, ok := enabled[t]
		return ok, pos
	}

	var widgets []types.Widget

	if instant != nil {
		if ok, pos := isEnabled(types.WidgetInstantAnswer, true); ok {
			widgets = append(widgets, types.Widget{Type: types.WidgetInstantAnswer, Position: pos, Data: instant})
		}
	}
	if panel != nil {
		if ok, pos := isEnabled(types.WidgetKnowledgePanel, true); ok {
			widgets = append(widgets, types.Widget{Type: types.WidgetKnowledgePanel, Position: pos, Data: panel})
		}
	}
	if lang, ok := detectProgrammingLanguage(query); ok {
		if sheetOK, pos := isEnabled(types.WidgetCheatSheet, true); sheetOK {
			if sheet, found, err := s.GetCheatSheet(ctx, lang); err == nil && found {
				widgets = append(widgets, types.Widget{Type: types.WidgetCheatSheet, Position: pos, Data: sheet})
			}
		}
	}
	if related, found, err := s.GetRelatedSearches(ctx, query); err == nil && found {
		if ok, pos := isEnabled(types.WidgetRelatedSearches, true); ok {
			widgets = append(widgets, types.Widget{Type: types.WidgetRelatedSearches, Position: pos, Data: related})
		}
	}
	return widgets, nil
}

// languageKeywords maps query substrings to the cheat sheet language they
// imply. Matching is substring-based and deliberately small; it favors
// precision over recall.
var languageKeywords = map[string]string{
	"python":     "python",
	"golang":     "go",
	" go ":       "go",
	"javascript": "javascript",
	"typescript": "typescript",
	"rust":       "rust",
	"bash":       "bash",
	"sql":        "sql",
	"docker":     "docker",
	"git ":       "git",
	"regex":      "regex",
}

// detectProgrammingLanguage reports the cheat sheet language implied by
// query, if any keyword matches.
func detectProgrammingLanguage(query string) (string, bool) {
	q := " " + strings.ToLower(query) + " "
	for kw, lang := range languageKeywords {
		if strings.Contains(q, kw) {
			return lang, true
		}
	}
	return "", false
}

// hashQuery fingerprints a query string for use as a cache key.
func hashQuery(query string) string {
	h := xxhash.Sum64String(strings.ToLower(strings.TrimSpace(query)))
	return fmt.Sprintf("%016x", h)
}
