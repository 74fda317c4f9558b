package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

type widgetView struct{ s *Store }

// Widget returns the store.WidgetStore view of this Store.
func (s *Store) Widget() store.WidgetStore { return widgetView{s} }

func (v widgetView) GetSettings(ctx context.Context, userID string) ([]types.WidgetSetting, error) {
	rows, err := v.s.db.QueryContext(ctx, `
		SELECT user_id, widget_type, enabled, position FROM widget_settings WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: widget settings: %w", err)
	}
	defer rows.Close()
	var out []types.WidgetSetting
	for rows.Next() {
		var s types.WidgetSetting
		var enabled int
		if err := rows.Scan(&s.UserID, &s.WidgetType, &enabled, &s.Position); err != nil {
			return nil, err
		}
		s.Enabled = enabled != 0
		out = append(out, s)
	}
	return out, rows.Err()
}

func (v widgetView) SaveSetting(ctx context.Context, s types.WidgetSetting) error {
	enabled := 0
	if s.Enabled {
		enabled = 1
	}
	_, err := v.s.db.ExecContext(ctx, `
		INSERT INTO widget_settings (user_id, widget_type, enabled, position)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, widget_type) DO UPDATE SET enabled=excluded.enabled, position=excluded.position`,
		s.UserID, s.WidgetType, enabled, s.Position)
	if err != nil {
		return fmt.Errorf("sqlite: widget setting save: %w", err)
	}
	return nil
}

func (v widgetView) GetRelatedSearches(ctx context.Context, queryHash string) ([]string, bool, error) {
	var relatedJSON string
	err := v.s.db.QueryRowContext(ctx, `SELECT related_json FROM related_searches WHERE query_hash = ?`, queryHash).Scan(&relatedJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite: related searches get: %w", err)
	}
	var related []string
	if err := json.Unmarshal([]byte(relatedJSON), &related); err != nil {
		return nil, false, fmt.Errorf("sqlite: decode related searches: %w", err)
	}
	return related, true, nil
}

func (v widgetView) SaveRelatedSearches(ctx context.Context, queryHash string, related []string) error {
	b, err := json.Marshal(related)
	if err != nil {
		return fmt.Errorf("sqlite: encode related searches: %w", err)
	}
	_, err = v.s.db.ExecContext(ctx, `
		INSERT INTO related_searches (query_hash, related_json) VALUES (?, ?)
		ON CONFLICT(query_hash) DO UPDATE SET related_json=excluded.related_json`, queryHash, string(b))
	if err != nil {
		return fmt.Errorf("sqlite: related searches save: %w", err)
	}
	return nil
}

func (v widgetView) GetCheatSheet(ctx context.Context, language string) (types.CheatSheet, bool, error) {
	var (
		sheet        types.CheatSheet
		sectionsJSON string
	)
	sheet.Language = language
	err := v.s.db.QueryRowContext(ctx, `SELECT title, sections_json FROM cheat_sheets WHERE language = ?`, language).
		Scan(&sheet.Title, &sectionsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return types.CheatSheet{}, false, nil
	}
	if err != nil {
		return types.CheatSheet{}, false, fmt.Errorf("sqlite: cheat sheet get: %w", err)
	}
	if err := json.Unmarshal([]byte(sectionsJSON), &sheet.Sections); err != nil {
		return types.CheatSheet{}, false, fmt.Errorf("sqlite: decode cheat sheet: %w", err)
	}
	return sheet, true, nil
}
