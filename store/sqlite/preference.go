package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

type preferenceView struct{ s *Store }

// Preference returns the store.PreferenceStore view of this Store.
func (s *Store) Preference() store.PreferenceStore { return preferenceView{s} }

func (v preferenceView) Get(ctx context.Context, userID string) (store.UserPreference, bool, error) {
	var (
		p          store.UserPreference
		enginesJSON string
	)
	p.UserID = userID
	err := v.s.db.QueryRowContext(ctx, `
		SELECT safe_search, locale, preferred_engines_json, updated_at
		FROM user_preferences WHERE user_id = ?`, userID).
		Scan(&p.SafeSearch, &p.Locale, &enginesJSON, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.UserPreference{}, false, nil
	}
	if err != nil {
		return store.UserPreference{}, false, fmt.Errorf("sqlite: preference get: %w", err)
	}
	if err := json.Unmarshal([]byte(enginesJSON), &p.PreferredEngines); err != nil {
		return store.UserPreference{}, false, fmt.Errorf("sqlite: decode preferred engines: %w", err)
	}
	return p, true, nil
}

func (v preferenceView) Save(ctx context.Context, p store.UserPreference) error {
	if p.SafeSearch == "" {
		p.SafeSearch = types.SafeSearchModerate
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	enginesJSON, err := json.Marshal(p.PreferredEngines)
	if err != nil {
		return fmt.Errorf("sqlite: encode preferred engines: %w", err)
	}
	_, err = v.s.db.ExecContext(ctx, `
		INSERT INTO user_preferences (user_id, safe_search, locale, preferred_engines_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			safe_search=excluded.safe_search, locale=excluded.locale,
			preferred_engines_json=excluded.preferred_engines_json, updated_at=excluded.updated_at`,
		p.UserID, p.SafeSearch, p.Locale, string(enginesJSON), p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: preference save: %w", err)
	}
	return nil
}

func (v preferenceView) ListLenses(ctx context.Context, userID string) ([]store.SearchLens, error) {
	rows, err := v.s.db.QueryContext(ctx, `
		SELECT id, user_id, name, sites_json, built_in, created_at FROM search_lenses
		WHERE user_id = ? OR built_in = 1 ORDER BY built_in DESC, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list lenses: %w", err)
	}
	defer rows.Close()
	var out []store.SearchLens
	for rows.Next() {
		var (
			l         store.SearchLens
			sitesJSON string
			builtIn   int
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &sitesJSON, &builtIn, &l.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(sitesJSON), &l.Sites); err != nil {
			return nil, fmt.Errorf("sqlite: decode lens sites: %w", err)
		}
		l.BuiltIn = builtIn != 0
		out = append(out, l)
	}
	return out, rows.Err()
}

func (v preferenceView) SaveLens(ctx context.Context, l store.SearchLens) (store.SearchLens, error) {
	if l.BuiltIn {
		return store.SearchLens{}, fmt.Errorf("sqlite: cannot modify built-in lens %q", l.Name)
	}
	sitesJSON, err := json.Marshal(l.Sites)
	if err != nil {
		return store.SearchLens{}, fmt.Errorf("sqlite: encode lens sites: %w", err)
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	res, err := v.s.db.ExecContext(ctx, `
		INSERT INTO search_lenses (user_id, name, sites_json, built_in, created_at)
		VALUES (?, ?, ?, 0, ?)
		ON CONFLICT(user_id, name) DO UPDATE SET sites_json=excluded.sites_json`,
		l.UserID, l.Name, string(sitesJSON), l.CreatedAt)
	if err != nil {
		return store.SearchLens{}, fmt.Errorf("sqlite: save lens: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil && id != 0 {
		l.ID = id
	}
	return l, nil
}

func (v preferenceView) DeleteLens(ctx context.Context, userID string, id int64) error {
	res, err := v.s.db.ExecContext(ctx, `DELETE FROM search_lenses WHERE user_id = ? AND id = ? AND built_in = 0`, userID, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete lens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("sqlite: lens %d not found or is built-in", id)
	}
	return nil
}
