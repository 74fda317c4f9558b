package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/privasearch/search/store"
)

type historyView struct{ s *Store }

// History returns the store.HistoryStore view of this Store.
func (s *Store) History() store.HistoryStore { return historyView{s} }

func (v historyView) Record(ctx context.Context, h store.SearchHistory) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	_, err := v.s.db.ExecContext(ctx, `
		INSERT INTO search_history (user_id, query, category, created_at) VALUES (?, ?, ?, ?)`,
		h.UserID, h.Query, h.Category, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: record history: %w", err)
	}
	return nil
}

func (v historyView) List(ctx context.Context, userID string, limit int) ([]store.SearchHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := v.s.db.QueryContext(ctx, `
		SELECT id, user_id, query, category, created_at FROM search_history
		WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list history: %w", err)
	}
	defer rows.Close()
	var out []store.SearchHistory
	for rows.Next() {
		var h store.SearchHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.Query, &h.Category, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (v historyView) Clear(ctx context.Context, userID string) error {
	_, err := v.s.db.ExecContext(ctx, `DELETE FROM search_history WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("sqlite: clear history: %w", err)
	}
	return nil
}
