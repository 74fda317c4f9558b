package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

type bangView struct{ s *Store }

// Bang returns the store.BangStore view of this Store.
func (s *Store) Bang() store.BangStore { return bangView{s} }

func (v bangView) Get(ctx context.Context, userID, trigger string) (types.Bang, bool, error) {
	var b types.Bang
	var isExternal int
	err := v.s.db.QueryRowContext(ctx, `
		SELECT id, user_id, trigger, name, url_template, category, is_external, created_at
		FROM bangs WHERE user_id = ? AND trigger = ?`, userID, trigger).
		Scan(&b.ID, &b.UserID, &b.Trigger, &b.Name, &b.URLTemplate, &b.Category, &isExternal, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Bang{}, false, nil
	}
	if err != nil {
		return types.Bang{}, false, fmt.Errorf("sqlite: bang get: %w", err)
	}
	b.IsExternal = isExternal != 0
	return b, true, nil
}

func (v bangView) List(ctx context.Context, userID string) ([]types.Bang, error) {
	rows, err := v.s.db.QueryContext(ctx, `
		SELECT id, user_id, trigger, name, url_template, category, is_external, created_at
		FROM bangs WHERE user_id = ? OR user_id = '' ORDER BY trigger`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: bang list: %w", err)
	}
	defer rows.Close()
	var out []types.Bang
	for rows.Next() {
		var b types.Bang
		var isExternal int
		if err := rows.Scan(&b.ID, &b.UserID, &b.Trigger, &b.Name, &b.URLTemplate, &b.Category, &isExternal, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.IsExternal = isExternal != 0
		out = append(out, b)
	}
	return out, rows.Err()
}

func (v bangView) Create(ctx context.Context, b types.Bang) (types.Bang, error) {
	isExternal := 0
	if b.IsExternal {
		isExternal = 1
	}
	res, err := v.s.db.ExecContext(ctx, `
		INSERT INTO bangs (user_id, trigger, name, url_template, category, is_external)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.UserID, b.Trigger, b.Name, b.URLTemplate, b.Category, isExternal)
	if err != nil {
		return types.Bang{}, fmt.Errorf("sqlite: bang create: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return types.Bang{}, fmt.Errorf("sqlite: bang create id: %w", err)
	}
	b.ID = id
	return b, nil
}

func (v bangView) Delete(ctx context.Context, userID string, id int64) error {
	_, err := v.s.db.ExecContext(ctx, `DELETE FROM bangs WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("sqlite: bang delete: %w", err)
	}
	return nil
}
