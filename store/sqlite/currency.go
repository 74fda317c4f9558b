package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/privasearch/search/store"
)

type currencyView struct{ s *Store }

// Currency returns the store.CurrencyStore view of this Store.
func (s *Store) Currency() store.CurrencyStore { return currencyView{s} }

func (v currencyView) Rate(ctx context.Context, from, to string) (float64, bool, error) {
	if from == to {
		return 1, true, nil
	}
	var rate float64
	err := v.s.db.QueryRowContext(ctx, `
		SELECT rate FROM currency_rates WHERE from_code = ? AND to_code = ?`, from, to).Scan(&rate)
	if errors.Is(err, sql.ErrNoRows) {
		// try the inverse rate before giving up
		var inverse float64
		err := v.s.db.QueryRowContext(ctx, `
			SELECT rate FROM currency_rates WHERE from_code = ? AND to_code = ?`, to, from).Scan(&inverse)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		if err != nil {
			return 0, false, fmt.Errorf("sqlite: currency rate lookup %s->%s: %w", from, to, err)
		}
		if inverse == 0 {
			return 0, false, nil
		}
		return 1 / inverse, true, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("sqlite: currency rate lookup %s->%s: %w", from, to, err)
	}
	return rate, true, nil
}

func (v currencyView) SetRate(ctx context.Context, from, to string, rate float64) error {
	_, err := v.s.db.ExecContext(ctx, `
		INSERT INTO currency_rates (from_code, to_code, rate, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(from_code, to_code) DO UPDATE SET rate=excluded.rate, updated_at=excluded.updated_at`,
		from, to, rate)
	if err != nil {
		return fmt.Errorf("sqlite: set currency rate %s->%s: %w", from, to, err)
	}
	return nil
}
