package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/privasearch/search/store"
)

type knowledgeView struct{ s *Store }

// Knowledge returns the store.KnowledgeStore view of this Store.
func (s *Store) Knowledge() store.KnowledgeStore { return knowledgeView{s} }

func (v knowledgeView) Lookup(ctx context.Context, name string) (store.Entity, bool, error) {
	var (
		e                       store.Entity
		factsJSON, linksJSON    string
	)
	err := v.s.db.QueryRowContext(ctx, `
		SELECT name, type, description, image, facts_json, links_json
		FROM entities WHERE name = ? COLLATE NOCASE`, name).
		Scan(&e.Name, &e.Type, &e.Description, &e.Image, &factsJSON, &linksJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Entity{}, false, nil
	}
	if err != nil {
		return store.Entity{}, false, fmt.Errorf("sqlite: entity lookup: %w", err)
	}
	if err := json.Unmarshal([]byte(factsJSON), &e.Facts); err != nil {
		return store.Entity{}, false, fmt.Errorf("sqlite: decode entity facts: %w", err)
	}
	if err := json.Unmarshal([]byte(linksJSON), &e.Links); err != nil {
		return store.Entity{}, false, fmt.Errorf("sqlite: decode entity links: %w", err)
	}
	return e, true, nil
}

func (v knowledgeView) Upsert(ctx context.Context, e store.Entity) error {
	factsJSON, err := json.Marshal(e.Facts)
	if err != nil {
		return fmt.Errorf("sqlite: encode entity facts: %w", err)
	}
	linksJSON, err := json.Marshal(e.Links)
	if err != nil {
		return fmt.Errorf("sqlite: encode entity links: %w", err)
	}
	_, err = v.s.db.ExecContext(ctx, `
		INSERT INTO entities (name, type, description, image, facts_json, links_json)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			type=excluded.type, description=excluded.description, image=excluded.image,
			facts_json=excluded.facts_json, links_json=excluded.links_json`,
		e.Name, e.Type, e.Description, e.Image, string(factsJSON), string(linksJSON))
	if err != nil {
		return fmt.Errorf("sqlite: entity upsert: %w", err)
	}
	return nil
}
