package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/privasearch/search/store"
)

type dictionaryView struct{ s *Store }

// Dictionary returns the store.DictionaryStore view of this Store.
func (s *Store) Dictionary() store.DictionaryStore { return dictionaryView{s} }

func (v dictionaryView) Lookup(ctx context.Context, word string) (store.DictionaryEntry, bool, error) {
	var (
		e            store.DictionaryEntry
		synonymsJSON string
	)
	err := v.s.db.QueryRowContext(ctx, `
		SELECT word, definition, synonyms_json FROM dictionary_entries WHERE word = ?`, word).
		Scan(&e.Word, &e.Definition, &synonymsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return store.DictionaryEntry{}, false, nil
	}
	if err != nil {
		return store.DictionaryEntry{}, false, fmt.Errorf("sqlite: dictionary lookup %q: %w", word, err)
	}
	if err := json.Unmarshal([]byte(synonymsJSON), &e.Synonyms); err != nil {
		return store.DictionaryEntry{}, false, fmt.Errorf("sqlite: decode synonyms for %q: %w", word, err)
	}
	return e, true, nil
}

func (v dictionaryView) Upsert(ctx context.Context, e store.DictionaryEntry) error {
	synonymsJSON, err := json.Marshal(e.Synonyms)
	if err != nil {
		return fmt.Errorf("sqlite: encode synonyms for %q: %w", e.Word, err)
	}
	_, err = v.s.db.ExecContext(ctx, `
		INSERT INTO dictionary_entries (word, definition, synonyms_json)
		VALUES (?, ?, ?)
		ON CONFLICT(word) DO UPDATE SET definition=excluded.definition, synonyms_json=excluded.synonyms_json`,
		e.Word, e.Definition, string(synonymsJSON))
	if err != nil {
		return fmt.Errorf("sqlite: dictionary upsert %q: %w", e.Word, err)
	}
	return nil
}
