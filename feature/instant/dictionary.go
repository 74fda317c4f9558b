package instant

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

var defineExpr = regexp.MustCompile(`(?i)^\s*define[: ]+(.+?)\s*$`)

// ErrWordNotFound is the distinguished sentinel TryDefine returns (wrapped
// in an *types.Error) when a recognized "define <word>" query has no entry
// in the dictionary store.
var ErrWordNotFound = fmt.Errorf("instant: word not found")

// DictionaryService answers "define <word>" queries from a stored
// word -> definition/synonym table (§4.5).
type DictionaryService struct {
	store store.DictionaryStore
}

// NewDictionaryService returns a DictionaryService backed by s.
func NewDictionaryService(s store.DictionaryStore) *DictionaryService {
	return &DictionaryService{store: s}
}

// TryDefine recognizes a "define <word>" query shape. ok=false for
// anything else. A recognized query whose word isn't in the dictionary
// store returns ok=true with ErrWordNotFound, matching §4.5's "not found
// sentinel" behavior.
func (s *DictionaryService) TryDefine(ctx context.Context, query string) (types.InstantAnswer, bool, error) {
	m := defineExpr.FindStringSubmatch(query)
	if m == nil {
		return types.InstantAnswer{}, false, nil
	}
	word := strings.TrimSpace(m[1])
	if word == "" {
		return types.InstantAnswer{}, false, nil
	}
	entry, found, err := s.store.Lookup(ctx, word)
	if err != nil {
		return types.InstantAnswer{}, true, fmt.Errorf("instant: dictionary lookup %q: %w", word, err)
	}
	if !found {
		return types.InstantAnswer{}, true, ErrWordNotFound
	}
	text := entry.Definition
	if len(entry.Synonyms) > 0 {
		text = fmt.Sprintf("%s (synonyms: %s)", entry.Definition, strings.Join(entry.Synonyms, ", "))
	}
	return types.InstantAnswer{
		Type:  "dictionary",
		Query: query,
		Value: entry.Definition,
		Text:  text,
	}, true, nil
}
