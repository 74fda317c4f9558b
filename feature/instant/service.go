package instant

import (
	"context"
	"time"

	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

// Service aggregates every instant-answer detector (§4.5) behind a single
// Detect call, trying each in a fixed, cheap-first order.
type Service struct {
	currency   *CurrencyService
	dictionary *DictionaryService
	now        func() time.Time
}

// NewService returns a Service backed by the given stores. now defaults
// to time.Now; tests may override it via WithClock.
func NewService(currencyStore store.CurrencyStore, dictionaryStore store.DictionaryStore) *Service {
	return &Service{
		currency:   NewCurrencyService(currencyStore),
		dictionary: NewDictionaryService(dictionaryStore),
		now:        time.Now,
	}
}

// WithClock overrides the Service's clock, used by tests exercising
// TryWorldTime deterministically.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Detect tries each instant-answer shape against query in turn: pure
// calculator and conversion first (no I/O), then currency and dictionary
// (store lookups), then world time. It returns the first match; a query
// matching no recognized shape returns ok=false with a nil error. A
// recognized shape whose backing lookup fails (unknown currency pair,
// unknown word) still returns ok=true so the caller can surface the
// specific error rather than silently falling through to web results.
func (s *Service) Detect(ctx context.Context, query string) (types.InstantAnswer, bool, error) {
	if a, ok := TryCalculate(query); ok {
		return a, true, nil
	}
	if a, ok := TryConvert(query); ok {
		return a, true, nil
	}
	if a, ok, err := s.currency.TryConvert(ctx, query); ok || err != nil {
		return a, ok, err
	}
	if a, ok, err := s.dictionary.TryDefine(ctx, query); ok || err != nil {
		return a, ok, err
	}
	if a, ok := TryWorldTime(query, s.now()); ok {
		return a, true, nil
	}
	return types.InstantAnswer{}, false, nil
}
