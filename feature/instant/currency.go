package instant

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/privasearch/search/store"
	"github.com/privasearch/search/types"
)

var currencyExpr = regexp.MustCompile(`(?i)^\s*(-?\d+(?:\.\d+)?)\s*([a-zA-Z]{3})\s+(?:to|in)\s+([a-zA-Z]{3})\s*$`)

// CurrencyService computes currency instant answers from a stored rate
// table refreshed by an out-of-scope job (§4.5).
type CurrencyService struct {
	store store.CurrencyStore
}

// NewCurrencyService returns a CurrencyService backed by the given
// CurrencyStore.
func NewCurrencyService(s store.CurrencyStore) *CurrencyService {
	return &CurrencyService{store: s}
}

// TryConvert recognizes "<amount> <CCY> to <CCY>" and multiplies by the
// stored rate. ok=false for anything not shaped like a currency query; a
// recognized query with no stored rate returns an error rather than
// silently falling through, since the caller already committed to the
// currency-answer shape.
func (s *CurrencyService) TryConvert(ctx context.Context, query string) (types.InstantAnswer, bool, error) {
	m := currencyExpr.FindStringSubmatch(query)
	if m == nil {
		return types.InstantAnswer{}, false, nil
	}
	amount, err := decimal.NewFromString(m[1])
	if err != nil {
		return types.InstantAnswer{}, false, nil
	}
	from := strings.ToUpper(m[2])
	to := strings.ToUpper(m[3])

	rate, found, err := s.store.Rate(ctx, from, to)
	if err != nil {
		return types.InstantAnswer{}, true, fmt.Errorf("instant: currency rate %s->%s: %w", from, to, err)
	}
	if !found {
		return types.InstantAnswer{}, true, fmt.Errorf("instant: no rate for %s->%s", from, to)
	}
	result := amount.Mul(decimal.NewFromFloat(rate)).Round(4)
	return types.InstantAnswer{
		Type:  "currency",
		Query: query,
		Value: result.String(),
		Text:  fmt.Sprintf("%s %s = %s %s", amount.String(), from, result.String(), to),
	}, true, nil
}
