package search

import (
	"testing"

	"github.com/privasearch/search/types"
)

func TestCanonicalURLStripsTrackingParamsAndFragment(t *testing.T) {
	a := canonicalURL("https://Example.com/Page/?utm_source=x&id=5#section")
	b := canonicalURL("https://example.com/Page?id=5")
	if a != b {
		t.Fatalf("expected equal canonical URLs, got %q vs %q", a, b)
	}
}

func TestMergeDeduplicatesByCanonicalURL(t *testing.T) {
	descriptors := map[string]types.EngineDescriptor{
		"google": {Weight: 1.0},
		"bing":   {Weight: 0.8},
	}
	results := []types.EngineResult{
		{
			Hits: []types.Hit{
				{URL: "https://example.com/a", Title: "From Google", Engine: "google"},
			},
			Diagnostics: types.EngineDiagnostics{Engine: "google"},
		},
		{
			Hits: []types.Hit{
				{URL: "https://example.com/a?utm_source=newsletter", Title: "From Bing", Engine: "bing"},
			},
			Diagnostics: types.EngineDiagnostics{Engine: "bing"},
		},
	}

	hits, engines, failed := merge(results, descriptors)
	if failed != 0 {
		t.Fatalf("expected 0 failed engines, got %d", failed)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 deduplicated hit, got %d", len(hits))
	}
	if hits[0].Title != "From Google" {
		t.Fatalf("expected the higher-weighted contributor's title to win, got %q", hits[0].Title)
	}
	if len(engines) != 2 || engines[0] != "bing" || engines[1] != "google" {
		t.Fatalf("expected both engines recorded sorted, got %v", engines)
	}
}

func TestMergeCountsFailedEnginesAndSkipsTheirHits(t *testing.T) {
	descriptors := map[string]types.EngineDescriptor{"google": {Weight: 1.0}}
	results := []types.EngineResult{
		{Diagnostics: types.EngineDiagnostics{Engine: "bing", Error: "timeout"}},
		{
			Hits:        []types.Hit{{URL: "https://example.com/a", Engine: "google"}},
			Diagnostics: types.EngineDiagnostics{Engine: "google"},
		},
	}

	hits, _, failed := merge(results, descriptors)
	if failed != 1 {
		t.Fatalf("expected 1 failed engine, got %d", failed)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit from the surviving engine, got %d", len(hits))
	}
}

func TestMergeOrdersByPositionScore(t *testing.T) {
	descriptors := map[string]types.EngineDescriptor{"a": {Weight: 1.0}}
	results := []types.EngineResult{
		{
			Hits: []types.Hit{
				{URL: "https://example.com/high", Engine: "a"}, // rank 0
				{URL: "https://example.com/low", Engine: "a"},  // rank 1
			},
			Diagnostics: types.EngineDiagnostics{Engine: "a"},
		},
	}

	hits, _, _ := merge(results, descriptors)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].URL != "https://example.com/high" {
		t.Fatalf("expected the rank-0 hit first, got %q", hits[0].URL)
	}
}

func TestFilterVideoDurationBuckets(t *testing.T) {
	hits := []types.Hit{
		{URL: "short", Media: types.OptionalMedia{DurationSecs: 60}},
		{URL: "medium", Media: types.OptionalMedia{DurationSecs: 600}},
		{URL: "long", Media: types.OptionalMedia{DurationSecs: 3600}},
	}
	q, err := types.NewQuery(types.QueryParams{Text: "x", Filters: map[string]string{"duration": "short"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := filterVideoDuration(hits, q)
	if len(out) != 1 || out[0].URL != "short" {
		t.Fatalf("expected only the short video to survive, got %v", out)
	}
}

func TestFilterImageSizeBounds(t *testing.T) {
	hits := []types.Hit{
		{URL: "tiny", Media: types.OptionalMedia{Width: 10, Height: 10}},
		{URL: "big", Media: types.OptionalMedia{Width: 2000, Height: 2000}},
		{URL: "unknown"}, // no dimensions, always kept
	}
	q, err := types.NewQuery(types.QueryParams{Text: "x", Filters: map[string]string{"min_width": "100"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := filterImageSize(hits, q)
	if len(out) != 2 {
		t.Fatalf("expected 2 surviving hits, got %d: %v", len(out), out)
	}
}

func TestPaginateReturnsRequestedWindow(t *testing.T) {
	hits := make([]types.Hit, 25)
	for i := range hits {
		hits[i] = types.Hit{URL: string(rune('a' + i))}
	}

	page, info, total := paginate(hits, 2, 10)
	if len(page) != 10 {
		t.Fatalf("expected 10 hits on page 2, got %d", len(page))
	}
	if !info.HasMore {
		t.Fatalf("expected HasMore true with 25 hits and 20 consumed by page 2")
	}
	if total <= 0 {
		t.Fatalf("expected a positive total estimate, got %d", total)
	}
}

func TestPaginatePastEndReturnsEmpty(t *testing.T) {
	hits := make([]types.Hit, 5)
	page, info, _ := paginate(hits, 3, 10)
	if len(page) != 0 {
		t.Fatalf("expected no hits past the end, got %d", len(page))
	}
	if info.HasMore {
		t.Fatalf("expected HasMore false past the end")
	}
}
