package widget

import "testing"

func TestHashQueryAlwaysReturns16Chars(t *testing.T) {
	// Exercise a range of queries so a hash whose top nibble happens to be
	// zero is caught rather than masked by a single lucky example.
	queries := []string{
		"a", "golang", "how to center a div", "", "   spaced   ",
		"weather", "currency converter", "xkcd", "7", "search engine",
	}
	for _, q := range queries {
		h := hashQuery(q)
		if len(h) != 16 {
			t.Fatalf("hashQuery(%q) = %q, want length 16, got %d", q, h, len(h))
		}
	}
}

func TestHashQueryIsCaseAndWhitespaceInsensitive(t *testing.T) {
	h1 := hashQuery("  Golang  ")
	h2 := hashQuery("golang")
	if h1 != h2 {
		t.Fatalf("expected hashQuery to normalize case/whitespace, got %q vs %q", h1, h2)
	}
}
