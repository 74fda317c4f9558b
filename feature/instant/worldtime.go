package instant

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/privasearch/search/types"
)

var timeExpr = regexp.MustCompile(`(?i)^\s*(?:what(?:'s| is) the )?time (?:in|at) (.+?)\s*\??\s*$`)

// locationZones maps a lowercased, free-text location name to its
// canonical IANA zone. This is deliberately a small closed table rather
// than a geocoding call: §4.5 specifies a location->zone lookup, not a
// geocoder.
var locationZones = map[string]string{
	"london":        "Europe/London",
	"paris":         "Europe/Paris",
	"berlin":        "Europe/Berlin",
	"madrid":        "Europe/Madrid",
	"rome":          "Europe/Rome",
	"moscow":        "Europe/Moscow",
	"new york":      "America/New_York",
	"los angeles":   "America/Los_Angeles",
	"chicago":       "America/Chicago",
	"toronto":       "America/Toronto",
	"sao paulo":     "America/Sao_Paulo",
	"mexico city":   "America/Mexico_City",
	"tokyo":         "Asia/Tokyo",
	"beijing":       "Asia/Shanghai",
	"shanghai":      "Asia/Shanghai",
	"hong kong":     "Asia/Hong_Kong",
	"singapore":     "Asia/Singapore",
	"mumbai":        "Asia/Kolkata",
	"delhi":         "Asia/Kolkata",
	"dubai":         "Asia/Dubai",
	"sydney":        "Australia/Sydney",
	"melbourne":     "Australia/Melbourne",
	"auckland":      "Pacific/Auckland",
	"cairo":         "Africa/Cairo",
	"johannesburg":  "Africa/Johannesburg",
	"utc":           "UTC",
}

// TryWorldTime recognizes "time in <location>" / "what's the time at
// <location>" and returns the current time in that location's canonical
// zone. now is injected so callers (and tests) control the clock; ok=false
// for anything not shaped like a world-time query or naming an
// unrecognized location.
func TryWorldTime(query string, now time.Time) (types.InstantAnswer, bool) {
	m := timeExpr.FindStringSubmatch(query)
	if m == nil {
		return types.InstantAnswer{}, false
	}
	location := strings.ToLower(strings.TrimSpace(m[1]))
	zoneName, ok := locationZones[location]
	if !ok {
		return types.InstantAnswer{}, false
	}
	loc, err := time.LoadLocation(zoneName)
	if err != nil {
		return types.InstantAnswer{}, false
	}
	local := now.In(loc)
	return types.InstantAnswer{
		Type:  "time",
		Query: query,
		Value: local.Format(time.RFC3339),
		Text:  fmt.Sprintf("%s in %s (%s)", local.Format("15:04 MST"), titleCase(location), zoneName),
	}, true
}

// titleCase upper-cases the first letter of each space-separated word in
// a lowercase location name, e.g. "new york" -> "New York".
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
