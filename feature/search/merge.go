package search

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/privasearch/search/types"
)

// trackingParams are query-string keys stripped during canonicalization;
// they vary per click without changing the identity of the linked page.
var trackingParams = map[string]bool{
	"utm_source": true, "utm_medium": true, "utm_campaign": true,
	"utm_term": true, "utm_content": true, "gclid": true, "fbclid": true,
	"ref": true, "ref_src": true, "igshid": true,
}

// canonicalURL normalizes a Hit.URL for deduplication: lowercased host,
// path with its trailing slash stripped, fragment dropped, and known
// tracking parameters removed from the query string.
func canonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(raw)
	}
	u.Fragment = ""
	host := strings.ToLower(u.Host)
	path := strings.TrimSuffix(u.Path, "/")
	q := u.Query()
	for k := range q {
		if trackingParams[strings.ToLower(k)] {
			q.Del(k)
		}
	}
	out := host + path
	if enc := q.Encode(); enc != "" {
		out += "?" + enc
	}
	return out
}

// positionScore converts an engine-local rank (0-indexed) into the
// diminishing-returns weight used by the scoring formula in §4.7.
func positionScore(rank int) float64 {
	return 1.0 / float64(rank+1)
}

// contribution is one engine's hit toward a canonical-URL group, kept
// around until the group is finalized so field-merging can prefer the
// highest-weighted contributor.
type contribution struct {
	hit    types.Hit
	weight float64
	rank   int
}

type group struct {
	canonical     string
	contributions []contribution
	score         float64
	engines       map[string]bool
}

// merge folds a set of per-engine results into a deduplicated, scored,
// ordered Hit list plus the set of engines that produced at least one
// surviving hit and the count of engines that failed outright.
func merge(results []types.EngineResult, descriptors map[string]types.EngineDescriptor) ([]types.Hit, []string, int) {
	groups := make(map[string]*group)
	var order []string
	enginesFailed := 0

	for _, er := range results {
		if er.Diagnostics.Error != "" {
			enginesFailed++
			continue
		}
		weight := descriptors[er.Diagnostics.Engine].Weight
		if weight <= 0 {
			weight = 1.0
		}
		for rank, hit := range er.Hits {
			cu := canonicalURL(hit.URL)
			g, ok := groups[cu]
			if !ok {
				g = &group{canonical: cu, engines: map[string]bool{}}
				groups[cu] = g
				order = append(order, cu)
			}
			g.score += weight * positionScore(rank)
			g.engines[hit.Engine] = true
			g.contributions = append(g.contributions, contribution{hit: hit, weight: weight, rank: rank})
		}
	}

	merged := make([]types.Hit, 0, len(order))
	engineSet := make(map[string]bool)
	for _, cu := range order {
		g := groups[cu]
		sort.SliceStable(g.contributions, func(i, j int) bool {
			if g.contributions[i].weight != g.contributions[j].weight {
				return g.contributions[i].weight > g.contributions[j].weight
			}
			return g.contributions[i].rank < g.contributions[j].rank
		})
		hit := mergeContributions(g.contributions)
		hit.Score = g.score
		merged = append(merged, hit)
		for e := range g.engines {
			engineSet[e] = true
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		wi, wj := weightOf(merged[i], descriptors), weightOf(merged[j], descriptors)
		if wi != wj {
			return wi > wj
		}
		return canonicalURL(merged[i].URL) < canonicalURL(merged[j].URL)
	})

	engines := make([]string, 0, len(engineSet))
	for e := range engineSet {
		engines = append(engines, e)
	}
	sort.Strings(engines)

	return merged, engines, enginesFailed
}

func weightOf(h types.Hit, descriptors map[string]types.EngineDescriptor) float64 {
	w := descriptors[h.Engine].Weight
	if w <= 0 {
		return 1.0
	}
	return w
}

// mergeContributions produces one Hit from contributions already sorted
// highest-weight-first: title/snippet/URL come from the top contributor,
// every OptionalMedia field takes the first non-empty value across the
// ordered list.
func mergeContributions(cs []contribution) types.Hit {
	top := cs[0].hit
	out := types.Hit{
		URL:      top.URL,
		Title:    top.Title,
		Snippet:  top.Snippet,
		Engine:   top.Engine,
		Category: top.Category,
	}
	for _, c := range cs {
		m := c.hit.Media
		if out.Media.ThumbnailURL == "" {
			out.Media.ThumbnailURL = m.ThumbnailURL
		}
		if out.Media.Duration == "" {
			out.Media.Duration = m.Duration
			out.Media.DurationSecs = m.DurationSecs
		}
		if out.Media.EmbedURL == "" {
			out.Media.EmbedURL = m.EmbedURL
		}
		if out.Media.Views == 0 {
			out.Media.Views = m.Views
		}
		if out.Media.Channel == "" {
			out.Media.Channel = m.Channel
		}
		if out.Media.PublishedAt == "" {
			out.Media.PublishedAt = m.PublishedAt
		}
		if out.Media.Width == 0 {
			out.Media.Width = m.Width
		}
		if out.Media.Height == 0 {
			out.Media.Height = m.Height
		}
	}
	return out
}

// applyCategoryFilters applies the post-merge, category-specific filters
// named in §4.7 (video duration bucket, image dimensions). Hits from
// categories with no defined filter pass through unchanged.
func applyCategoryFilters(cat types.Category, hits []types.Hit, q types.Query) []types.Hit {
	switch cat {
	case types.CategoryVideos:
		return filterVideoDuration(hits, q)
	case types.CategoryImages:
		return filterImageSize(hits, q)
	default:
		return hits
	}
}

func filterVideoDuration(hits []types.Hit, q types.Query) []types.Hit {
	bucket, ok := q.Filter("duration")
	if !ok || bucket == "" {
		return hits
	}
	out := hits[:0:0]
	for _, h := range hits {
		secs := h.Media.DurationSecs
		switch bucket {
		case "short":
			if secs > 0 && secs >= 240 {
				continue
			}
		case "medium":
			if secs > 0 && (secs < 240 || secs > 1200) {
				continue
			}
		case "long":
			if secs > 0 && secs <= 1200 {
				continue
			}
		}
		out = append(out, h)
	}
	return out
}

func filterImageSize(hits []types.Hit, q types.Query) []types.Hit {
	minW := filterInt(q, "min_width")
	minH := filterInt(q, "min_height")
	maxW := filterInt(q, "max_width")
	maxH := filterInt(q, "max_height")
	if minW == 0 && minH == 0 && maxW == 0 && maxH == 0 {
		return hits
	}
	out := hits[:0:0]
	for _, h := range hits {
		w, ht := h.Media.Width, h.Media.Height
		if w == 0 && ht == 0 {
			out = append(out, h)
			continue
		}
		if minW > 0 && w < minW {
			continue
		}
		if minH > 0 && ht < minH {
			continue
		}
		if maxW > 0 && w > maxW {
			continue
		}
		if maxH > 0 && ht > maxH {
			continue
		}
		out = append(out, h)
	}
	return out
}

func filterInt(q types.Query, key string) int {
	v, ok := q.Filter(key)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// paginate slices hits into the requested page and computes pageInfo plus
// the coarse totalResults estimate from §4.7.
func paginate(hits []types.Hit, page, perPage int) ([]types.Hit, types.PageInfo, int) {
	start := perPage * (page - 1)
	if start < 0 {
		start = 0
	}
	if start >= len(hits) {
		return nil, types.PageInfo{Page: page, PerPage: perPage, HasMore: false}, perPage * (page - 1)
	}
	end := start + perPage
	if end > len(hits) {
		end = len(hits)
	}
	slice := hits[start:end]
	hasMore := len(hits) >= perPage*page+1
	total := perPage * (page - 1) + len(slice)
	if hasMore {
		total = perPage * 10
	}
	return slice, types.PageInfo{Page: page, PerPage: perPage, HasMore: hasMore}, total
}
