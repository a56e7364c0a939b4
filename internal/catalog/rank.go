package catalog

import (
	"sort"
	"strings"
)

// DefaultSearchLimit caps ranked-search results when the caller passes a
// non-positive limit.
const DefaultSearchLimit = 20

// Search performs the flat, relevance-ordered lookup used for autocomplete
// and lookup-by-exact-code. Unlike the hierarchy path it is not restricted
// to official entries and evaluates the whole term (not tokens) as a
// case-insensitive substring against both name and code.
//
// Ranking, ascending (lower is more relevant), with ties broken by code:
//  1. code starts with the term
//  2. name starts with the term
//  3. any other substring match
//
// The result is truncated to limit entries after ranking. An empty term
// yields an empty result.
func (c *Catalog) Search(term string, limit int) []Entry {
	q := strings.ToLower(strings.TrimSpace(term))
	if q == "" {
		return []Entry{}
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	type scored struct {
		idx  int
		rank int
	}
	buf := make([]scored, 0, min(limit*4, len(c.recs)))
	for i, rec := range c.recs {
		switch {
		case strings.HasPrefix(rec.codeLower, q):
			buf = append(buf, scored{idx: i, rank: 1})
		case strings.HasPrefix(rec.nameLower, q):
			buf = append(buf, scored{idx: i, rank: 2})
		case strings.Contains(rec.nameLower, q) || strings.Contains(rec.codeLower, q):
			buf = append(buf, scored{idx: i, rank: 3})
		}
	}
	if len(buf) == 0 {
		return []Entry{}
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].rank != buf[b].rank {
			return buf[a].rank < buf[b].rank
		}
		return c.recs[buf[a].idx].entry.Code < c.recs[buf[b].idx].entry.Code
	})

	if limit > len(buf) {
		limit = len(buf)
	}
	out := make([]Entry, limit)
	for i := 0; i < limit; i++ {
		out[i] = c.recs[buf[i].idx].entry
	}
	return out
}
