package catalog

import (
	"sort"
	"strings"
)

// MatchCategories finds the head-level categories whose official entries
// match the given normalized tokens.
//
// Matching rules:
//   - With two or more tokens, an entry matches only when its name contains
//     every token as a case-insensitive substring. Longer clinical phrases
//     therefore resolve to fewer, more precise categories.
//   - With exactly one token, any name containing it matches (broad mode
//     for short/generic queries).
//   - Only official entries are eligible; entries whose derived head code
//     is not a well-formed `Letter + 2 digits` head are skipped.
//
// The result is grouped by head code, carries the lexicographically
// smallest matched name as the representative headName, counts the matched
// (not total) entries per head, and is sorted ascending by head code.
// Zero tokens yield an empty slice, never an error.
func (c *Catalog) MatchCategories(tokens []string) []Category {
	if len(tokens) == 0 {
		return []Category{}
	}

	type group struct {
		name  string
		count int
	}
	groups := make(map[string]*group)

	for _, rec := range c.recs {
		if rec.entry.Status != StatusOfficial || rec.head == "" {
			continue
		}
		if !matchName(rec.nameLower, tokens) {
			continue
		}
		g, ok := groups[rec.head]
		if !ok {
			groups[rec.head] = &group{name: rec.entry.Name, count: 1}
			continue
		}
		g.count++
		if rec.entry.Name < g.name {
			g.name = rec.entry.Name
		}
	}
	if len(groups) == 0 {
		return []Category{}
	}

	heads := make([]string, 0, len(groups))
	for h := range groups {
		heads = append(heads, h)
	}
	sort.Strings(heads)

	if c.cfg.maxCategories > 0 && len(heads) > c.cfg.maxCategories {
		heads = heads[:c.cfg.maxCategories]
	}

	out := make([]Category, len(heads))
	for i, h := range heads {
		g := groups[h]
		out[i] = Category{HeadCode: h, HeadName: g.name, Count: g.count}
	}
	return out
}

// ResolveDetails returns the ordered official sub-codes beneath headCode:
// every official entry whose code is exactly `headCode + '.' + digit`,
// sorted ascending by code. An unknown or detail-free head yields an empty
// list; callers should then treat the head code itself as the selectable
// leaf.
func (c *Catalog) ResolveDetails(headCode string) []Detail {
	idxs := c.details[normalizeCode(headCode)]
	if len(idxs) == 0 {
		return []Detail{}
	}
	out := make([]Detail, len(idxs))
	for i, idx := range idxs {
		e := c.recs[idx].entry
		out[i] = Detail{Code: e.Code, Name: e.Name}
	}
	return out
}

// BuildHierarchy composes normalization, category matching, and detail
// resolution into the full two-level tree for a free-text term. Category
// order follows MatchCategories; each category carries its resolved details.
//
// The result is deterministic: for a fixed catalog, two calls with the same
// term produce byte-identical output. Empty or whitespace-only terms yield
// an empty slice.
func (c *Catalog) BuildHierarchy(term string) []Category {
	cats := c.MatchCategories(tokenize(term, c.cfg.minTokenLen))
	for i := range cats {
		cats[i].Details = c.ResolveDetails(cats[i].HeadCode)
	}
	return cats
}

// matchName reports whether a lowercased entry name satisfies the token
// rule: every token as substring when multiple tokens are given, the single
// token as substring otherwise.
func matchName(nameLower string, tokens []string) bool {
	if len(tokens) == 1 {
		return strings.Contains(nameLower, tokens[0])
	}
	for _, t := range tokens {
		if !strings.Contains(nameLower, t) {
			return false
		}
	}
	return true
}
