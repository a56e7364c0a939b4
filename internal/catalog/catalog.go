package catalog

import (
	"sort"
	"strings"
)

// Status is the validation state of a catalog entry. Only official entries
// participate in category matching and detail resolution; ranked search is
// unrestricted.
type Status string

const (
	// StatusOfficial marks a validated, authoritative reference row.
	StatusOfficial Status = "official"
	// StatusDraft marks a provisional row awaiting validation.
	StatusDraft Status = "draft"
	// StatusDeprecated marks a row retired from the current release.
	StatusDeprecated Status = "deprecated"
)

// ParseStatus maps a raw string onto a Status. The second return value is
// false for unknown values.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusOfficial:
		return StatusOfficial, true
	case StatusDraft:
		return StatusDraft, true
	case StatusDeprecated:
		return StatusDeprecated, true
	}
	return "", false
}

// Entry is one immutable row of a classification system.
type Entry struct {
	// Code is the structured identity, e.g. "J18" or "J18.9".
	Code string `json:"code"`
	// Name is the human-readable description.
	Name string `json:"name"`
	// Source is the provenance tag (which official release the row came from).
	Source string `json:"source,omitempty"`
	// Status is the validation state; only "official" rows are matched into
	// the hierarchy.
	Status Status `json:"validationStatus"`
}

// Category is one matched head-level group in a hierarchy result.
type Category struct {
	// HeadCode is the 3-character category code, e.g. "J18".
	HeadCode string `json:"headCode"`
	// HeadName is the lexicographically smallest matched name under this
	// head. It is a deterministic, cheap representative choice, not a
	// clinically "best" pick.
	HeadName string `json:"headName"`
	// Count is the number of matched official entries under this head for
	// the current search (not the catalog-wide total).
	Count int `json:"count"`
	// Details holds the ordered sub-codes; empty when the head code itself
	// is the only selectable unit.
	Details []Detail `json:"details,omitempty"`
}

// Detail is one sub-code beneath a category.
type Detail struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ----------------------------------------------------------------------------
// Options

// Option customizes catalog construction.
type Option func(*config)

type config struct {
	minTokenLen   int
	maxCategories int
}

func defaultConfig() config {
	return config{
		minTokenLen:   3,
		maxCategories: 0,
	}
}

// WithMinTokenLen overrides the minimum significant token length used during
// term normalization. The default of 3 drops one- and two-character noise
// words (articles, prepositions). Values < 1 are ignored.
func WithMinTokenLen(n int) Option {
	return func(c *config) {
		if n >= 1 {
			c.minTokenLen = n
		}
	}
}

// WithMaxCategories caps the number of categories a single match may return.
// Zero (the default) means unlimited. Values < 0 are ignored.
func WithMaxCategories(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxCategories = n
		}
	}
}

// ----------------------------------------------------------------------------
// Implementation

// record is an Entry enriched with everything the query paths need, computed
// once at build time so no per-query parsing or case folding happens.
type record struct {
	entry     Entry
	nameLower string
	codeLower string
	// head is the derived category code, or "" when the code cannot anchor
	// a category (malformed or non-standard shape).
	head string
	// minor is the sub-code digit, -1 when absent.
	minor int8
}

// Catalog is an immutable snapshot of one classification system. It is safe
// for unlimited concurrent readers; refresh is done by building a new
// Catalog and swapping the reference atomically at the call site.
type Catalog struct {
	cfg  config
	recs []record
	// details maps a head code to the indexes of official dotted sub-code
	// rows under it, sorted ascending by code.
	details map[string][]int
	// malformed counts rows whose code failed shape validation at build
	// time. They remain searchable but are excluded from grouping.
	malformed int
}

// New builds a Catalog from classification rows. Codes are parsed and
// normalized once here; rows with malformed codes are retained for ranked
// search but never grouped into categories.
func New(entries []Entry, opts ...Option) *Catalog {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	c := &Catalog{
		cfg:     cfg,
		recs:    make([]record, 0, len(entries)),
		details: make(map[string][]int),
	}
	for _, e := range entries {
		rec := record{
			entry:     e,
			nameLower: strings.ToLower(e.Name),
			codeLower: strings.ToLower(e.Code),
			minor:     -1,
		}
		if p, ok := ParseCode(e.Code); ok {
			rec.head = p.Head()
			rec.minor = p.Minor
		} else {
			c.malformed++
		}
		c.recs = append(c.recs, rec)
	}

	for i, rec := range c.recs {
		if rec.entry.Status != StatusOfficial || rec.head == "" || rec.minor < 0 {
			continue
		}
		c.details[rec.head] = append(c.details[rec.head], i)
	}
	for head, idxs := range c.details {
		sort.Slice(idxs, func(a, b int) bool {
			return c.recs[idxs[a]].entry.Code < c.recs[idxs[b]].entry.Code
		})
		c.details[head] = idxs
	}
	return c
}

// Len returns the total number of rows held by the catalog.
func (c *Catalog) Len() int { return len(c.recs) }

// Malformed returns the number of rows whose code failed shape validation at
// build time. Useful as a load-time data-quality signal.
func (c *Catalog) Malformed() int { return c.malformed }

// Entries returns a copy of all rows, in load order. Intended for tests and
// administrative inspection, not for query paths.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.recs))
	for i, r := range c.recs {
		out[i] = r.entry
	}
	return out
}
