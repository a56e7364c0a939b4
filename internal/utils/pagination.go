// Package utils holds small helpers shared by the HTTP layer, mainly for
// parsing and bounding the pagination query parameters on list endpoints.
// Nothing here knows about code catalogs or analyses.
package utils

import "strconv"

// AtoiDefault parses s as a base-10 int and falls back to def when s is
// empty, not a number, or out of range. Query parameters arrive untrimmed;
// a value with stray whitespace counts as unparseable.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampRange bounds n to [lo, hi]. Callers pass lo <= hi; the page-size
// limits in the handlers always satisfy that.
func ClampRange(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
