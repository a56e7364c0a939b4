// Package catalog implements the hierarchical medical-code search and
// classification engine over ICD-style code tables. It is intentionally
// small and dependency-free, but engineered with production-grade
// ergonomics:
//
//   - No logging and no I/O in the hot path (callers decide how/what to log)
//   - Codes are validated and parsed once, at catalog build time
//   - Immutable, read-only catalog after construction (safe for concurrent use)
//   - Deterministic grouping, ranking, and sorting (stable order for ties)
//   - Malformed reference rows degrade gracefully instead of failing a query
//
// The two query families are the two-level hierarchy (category → sub-code)
// used for clinical browsing, and a flat ranked search used for
// autocomplete/lookup-by-code.
package catalog

import "strings"

// ParsedCode is the structured form of a classification code. A code is one
// letter followed by two digits, optionally followed by a dot and a single
// sub-code digit (e.g. "J18" or "J18.9").
//
// Minor is -1 when the code has no sub-code digit.
type ParsedCode struct {
	Letter byte
	Major  uint8
	Minor  int8
}

// HasMinor reports whether the code carries a sub-code digit.
func (p ParsedCode) HasMinor() bool { return p.Minor >= 0 }

// Head returns the 3-character category portion of the code
// (e.g. "J18" for "J18.9").
func (p ParsedCode) Head() string {
	return string([]byte{p.Letter, '0' + p.Major/10, '0' + p.Major%10})
}

// String renders the canonical textual form of the code.
func (p ParsedCode) String() string {
	if !p.HasMinor() {
		return p.Head()
	}
	return p.Head() + "." + string('0'+byte(p.Minor))
}

// ParseCode validates and parses a raw code into its structured form.
// Lowercase letters are accepted and normalized to uppercase. The second
// return value is false when the code does not match the
// `Letter + 2 digits [+ '.' + digit]` shape.
func ParseCode(code string) (ParsedCode, bool) {
	if len(code) != 3 && len(code) != 5 {
		return ParsedCode{}, false
	}
	letter := code[0]
	if letter >= 'a' && letter <= 'z' {
		letter -= 'a' - 'A'
	}
	if letter < 'A' || letter > 'Z' {
		return ParsedCode{}, false
	}
	d1, d2 := code[1], code[2]
	if d1 < '0' || d1 > '9' || d2 < '0' || d2 > '9' {
		return ParsedCode{}, false
	}
	p := ParsedCode{Letter: letter, Major: (d1-'0')*10 + (d2 - '0'), Minor: -1}
	if len(code) == 3 {
		return p, true
	}
	if code[3] != '.' {
		return ParsedCode{}, false
	}
	m := code[4]
	if m < '0' || m > '9' {
		return ParsedCode{}, false
	}
	p.Minor = int8(m - '0')
	return p, true
}

// HeadOf derives the category-level head code for a raw code: the first three
// characters when the code has the full dotted shape, the code itself
// otherwise. The second return value is false when the derived head does not
// match the `Letter + 2 digits` shape and therefore cannot anchor a category.
func HeadOf(code string) (string, bool) {
	p, ok := ParseCode(code)
	if !ok {
		return code, false
	}
	return p.Head(), true
}

// IsHead reports whether s is a well-formed 3-character head code.
func IsHead(s string) bool {
	p, ok := ParseCode(s)
	return ok && !p.HasMinor()
}

// normalizeCode uppercases a raw code for case-insensitive head lookups
// without allocating when the input is already uppercase.
func normalizeCode(code string) string {
	for i := 0; i < len(code); i++ {
		if code[i] >= 'a' && code[i] <= 'z' {
			return strings.ToUpper(code)
		}
	}
	return code
}
