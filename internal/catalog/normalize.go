package catalog

import "strings"

// Tokenize splits a raw search phrase into its significant tokens: the
// phrase is split on runs of whitespace, tokens are lowercased, and tokens
// shorter than three characters are dropped as noise (articles,
// prepositions, stray abbreviations). Duplicates are retained and order is
// preserved.
//
// An empty or whitespace-only phrase yields an empty token list; callers
// must treat that as "no search" rather than an error.
func Tokenize(term string) []string {
	return tokenize(term, defaultConfig().minTokenLen)
}

func tokenize(term string, minLen int) []string {
	fields := strings.Fields(term)
	if len(fields) == 0 {
		return nil
	}
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		t := strings.ToLower(f)
		if len([]rune(t)) < minLen {
			continue
		}
		out = append(out, t)
	}
	// Uniform with the zero-fields branch: all-noise input is "no search".
	if len(out) == 0 {
		return nil
	}
	return out
}
