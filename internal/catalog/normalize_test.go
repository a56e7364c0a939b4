package catalog

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   \t  ", nil},
		{"Pneumonia", []string{"pneumonia"}},
		{"Pneumonia  cacar   air", []string{"pneumonia", "cacar", "air"}},
		// one- and two-character tokens are noise
		{"TB di paru", []string{"paru"}},
		// duplicates retained, order preserved
		{"akut akut sinusitis", []string{"akut", "akut", "sinusitis"}},
		// all tokens dropped as noise behaves like empty input
		{"a b c", nil},
		{"di ke tb", nil},
	}
	for _, tc := range tests {
		got := Tokenize(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("Tokenize(%q)=%#v, want %#v", tc.in, got, tc.want)
		}
	}
}

func TestTokenize_MinLenOption(t *testing.T) {
	c := New(nil, WithMinTokenLen(5))
	cats := c.MatchCategories(tokenize("akut paru pneumonia", c.cfg.minTokenLen))
	if len(cats) != 0 {
		t.Fatalf("empty catalog should match nothing, got %d", len(cats))
	}
	if got := tokenize("akut paru pneumonia", 5); !reflect.DeepEqual(got, []string{"pneumonia"}) {
		t.Fatalf("minLen=5 tokens = %#v", got)
	}
}
