package catalog

import "testing"

func rankEntries() []Entry {
	return []Entry{
		{Code: "J18", Name: "Pneumonia, unspecified", Status: StatusOfficial},
		{Code: "J18.9", Name: "Pneumonia, unspecified organism", Status: StatusOfficial},
		{Code: "A09", Name: "Diarrhoea and gastroenteritis", Status: StatusOfficial},
		{Code: "B01.2", Name: "Varicella pneumonia", Status: StatusDraft},
		{Code: "K35", Name: "Acute appendicitis", Status: StatusDeprecated},
	}
}

func TestSearch_CodePrefixOutranksNameMatch(t *testing.T) {
	c := New(rankEntries())
	got := c.Search("J18", 10)
	if len(got) < 2 {
		t.Fatalf("expected at least 2 results, got %d", len(got))
	}
	if got[0].Code != "J18" || got[1].Code != "J18.9" {
		t.Fatalf("code-prefix matches must rank first, got %v", got)
	}
}

func TestSearch_NamePrefixBeforeSubstring(t *testing.T) {
	c := New(rankEntries())
	got := c.Search("pneumonia", 10)
	if len(got) != 3 {
		t.Fatalf("expected 3 matches, got %d: %v", len(got), got)
	}
	// name-prefix rows (J18, J18.9, tie-broken by code) before the
	// substring-only row (B01.2 "Varicella pneumonia")
	if got[0].Code != "J18" || got[1].Code != "J18.9" || got[2].Code != "B01.2" {
		t.Fatalf("ranking order wrong: %v", got)
	}
}

func TestSearch_UnrestrictedByStatus(t *testing.T) {
	c := New(rankEntries())
	if got := c.Search("appendicitis", 10); len(got) != 1 || got[0].Status != StatusDeprecated {
		t.Fatalf("ranked search must include non-official rows, got %v", got)
	}
}

func TestSearch_LimitAndDefaults(t *testing.T) {
	c := New(rankEntries())
	if got := c.Search("J18", 1); len(got) != 1 {
		t.Fatalf("limit=1 returned %d rows", len(got))
	}
	if got := c.Search("J18", 0); len(got) != 2 {
		t.Fatalf("default limit returned %d rows", len(got))
	}
}

func TestSearch_EmptyTerm(t *testing.T) {
	c := New(rankEntries())
	if got := c.Search("   ", 5); len(got) != 0 {
		t.Fatalf("empty term must yield empty result, got %v", got)
	}
}

func TestSearch_CaseInsensitive(t *testing.T) {
	c := New(rankEntries())
	if got := c.Search("j18.9", 5); len(got) != 1 || got[0].Code != "J18.9" {
		t.Fatalf("case-insensitive code search failed: %v", got)
	}
}
