package repo

import (
	"context"
	"testing"

	"github.com/klaimcare/coder-backend/internal/catalog"
)

func TestSeedAndListCodeEntries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	entries := []catalog.Entry{
		{Code: "J18.9", Name: "Pneumonia tidak spesifik", Source: "icd10-2023", Status: catalog.StatusOfficial},
		{Code: "J12", Name: "Pneumonia virus", Source: "icd10-2023", Status: catalog.StatusOfficial},
		{Code: "J12.0", Name: "Pneumonia karena adenovirus", Source: "icd10-2023", Status: catalog.StatusDraft},
	}
	if err := SeedCodeEntries(ctx, db, "icd10", entries); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// rows of another system stay invisible to icd10 reads
	if err := SeedCodeEntries(ctx, db, "icd9", []catalog.Entry{
		{Code: "470", Name: "Apendektomi", Status: catalog.StatusOfficial},
	}); err != nil {
		t.Fatalf("seed icd9: %v", err)
	}

	total, err := CountCodeEntries(ctx, db, "icd10")
	if err != nil || total != 3 {
		t.Fatalf("count = %d, err = %v", total, err)
	}

	got, err := ListCodeEntries(ctx, db, "icd10")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	// ordered by code ascending
	if got[0].Code != "J12" || got[1].Code != "J12.0" || got[2].Code != "J18.9" {
		t.Fatalf("order = %s %s %s", got[0].Code, got[1].Code, got[2].Code)
	}
	if got[1].Status != catalog.StatusDraft || got[0].Source != "icd10-2023" {
		t.Fatalf("row = %+v", got[1])
	}
}

func TestSeedCodeEntries_EmptyIsNoop(t *testing.T) {
	db := newTestDB(t)
	if err := SeedCodeEntries(context.Background(), db, "icd10", nil); err != nil {
		t.Fatalf("seed nil: %v", err)
	}
	total, _ := CountCodeEntries(context.Background(), db, "icd10")
	if total != 0 {
		t.Fatalf("count = %d", total)
	}
}
