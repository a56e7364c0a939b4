// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the classification reference table:
// bulk seeding from a parsed CSV dump and the full-table read used to build
// an in-memory catalog snapshot per code system.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/klaimcare/coder-backend/internal/catalog"
	"github.com/klaimcare/coder-backend/internal/domain"
)

// seedBatchSize bounds the rows per INSERT during bulk seeding.
const seedBatchSize = 500

// CountCodeEntries returns the number of persisted reference rows for the
// given code system.
func CountCodeEntries(ctx context.Context, db *gorm.DB, system string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.CodeEntry{}).
		Where("system = ?", system).
		Count(&total).Error
	return total, err
}

// SeedCodeEntries bulk-inserts classification rows for a code system.
// Intended for first-boot seeding from a CSV dump; it is not an upsert —
// callers check CountCodeEntries first.
func SeedCodeEntries(ctx context.Context, db *gorm.DB, system string, entries []catalog.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]domain.CodeEntry, len(entries))
	for i, e := range entries {
		rows[i] = domain.CodeEntry{
			System: system,
			Code:   e.Code,
			Name:   e.Name,
			Source: e.Source,
			Status: string(e.Status),
		}
	}
	return db.WithContext(ctx).CreateInBatches(rows, seedBatchSize).Error
}

// ListCodeEntries reads every reference row for a code system, ordered by
// code ascending, converted to catalog entries ready for snapshot building.
// This is the one-time (per load/reload) bulk read; queries never touch the
// table afterwards.
func ListCodeEntries(ctx context.Context, db *gorm.DB, system string) ([]catalog.Entry, error) {
	var rows []domain.CodeEntry
	err := db.WithContext(ctx).
		Where("system = ?", system).
		Order("code asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Entry, len(rows))
	for i, r := range rows {
		status, ok := catalog.ParseStatus(r.Status)
		if !ok {
			// data-quality problem in the reference table: keep the row
			// visible to ranked search but out of the official hierarchy
			status = catalog.StatusDraft
		}
		out[i] = catalog.Entry{
			Code:   r.Code,
			Name:   r.Name,
			Source: r.Source,
			Status: status,
		}
	}
	return out, nil
}
