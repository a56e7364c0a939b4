// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Analysis
// model: the persisted record of each AI-assisted coding pass and the code
// the operator finally attached to the claim.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/klaimcare/coder-backend/internal/domain"
)

// CreateAnalysis inserts a new Analysis row owned by accountID. The row ID
// is a randomly generated UUID and CreatedAt is set to UTC. The handle may
// be transaction-bound; quota charging and analysis insertion run in the
// same transaction at the service layer.
func CreateAnalysis(ctx context.Context, db *gorm.DB, a *domain.Analysis) (*domain.Analysis, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// GetAnalysis fetches a single analysis by its ID and owner (accountID).
// If the record does not exist, it returns ErrNotFound.
func GetAnalysis(ctx context.Context, db *gorm.DB, id, accountID string) (*domain.Analysis, error) {
	var a domain.Analysis
	err := db.WithContext(ctx).
		Where("id = ? AND account_id = ?", id, accountID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CountAnalyses returns the total number of analyses owned by accountID.
func CountAnalyses(ctx context.Context, db *gorm.DB, accountID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Analysis{}).
		Where("account_id = ?", accountID).
		Count(&total).Error
	return total, err
}

// ListAnalysesPage returns a paginated slice of analyses for accountID,
// ordered by creation time descending (most recent first). The caller is
// responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListAnalysesPage(ctx context.Context, db *gorm.DB, accountID string, offset, limit int) ([]domain.Analysis, error) {
	var out []domain.Analysis
	err := db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateSelectedCode records the classification code the operator attached
// to the analysis, enforcing ownership. If no rows are affected (analysis
// missing or not owned by accountID), it returns ErrNotFound.
func UpdateSelectedCode(ctx context.Context, db *gorm.DB, id, accountID, code string) error {
	res := db.WithContext(ctx).
		Model(&domain.Analysis{}).
		Where("id = ? AND account_id = ?", id, accountID).
		Update("selected_code", code)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
