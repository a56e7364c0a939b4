// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the daily AI-usage quota counter:
// one row per (account, day), incremented inside the caller's transaction
// so the ceiling cannot be raced past by concurrent submissions.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/klaimcare/coder-backend/internal/domain"
)

// ErrQuotaExceeded indicates the account has spent its daily AI allowance.
var ErrQuotaExceeded = errors.New("daily usage quota exceeded")

// UsageDay formats t (UTC) as the canonical "YYYY-MM-DD" counter key.
func UsageDay(t time.Time) string { return t.UTC().Format("2006-01-02") }

// ChargeUsage increments the usage counter for (accountID, day) by one,
// enforcing ceiling as the maximum number of charges per day. It returns
// ErrQuotaExceeded when the counter has already reached the ceiling;
// a ceiling <= 0 disables the check.
//
// The read-then-write pair must run inside a transaction; callers pass a
// transaction-bound handle. SQLite's writer lock makes the pair atomic.
func ChargeUsage(ctx context.Context, tx *gorm.DB, accountID, day string, ceiling int) (*domain.UsageCounter, error) {
	var uc domain.UsageCounter
	err := tx.WithContext(ctx).
		Where("account_id = ? AND day = ?", accountID, day).
		First(&uc).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		uc = domain.UsageCounter{
			ID:        uuid.NewString(),
			AccountID: accountID,
			Day:       day,
			Count:     1,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.WithContext(ctx).Create(&uc).Error; err != nil {
			return nil, err
		}
		return &uc, nil
	case err != nil:
		return nil, err
	}

	if ceiling > 0 && uc.Count >= ceiling {
		return nil, ErrQuotaExceeded
	}
	uc.Count++
	if err := tx.WithContext(ctx).
		Model(&domain.UsageCounter{}).
		Where("id = ?", uc.ID).
		Update("count", uc.Count).Error; err != nil {
		return nil, err
	}
	return &uc, nil
}

// RefundUsage decrements the usage counter for (accountID, day) by one,
// never below zero. Used to hand a charge back when the AI call fails after
// the quota was spent. Best-effort: a missing row is not an error.
func RefundUsage(ctx context.Context, db *gorm.DB, accountID, day string) error {
	return db.WithContext(ctx).
		Model(&domain.UsageCounter{}).
		Where("account_id = ? AND day = ? AND count > 0", accountID, day).
		Update("count", gorm.Expr("count - 1")).Error
}

// GetUsage returns the usage counter for (accountID, day), or a zero-count
// counter when no row exists yet.
func GetUsage(ctx context.Context, db *gorm.DB, accountID, day string) (*domain.UsageCounter, error) {
	var uc domain.UsageCounter
	err := db.WithContext(ctx).
		Where("account_id = ? AND day = ?", accountID, day).
		First(&uc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.UsageCounter{AccountID: accountID, Day: day}, nil
	}
	if err != nil {
		return nil, err
	}
	return &uc, nil
}
