package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/klaimcare/coder-backend/internal/domain"
)

func TestUsageDay(t *testing.T) {
	// 23:30 in UTC+7 is already the next day locally but the counter key
	// is always the UTC date.
	loc := time.FixedZone("WIB", 7*3600)
	at := time.Date(2025, 3, 10, 23, 30, 0, 0, loc)
	if got := UsageDay(at); got != "2025-03-10" {
		t.Fatalf("day = %q", got)
	}
}

func TestChargeUsage_Ceiling(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	acct, _ := CreateAccount(ctx, db, "Budi", "budi@rs.example", domain.RoleStaff, nil)
	day := UsageDay(time.Now())

	for i := 1; i <= 3; i++ {
		uc, err := ChargeUsage(ctx, db, acct.ID, day, 3)
		if err != nil {
			t.Fatalf("charge %d: %v", i, err)
		}
		if uc.Count != i {
			t.Fatalf("charge %d: count = %d", i, uc.Count)
		}
	}

	if _, err := ChargeUsage(ctx, db, acct.ID, day, 3); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("over ceiling err = %v", err)
	}

	// ceiling <= 0 disables the check
	if _, err := ChargeUsage(ctx, db, acct.ID, day, 0); err != nil {
		t.Fatalf("unlimited charge: %v", err)
	}
}

func TestChargeUsage_SeparateDays(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	acct, _ := CreateAccount(ctx, db, "Budi", "budi@rs.example", domain.RoleStaff, nil)

	if _, err := ChargeUsage(ctx, db, acct.ID, "2025-03-10", 1); err != nil {
		t.Fatalf("day 1: %v", err)
	}
	// the ceiling is per day, so a new day starts fresh
	uc, err := ChargeUsage(ctx, db, acct.ID, "2025-03-11", 1)
	if err != nil {
		t.Fatalf("day 2: %v", err)
	}
	if uc.Count != 1 {
		t.Fatalf("day 2 count = %d", uc.Count)
	}
}

func TestRefundUsage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	acct, _ := CreateAccount(ctx, db, "Budi", "budi@rs.example", domain.RoleStaff, nil)
	day := UsageDay(time.Now())

	if _, err := ChargeUsage(ctx, db, acct.ID, day, 0); err != nil {
		t.Fatalf("charge: %v", err)
	}
	if err := RefundUsage(ctx, db, acct.ID, day); err != nil {
		t.Fatalf("refund: %v", err)
	}
	uc, err := GetUsage(ctx, db, acct.ID, day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if uc.Count != 0 {
		t.Fatalf("count after refund = %d", uc.Count)
	}

	// floor at zero; a second refund is a no-op, not an error
	if err := RefundUsage(ctx, db, acct.ID, day); err != nil {
		t.Fatalf("refund at zero: %v", err)
	}
	uc, _ = GetUsage(ctx, db, acct.ID, day)
	if uc.Count != 0 {
		t.Fatalf("count went negative: %d", uc.Count)
	}

	// missing row is also a no-op
	if err := RefundUsage(ctx, db, acct.ID, "1999-01-01"); err != nil {
		t.Fatalf("refund missing row: %v", err)
	}
}

func TestGetUsage_MissingRowIsZero(t *testing.T) {
	db := newTestDB(t)

	uc, err := GetUsage(context.Background(), db, "nobody", "2025-01-01")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if uc.Count != 0 || uc.AccountID != "nobody" || uc.Day != "2025-01-01" {
		t.Fatalf("zero counter = %+v", uc)
	}
}
