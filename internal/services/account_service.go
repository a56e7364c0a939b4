// Package services – AccountService
//
// This file implements the AccountService, which manages the lifecycle of
// hospital staff accounts. It validates and normalizes account fields,
// applies role defaults, and coordinates repository operations for
// creating, listing (with pagination), fetching, and deactivating accounts.
//
// Service-level errors (e.g., ErrAccountNotFound, ErrDuplicateAccount) are
// returned for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/klaimcare/coder-backend/internal/domain"
	"github.com/klaimcare/coder-backend/internal/repo"
)

// AccountService provides account-level operations such as creating,
// listing, and deactivating staff accounts.
type AccountService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// NameMaxLen caps stored names by rune length.
	NameMaxLen int
}

// NewAccountService constructs an AccountService with sane defaults.
func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{
		DB:         db,
		NameMaxLen: 255,
	}
}

// Create inserts a new account. Names are whitespace-normalized, emails are
// lowercased, and the role defaults to "staff" when blank. A duplicate
// email yields ErrDuplicateAccount.
func (s *AccountService) Create(ctx context.Context, name, email, role string, expiresAt *time.Time) (*domain.Account, error) {
	name = normalizeName(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, ErrInvalidAccount
	}
	switch role {
	case "":
		role = domain.RoleStaff
	case domain.RoleStaff, domain.RoleAdmin:
	default:
		return nil, ErrInvalidAccount
	}

	a, err := repo.CreateAccount(ctx, s.DB, s.clip(name), email, role, expiresAt)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}
	return a, nil
}

// Get fetches an account by ID, mapping a missing row to ErrAccountNotFound.
func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	a, err := repo.GetAccount(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

// ListPage returns a page of accounts. It applies defaults for invalid
// page/pageSize and returns the total count.
func (s *AccountService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Account, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountAccounts(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Account{}, 0, nil
	}

	items, err := repo.ListAccountsPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Deactivate clears the active flag, blocking further AI analyses for the
// account while retaining its history.
func (s *AccountService) Deactivate(ctx context.Context, id string) error {
	err := repo.DeactivateAccount(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrAccountNotFound
	}
	return err
}

// clip truncates an account name to the configured maximum rune length.
func (s *AccountService) clip(name string) string {
	if s.NameMaxLen > 0 && utf8.RuneCountInString(name) > s.NameMaxLen {
		return string([]rune(name)[:s.NameMaxLen])
	}
	return name
}

// normalizeName trims whitespace and collapses internal runs to one space.
func normalizeName(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

var whitespaceRE = regexp.MustCompile(`\s+`)
