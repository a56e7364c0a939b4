// Package domain defines the persistence models for accounts, analyses,
// usage counters, and the classification reference table. These types are
// mapped with GORM and form the core data layer of the claim-coding
// application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Account roles. Staff accounts use the coding assistant; admin accounts
// additionally manage accounts and reload catalogs.
const (
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

// Analysis kinds accepted by the AI interpretation workflow.
const (
	KindDiagnosis  = "diagnosis"
	KindProcedure  = "procedure"
	KindMedication = "medication"
)

// Account represents a hospital staff account. Accounts gate access to the
// AI analysis workflow and carry the per-day usage quota.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name: display name of the staff member.
//   - Email: login identity; unique across accounts.
//   - Role: "staff" or "admin" (enforced by DB constraint).
//   - Active: deactivated accounts are rejected before any AI spend.
//   - ExpiresAt: optional end of validity; nil means no expiry.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit/history).
type Account struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Name      string         `json:"name"       gorm:"type:varchar(255);not null"`
	Email     string         `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_account_email"`
	Role      string         `json:"role"       gorm:"type:varchar(16);not null;default:'staff';check:role IN ('staff','admin')"`
	Active    bool           `json:"active"     gorm:"not null;default:true"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Account.
func (Account) TableName() string { return "accounts" }

// Expired reports whether the account validity window has passed at the
// given instant. Accounts without ExpiresAt never expire.
func (a *Account) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && now.After(*a.ExpiresAt)
}

// Analysis represents one AI-assisted coding pass over a clinical entry:
// the raw text the operator typed, what the external core engine made of
// it, and, eventually, the classification code the operator attached to
// the claim.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - AccountID: owner of the analysis (indexed).
//   - Kind: "diagnosis", "procedure", or "medication".
//   - System: code system the hierarchy was built against (icd10/icd9).
//   - InputText: the operator's raw entry.
//   - NormalizedTerm: the AI-corrected term fed into the classifier.
//   - Interpretation: the core engine's free-text interpretation.
//   - Label: short display label derived from the normalized term.
//   - SelectedCode: the code ultimately attached; nil until selection.
//   - CreatedAt / UpdatedAt / DeletedAt: managed by GORM.
type Analysis struct {
	ID             string         `json:"id"              gorm:"type:char(36);primaryKey"`
	AccountID      string         `json:"account_id"      gorm:"type:char(36);not null;index:idx_account_analyses,priority:1"`
	Kind           string         `json:"kind"            gorm:"type:varchar(16);not null;check:kind IN ('diagnosis','procedure','medication')"`
	System         string         `json:"system"          gorm:"type:varchar(8);not null"`
	InputText      string         `json:"input_text"      gorm:"type:text;not null"`
	NormalizedTerm string         `json:"normalized_term" gorm:"type:text;not null"`
	Interpretation string         `json:"interpretation"  gorm:"type:text"`
	Label          string         `json:"label"           gorm:"type:varchar(255)"`
	SelectedCode   *string        `json:"selected_code,omitempty" gorm:"type:varchar(8)"`
	CreatedAt      time.Time      `json:"created_at"      gorm:"index:idx_account_analyses,priority:2"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-"               gorm:"index"`

	// Account is the owning staff account. Analyses are cascade-deleted
	// if their account is removed.
	Account Account `json:"-" gorm:"foreignKey:AccountID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Analysis.
func (Analysis) TableName() string { return "analyses" }

// UsageCounter tracks how many AI analyses an account has spent on a given
// calendar day. One row per (account, day), incremented transactionally so
// the daily ceiling cannot be raced past.
//
// Day is stored as "YYYY-MM-DD" in UTC.
type UsageCounter struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	AccountID string    `json:"account_id" gorm:"type:char(36);not null;uniqueIndex:ux_usage_account_day,priority:1"`
	Day       string    `json:"day"        gorm:"type:char(10);not null;uniqueIndex:ux_usage_account_day,priority:2"`
	Count     int       `json:"count"      gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for UsageCounter.
func (UsageCounter) TableName() string { return "usage_counters" }

// CodeEntry is one persisted row of a classification system (ICD-10
// diagnoses or ICD-9 procedures). The table is the bulk-load source for the
// in-memory catalog snapshots; the engine itself never reads it per query.
//
// Rows are immutable from the application's point of view: catalog rebuild
// is an out-of-band administrative operation.
type CodeEntry struct {
	ID        uint      `json:"-"                gorm:"primaryKey;autoIncrement"`
	System    string    `json:"system"           gorm:"type:varchar(8);not null;uniqueIndex:ux_code_system,priority:1"`
	Code      string    `json:"code"             gorm:"type:varchar(8);not null;uniqueIndex:ux_code_system,priority:2"`
	Name      string    `json:"name"             gorm:"type:text;not null"`
	Source    string    `json:"source"           gorm:"type:varchar(64)"`
	Status    string    `json:"validationStatus" gorm:"type:varchar(16);not null;default:'official';check:status IN ('official','draft','deprecated')"`
	CreatedAt time.Time `json:"-"`
}

// TableName returns the database table name for CodeEntry.
func (CodeEntry) TableName() string { return "code_entries" }
