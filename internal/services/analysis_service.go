// Package services – AnalysisService
//
// This file implements AnalysisService, the application-level component that
// owns the AI-assisted coding workflow. It validates inputs, enforces the
// per-account daily usage quota, calls the external core engine for
// interpretation, classifies the normalized term against the code catalog,
// and persists the analysis record. The final code selection and paginated
// history retrieval live here too.
//
// Idempotent submission: when the caller supplies an Idempotency-Key, a
// replayed request returns the originally persisted analysis without
// calling the AI again or re-charging the quota.
//
// Observability: public methods are OpenTelemetry-instrumented; spans
// include account identifiers and pagination parameters where applicable.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/klaimcare/coder-backend/internal/ai"
	"github.com/klaimcare/coder-backend/internal/catalog"
	"github.com/klaimcare/coder-backend/internal/domain"
	"github.com/klaimcare/coder-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// idemScopeAnalyses is the idempotency scope under which analysis
// submissions are recorded.
const idemScopeAnalyses = "analyses"

// AnalysisResult is the full answer for one analysis: the persisted record
// plus the classification hierarchy built over the normalized term.
type AnalysisResult struct {
	Analysis   *domain.Analysis   `json:"analysis"`
	Categories []catalog.Category `json:"categories"`
	// Replayed is true when the result was served from an idempotent
	// replay rather than a fresh AI call.
	Replayed bool `json:"replayed,omitempty"`
}

// AnalysisService coordinates quota, AI interpretation, classification, and
// persistence for clinical entries.
type AnalysisService struct {
	DB         *gorm.DB
	Normalizer ai.Normalizer
	Classifier *ClassificationService

	// DailyQuota caps AI analyses per account per UTC day; <= 0 disables.
	DailyQuota int
	// MaxInputRunes caps the clinical text length; <= 0 disables.
	MaxInputRunes int
	// IdempotencyTTL bounds how long a submission key can be replayed.
	IdempotencyTTL time.Duration

	// LabelMaxLen caps generated display labels by rune length.
	LabelMaxLen int
	// LabelLocale drives title casing of generated labels.
	LabelLocale language.Tag
}

// systemForKind maps an analysis kind onto the code system its hierarchy is
// built against. Medication entries have no ICD hierarchy; they carry the
// interpretation only.
func systemForKind(kind string) (System, bool) {
	switch kind {
	case domain.KindDiagnosis:
		return SystemICD10, true
	case domain.KindProcedure:
		return SystemICD9, true
	case domain.KindMedication:
		return "", false
	}
	return "", false
}

// Analyze runs one AI-assisted coding pass for accountID.
//
// Flow:
//  1. Validate kind and text; verify the account is active and unexpired.
//  2. Replay check: a known (account, key) pair returns the stored
//     analysis without charging the quota.
//  3. Charge the daily quota transactionally (ErrQuotaExceeded at the
//     ceiling).
//  4. Call the core engine; on failure the charge is refunded.
//  5. Build the hierarchy over the normalized term and persist the
//     analysis (and the idempotency record) in one transaction.
func (s *AnalysisService) Analyze(ctx context.Context, accountID, kind, text, idemKey string) (*AnalysisResult, error) {
	tr := otel.Tracer("services/AnalysisService")
	ctx, span := tr.Start(ctx, "Analyze",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
			attribute.String("analysis.kind", kind),
		),
	)
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if s.MaxInputRunes > 0 && utf8.RuneCountInString(text) > s.MaxInputRunes {
		return nil, ErrTextTooLong
	}
	switch kind {
	case domain.KindDiagnosis, domain.KindProcedure, domain.KindMedication:
	default:
		return nil, ErrInvalidKind
	}

	account, err := repo.GetAccount(ctx, s.DB, accountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if !account.Active {
		return nil, ErrAccountInactive
	}
	if account.Expired(time.Now().UTC()) {
		return nil, ErrAccountExpired
	}

	// Idempotent replay: serve the stored analysis, skip AI and quota.
	if idemKey != "" {
		if rec, err := repo.GetIdempotency(ctx, s.DB, accountID, idemScopeAnalyses, idemKey, time.Now().UTC()); err == nil && rec != nil {
			stored, gerr := repo.GetAnalysis(ctx, s.DB, rec.AnalysisID, accountID)
			if gerr == nil {
				span.SetAttributes(attribute.Bool("replayed", true))
				return s.result(ctx, stored, true), nil
			}
		}
	}

	day := repo.UsageDay(time.Now())
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, cerr := repo.ChargeUsage(ctx, tx, accountID, day, s.DailyQuota)
		return cerr
	})
	if err != nil {
		if errors.Is(err, repo.ErrQuotaExceeded) {
			return nil, ErrQuotaExceeded
		}
		return nil, err
	}

	interp, err := s.Normalizer.Normalize(ctx, kind, text)
	if err != nil {
		// hand the charge back; the operator got nothing for it
		_ = repo.RefundUsage(ctx, s.DB, accountID, day)
		return nil, err
	}

	system, _ := systemForKind(kind)
	analysis := &domain.Analysis{
		AccountID:      accountID,
		Kind:           kind,
		System:         string(system),
		InputText:      text,
		NormalizedTerm: interp.Term,
		Interpretation: interp.Summary,
		Label:          s.makeLabel(interp.Term),
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.CreateAnalysis(ctx, tx, analysis); err != nil {
			return err
		}
		if idemKey != "" {
			ttl := s.IdempotencyTTL
			if ttl <= 0 {
				ttl = 24 * time.Hour
			}
			if _, err := repo.CreateIdempotency(ctx, tx, accountID, idemScopeAnalyses, idemKey, analysis.ID, 201, ttl); err != nil && !errors.Is(err, repo.ErrDuplicate) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.result(ctx, analysis, false), nil
}

// result attaches the classification hierarchy to a persisted analysis.
// Catalog unavailability degrades to an empty category list here: the
// interpretation is already paid for and stored, so it is returned rather
// than failing the whole analysis.
func (s *AnalysisService) result(ctx context.Context, a *domain.Analysis, replayed bool) *AnalysisResult {
	res := &AnalysisResult{Analysis: a, Categories: []catalog.Category{}, Replayed: replayed}
	if a.System == "" || s.Classifier == nil {
		return res
	}
	if cats, err := s.Classifier.Hierarchy(ctx, System(a.System), a.NormalizedTerm); err == nil {
		res.Categories = cats
	}
	return res
}

// Get fetches one analysis with its hierarchy, enforcing ownership.
func (s *AnalysisService) Get(ctx context.Context, accountID, analysisID string) (*AnalysisResult, error) {
	a, err := repo.GetAnalysis(ctx, s.DB, analysisID, accountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrAnalysisNotFound
		}
		return nil, err
	}
	return s.result(ctx, a, false), nil
}

// ListPage returns paginated analyses for an account.
func (s *AnalysisService) ListPage(ctx context.Context, accountID string, page, pageSize int) ([]domain.Analysis, int64, error) {
	tr := otel.Tracer("services/AnalysisService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountAnalyses(ctx, s.DB, accountID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Analysis{}, 0, nil
	}

	items, err := repo.ListAnalysesPage(ctx, s.DB, accountID, offset, pageSize)
	return items, total, err
}

// SelectCode records the classification code the operator attached to the
// analysis. The code must have the structured `Letter + 2 digits
// [+ '.' + digit]` shape; ownership is enforced by the update predicate.
func (s *AnalysisService) SelectCode(ctx context.Context, accountID, analysisID, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if _, ok := catalog.ParseCode(code); !ok {
		return ErrInvalidCode
	}
	err := repo.UpdateSelectedCode(ctx, s.DB, analysisID, accountID, code)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrAnalysisNotFound
	}
	return err
}

// makeLabel derives a short display label from the normalized term: title
// cased per the configured locale and clipped to LabelMaxLen runes.
func (s *AnalysisService) makeLabel(term string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return ""
	}
	tag := s.LabelLocale
	if tag == (language.Tag{}) {
		tag = language.Und
	}
	label := cases.Title(tag).String(strings.ToLower(term))
	if s.LabelMaxLen > 0 && utf8.RuneCountInString(label) > s.LabelMaxLen {
		label = string([]rune(label)[:s.LabelMaxLen])
	}
	return label
}
