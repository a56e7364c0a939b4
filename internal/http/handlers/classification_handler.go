// Classification HTTP handlers.
//
// This file exposes REST endpoints for the code catalog:
//   - GET  /codes/{system}/hierarchy  (category tree for a free-text term)
//   - GET  /codes/{system}/search     (flat ranked lookup)
//   - POST /codes/{system}/reload     (admin snapshot rebuild)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/klaimcare/coder-backend/internal/catalog"
	"github.com/klaimcare/coder-backend/internal/domain"
	"github.com/klaimcare/coder-backend/internal/services"
	"github.com/klaimcare/coder-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ClassificationProvider defines the catalog query operations consumed by
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ClassificationProvider interface {
	// Hierarchy builds the two-level category tree for a free-text term.
	Hierarchy(ctx context.Context, system services.System, term string) ([]catalog.Category, error)
	// Search runs the flat ranked lookup for autocomplete and code lookup.
	Search(ctx context.Context, system services.System, term string, limit int) ([]catalog.Entry, error)
	// Reload rebuilds the snapshot for a system from the reference table.
	Reload(ctx context.Context, system services.System) (int, error)
}

// AnalysisProvider defines the AI-assisted coding workflow operations.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AnalysisProvider interface {
	// Analyze runs one AI coding pass; idemKey enables replay semantics.
	Analyze(ctx context.Context, accountID, kind, text, idemKey string) (*services.AnalysisResult, error)
	// Get fetches one analysis with its hierarchy, enforcing ownership.
	Get(ctx context.Context, accountID, analysisID string) (*services.AnalysisResult, error)
	// ListPage returns a page of analyses for an account and the total count.
	ListPage(ctx context.Context, accountID string, page, pageSize int) ([]domain.Analysis, int64, error)
	// SelectCode records the operator's final code choice on an analysis.
	SelectCode(ctx context.Context, accountID, analysisID, code string) error
}

// AccountProvider defines account lifecycle operations.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AccountProvider interface {
	// Create registers a staff account.
	Create(ctx context.Context, name, email, role string, expiresAt *time.Time) (*domain.Account, error)
	// Get fetches an account by ID.
	Get(ctx context.Context, id string) (*domain.Account, error)
	// ListPage returns a page of accounts and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Account, int64, error)
	// Deactivate clears the active flag on an account.
	Deactivate(ctx context.Context, id string) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for the catalog, analyses, and accounts.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	classSvc   ClassificationProvider
	analyzeSvc AnalysisProvider
	accountSvc AccountProvider
}

// New constructs and returns a Handlers instance bound to the given services.
func New(classSvc ClassificationProvider, analyzeSvc AnalysisProvider, accountSvc AccountProvider) *Handlers {
	return &Handlers{classSvc: classSvc, analyzeSvc: analyzeSvc, accountSvc: accountSvc}
}

// accountID extracts the authenticated account id from Gin context (set by
// upstream middleware). If absent, it falls back to "X-User-ID" header (tests
// use it), and finally to "demo-user". It never touches c.Request if it's nil.
func accountID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

// pathSystem resolves the {system} path parameter, writing a 400 when the
// selector is unknown. The bool reports whether the caller may proceed.
func pathSystem(c *gin.Context) (services.System, bool) {
	sys, ok := services.ParseSystem(c.Param("system"))
	if !ok {
		fail(c, http.StatusBadRequest, ErrCodeUnknownSystem, "system must be icd10 or icd9")
		return "", false
	}
	return sys, true
}

//
// DTOs
//

// HierarchyResponse wraps the category tree for a hierarchy query.
type HierarchyResponse struct {
	System     string             `json:"system" example:"icd10"`
	Term       string             `json:"term" example:"pneumonia"`
	Categories []catalog.Category `json:"categories"`
}

// SearchResponse wraps the ranked entries for a flat search query.
type SearchResponse struct {
	System  string          `json:"system" example:"icd10"`
	Term    string          `json:"term" example:"J12"`
	Results []catalog.Entry `json:"results"`
}

// ReloadResponse reports the outcome of an admin snapshot rebuild.
type ReloadResponse struct {
	System  string `json:"system" example:"icd10"`
	Entries int    `json:"entries" example:"14213"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.ClampRange(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// failCatalog maps catalog-level service errors onto HTTP responses shared by
// the hierarchy and search endpoints.
func failCatalog(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogUnavailable):
		fail(c, http.StatusServiceUnavailable, ErrCodeCatalogUnavailable, "code catalog not loaded")
	case errors.Is(err, services.ErrUnknownSystem):
		fail(c, http.StatusBadRequest, ErrCodeUnknownSystem, "system must be icd10 or icd9")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

//
// Handlers
//

// Hierarchy godoc
// @ID          codeHierarchy
// @Summary     Category tree for a term
// @Description Builds the two-level category tree (head categories with their sub-codes) matching a free-text clinical term.
// @Tags        Codes
// @Produce     json
//
// @Param       system  path   string  true  "Code system"  Enums(icd10, icd9)
// @Param       term    query  string  true  "Free-text clinical term"  example(pneumonia virus)
//
// @Success     200  {object}  handlers.HierarchyResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown system"
// @Failure     503  {object}  handlers.ErrorResponse  "Catalog not loaded"
// @Router      /codes/{system}/hierarchy [get]
func (h *Handlers) Hierarchy(c *gin.Context) {
	sys, okSys := pathSystem(c)
	if !okSys {
		return
	}
	term := c.Query("term")

	cats, err := h.classSvc.Hierarchy(c.Request.Context(), sys, term)
	if err != nil {
		failCatalog(c, err)
		return
	}
	ok(c, http.StatusOK, HierarchyResponse{
		System:     string(sys),
		Term:       term,
		Categories: cats,
	})
}

// Search godoc
// @ID          codeSearch
// @Summary     Ranked code search
// @Description Flat ranked lookup over the catalog: code-prefix matches first, then name-prefix, then substring matches.
// @Tags        Codes
// @Produce     json
//
// @Param       system  path   string  true   "Code system"  Enums(icd10, icd9)
// @Param       term    query  string  true   "Code fragment or name fragment"  example(J12)
// @Param       limit   query  int     false  "Maximum results"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.SearchResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown system"
// @Failure     503  {object}  handlers.ErrorResponse  "Catalog not loaded"
// @Router      /codes/{system}/search [get]
func (h *Handlers) Search(c *gin.Context) {
	sys, okSys := pathSystem(c)
	if !okSys {
		return
	}
	term := c.Query("term")
	limit := utils.AtoiDefault(c.Query("limit"), catalog.DefaultSearchLimit)
	if limit > 100 {
		limit = 100
	}

	results, err := h.classSvc.Search(c.Request.Context(), sys, term, limit)
	if err != nil {
		failCatalog(c, err)
		return
	}
	ok(c, http.StatusOK, SearchResponse{
		System:  string(sys),
		Term:    term,
		Results: results,
	})
}

// Reload godoc
// @ID          codeReload
// @Summary     Rebuild a catalog snapshot
// @Description Re-reads the reference table for the system and atomically swaps in a fresh catalog snapshot. Admin only.
// @Tags        Codes
// @Produce     json
//
// @Param       system  path  string  true  "Code system"  Enums(icd10, icd9)
//
// @Success     200  {object}  handlers.ReloadResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Unknown system"
// @Failure     500  {object}  handlers.ErrorResponse  "Reload failed"
// @Router      /codes/{system}/reload [post]
func (h *Handlers) Reload(c *gin.Context) {
	sys, okSys := pathSystem(c)
	if !okSys {
		return
	}
	n, err := h.classSvc.Reload(c.Request.Context(), sys)
	if err != nil {
		if errors.Is(err, services.ErrUnknownSystem) {
			fail(c, http.StatusBadRequest, ErrCodeUnknownSystem, "system must be icd10 or icd9")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, ReloadResponse{System: string(sys), Entries: n})
}
