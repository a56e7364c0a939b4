// Analysis HTTP handlers.
//
// This file exposes REST endpoints for the AI-assisted coding workflow:
//   - POST /analyses                 (submit a clinical entry for analysis)
//   - GET  /analyses                 (list, paginated, ETag support)
//   - GET  /analyses/{id}            (fetch one analysis with its hierarchy)
//   - PUT  /analyses/{id}/selection  (record the final code choice)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/klaimcare/coder-backend/internal/ai"
	"github.com/klaimcare/coder-backend/internal/domain"
	"github.com/klaimcare/coder-backend/internal/repo"
	"github.com/klaimcare/coder-backend/internal/services"
)

//
// DTOs
//

// CreateAnalysisRequest is the JSON payload for submitting a clinical entry.
type CreateAnalysisRequest struct {
	// Kind of entry: diagnosis, procedure, or medication.
	Kind string `json:"kind" binding:"required" example:"diagnosis"`
	// Text is the operator's raw clinical entry.
	Text string `json:"text" binding:"required" example:"pneumonia krn virus"`
}

// SelectCodeRequest is the JSON payload for recording the final code choice.
type SelectCodeRequest struct {
	// Code is the classification code attached to the claim.
	Code string `json:"code" binding:"required" example:"J12.9"`
}

// ListAnalysesResponse wraps a page of analyses and pagination information.
type ListAnalysesResponse struct {
	Analyses   []domain.Analysis `json:"analyses"`
	Pagination Pagination        `json:"pagination"`
}

//
// Handlers
//

// CreateAnalysis godoc
// @ID          createAnalysis
// @Summary     Submit a clinical entry for AI analysis
// @Description Interprets the entry via the core engine, builds the matching category tree, and persists the analysis. Supply an Idempotency-Key header to make the submission safely retryable.
// @Tags        Analyses
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "Account ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Replay-safe submission key" example(4f7c1a1e-8b0f-4c3f-9a44-2f9d9f1b6c7d)
// @Param       body             body    handlers.CreateAnalysisRequest  true  "Clinical entry"
//
// @Success     201  {object}  services.AnalysisResult
// @Success     200  {object}  services.AnalysisResult  "Idempotent replay"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     402  {object}  handlers.ErrorResponse  "Daily quota exhausted"
// @Failure     403  {object}  handlers.ErrorResponse  "Account inactive or expired"
// @Failure     502  {object}  handlers.ErrorResponse  "Core engine unavailable"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /analyses [post]
func (h *Handlers) CreateAnalysis(c *gin.Context) {
	var req CreateAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))

	res, err := h.analyzeSvc.Analyze(c.Request.Context(), accountID(c), req.Kind, req.Text, idemKey)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyText),
			errors.Is(err, services.ErrTextTooLong),
			errors.Is(err, services.ErrInvalidKind):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrAccountNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "account not found")
		case errors.Is(err, services.ErrAccountInactive):
			fail(c, http.StatusForbidden, ErrCodeAccountInactive, err.Error())
		case errors.Is(err, services.ErrAccountExpired):
			fail(c, http.StatusForbidden, ErrCodeAccountExpired, err.Error())
		case errors.Is(err, services.ErrQuotaExceeded):
			fail(c, http.StatusPaymentRequired, ErrCodeQuotaExceeded, err.Error())
		case errors.Is(err, ai.ErrUnavailable):
			fail(c, http.StatusBadGateway, ErrCodeAIUnavailable, "core engine unavailable")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	ok(c, status, res)
}

// ListAnalyses godoc
// @ID          listAnalyses
// @Summary     List analyses (paginated)
// @Description Returns a page of the account's analyses, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Analyses
// @Produce     json
//
// @Param       X-User-ID      header  string  false "Account ID (demo header)"     example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"   example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                   minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"                minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListAnalysesResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /analyses [get]
func (h *Handlers) ListAnalyses(c *gin.Context) {
	ctx := c.Request.Context()
	uid := accountID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, okSvc := h.analyzeSvc.(*services.AnalysisService); okSvc {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.AnalysesStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"analyses:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	// Fetch page.
	items, total, err := h.analyzeSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	resp := ListAnalysesResponse{
		Analyses: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
	ok(c, http.StatusOK, resp)
}

// GetAnalysis godoc
// @ID          getAnalysis
// @Summary     Fetch one analysis
// @Description Returns the analysis and the category tree rebuilt over its normalized term, enforcing account ownership.
// @Tags        Analyses
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Account ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Analysis ID (UUID)"        format(uuid)
//
// @Success     200  {object} services.AnalysisResult
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Analysis not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /analyses/{id} [get]
func (h *Handlers) GetAnalysis(c *gin.Context) {
	analysisID := c.Param("id")
	if _, err := uuid.Parse(analysisID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "analysis id must be a UUID")
		return
	}

	res, err := h.analyzeSvc.Get(c.Request.Context(), accountID(c), analysisID)
	if err != nil {
		if errors.Is(err, services.ErrAnalysisNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "analysis not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, res)
}

// SelectCode godoc
// @ID          selectAnalysisCode
// @Summary     Record the final code choice
// @Description Attaches the classification code the operator picked to the analysis. The code must have the structured shape (letter, two digits, optional dot and digit).
// @Tags        Analyses
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Account ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Analysis ID (UUID)"        format(uuid)
// @Param       body       body    handlers.SelectCodeRequest  true  "Selected code"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Invalid code"
// @Failure     404  {object} handlers.ErrorResponse "Analysis not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /analyses/{id}/selection [put]
func (h *Handlers) SelectCode(c *gin.Context) {
	analysisID := c.Param("id")
	if _, err := uuid.Parse(analysisID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "analysis id must be a UUID")
		return
	}

	var req SelectCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "code required")
		return
	}

	if err := h.analyzeSvc.SelectCode(c.Request.Context(), accountID(c), analysisID, req.Code); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCode):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrAnalysisNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "analysis not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	noContent(c)
}
