// Account HTTP handlers.
//
// This file exposes REST endpoints for staff account administration:
//   - POST   /accounts        (create)
//   - GET    /accounts        (list, paginated)
//   - GET    /accounts/{id}   (fetch)
//   - DELETE /accounts/{id}   (deactivate)
//
// Deactivation is soft: the account row and its analysis history are
// retained, but further AI analyses are rejected.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/klaimcare/coder-backend/internal/domain"
	"github.com/klaimcare/coder-backend/internal/services"
)

// CreateAccountRequest is the JSON payload for registering a staff account.
type CreateAccountRequest struct {
	// Name is the staff member's display name (1-255 chars).
	Name string `json:"name" binding:"required,min=1,max=255" example:"Siti Rahma"`
	// Email is the unique login identity.
	Email string `json:"email" binding:"required,email" example:"siti@hospital.example"`
	// Role is "staff" (default) or "admin".
	Role string `json:"role" example:"staff"`
	// ExpiresAt optionally bounds the account's validity window.
	ExpiresAt *time.Time `json:"expires_at,omitempty" example:"2027-01-01T00:00:00Z"`
}

// ListAccountsResponse wraps a page of accounts and pagination information.
type ListAccountsResponse struct {
	Accounts   []domain.Account `json:"accounts"`
	Pagination Pagination       `json:"pagination"`
}

// CreateAccount godoc
// @ID          createAccount
// @Summary     Register a staff account
// @Description Creates an account with a normalized email. Duplicate emails are rejected with 409.
// @Tags        Accounts
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateAccountRequest  true  "Account payload"
//
// @Success     201  {object}  domain.Account
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Email already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /accounts [post]
func (h *Handlers) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	a, err := h.accountSvc.Create(c.Request.Context(), req.Name, req.Email, req.Role, req.ExpiresAt)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAccount):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrDuplicateAccount):
			fail(c, http.StatusConflict, ErrCodeConflict, "email already registered")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, a)
}

// ListAccounts godoc
// @ID          listAccounts
// @Summary     List accounts (paginated)
// @Description Returns a page of staff accounts, newest first. Admin only.
// @Tags        Accounts
// @Produce     json
//
// @Param       page       query  int  false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListAccountsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /accounts [get]
func (h *Handlers) ListAccounts(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.accountSvc.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListAccountsResponse{
		Accounts: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetAccount godoc
// @ID          getAccount
// @Summary     Fetch an account
// @Tags        Accounts
// @Produce     json
//
// @Param       id  path  string  true  "Account ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Account
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Account not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /accounts/{id} [get]
func (h *Handlers) GetAccount(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "account id must be a UUID")
		return
	}

	a, err := h.accountSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "account not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, a)
}

// DeactivateAccount godoc
// @ID          deactivateAccount
// @Summary     Deactivate an account
// @Description Clears the active flag. The account's analysis history is retained; further AI analyses are rejected. Admin only.
// @Tags        Accounts
// @Produce     json
//
// @Param       id  path  string  true  "Account ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Account not found or already inactive"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /accounts/{id} [delete]
func (h *Handlers) DeactivateAccount(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "account id must be a UUID")
		return
	}

	if err := h.accountSvc.Deactivate(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "account not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}
