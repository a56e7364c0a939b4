// Package services defines the business logic for classification, analyses,
// and accounts. This file centralizes common service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

// Classification errors.
var (
	// ErrCatalogUnavailable indicates the requested code system has no
	// loaded catalog snapshot. It is deliberately distinct from an empty
	// result: "nothing matched" and "search is broken" must not look alike
	// to the UI.
	ErrCatalogUnavailable = errors.New("code catalog not loaded")

	// ErrUnknownSystem is returned for a code-system selector other than
	// icd10 or icd9.
	ErrUnknownSystem = errors.New("unknown code system")
)

// Analysis errors.
var (
	// ErrEmptyText is returned when an analysis request contains no
	// clinical text.
	ErrEmptyText = errors.New("clinical text is empty")

	// ErrTextTooLong is returned when the clinical text exceeds the
	// configured length limit.
	ErrTextTooLong = errors.New("clinical text too long")

	// ErrInvalidKind is returned when the analysis kind is outside
	// {diagnosis, procedure, medication}.
	ErrInvalidKind = errors.New("kind must be diagnosis, procedure, or medication")

	// ErrAnalysisNotFound indicates that the requested analysis does not
	// exist or is not accessible to the current account.
	ErrAnalysisNotFound = errors.New("analysis not found")

	// ErrInvalidCode is returned when a selected classification code does
	// not have the expected shape.
	ErrInvalidCode = errors.New("invalid classification code")

	// ErrQuotaExceeded is returned when the account has spent its daily
	// AI-analysis allowance.
	ErrQuotaExceeded = errors.New("daily analysis quota exceeded")
)

// Account errors.
var (
	// ErrAccountNotFound indicates that the requested account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidAccount is returned when account fields fail validation.
	ErrInvalidAccount = errors.New("account name and email are required")

	// ErrDuplicateAccount is returned when an account with the same email
	// already exists.
	ErrDuplicateAccount = errors.New("account already exists")

	// ErrAccountInactive is returned when a deactivated account attempts an
	// AI analysis.
	ErrAccountInactive = errors.New("account is deactivated")

	// ErrAccountExpired is returned when an account past its validity
	// window attempts an AI analysis.
	ErrAccountExpired = errors.New("account has expired")
)
