package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error

	// Retriable marks whether a retry of the failed operation could
	// plausibly succeed. Workflow invocations that fail with a
	// non-retriable error are abandoned without redelivery.
	Retriable bool
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details, Retriable: true}
}

func NewValidationError(message string, details map[string]any) error {
	err := NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
	err.Retriable = false
	return err
}

// NewNotFound reports a missing referent. Not retriable: a referenced
// document that is absent will not materialize on redelivery.
func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	err := NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
	err.Retriable = false
	return err
}

func NewForbidden(message string) error {
	err := NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
	err.Retriable = false
	return err
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
		Retriable:  true,
	}
}

// IsRetriable reports whether a redelivery of the triggering event could
// succeed. Unknown errors are treated as retriable.
func IsRetriable(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Retriable
	}
	return true
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
		Retriable:  true,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
