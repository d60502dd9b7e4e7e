package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Failure codes surfaced by the services.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeAccessDenied     = "ACCESS_DENIED"
	CodeDuplicateEmail   = "DUPLICATE_EMAIL"
	CodeInvalidAgent     = "INVALID_AGENT"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInternal         = "INTERNAL_ERROR"
)

// DomainError standardizes application errors across service and
// transport layers.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
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

// NewNotFound reports an absent ticket or user.
func NewNotFound(resource string) error {
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

// NewAccessDenied reports a role or ownership policy violation.
func NewAccessDenied() error {
	return &DomainError{
		Code:       CodeAccessDenied,
		Message:    "Access denied",
		HTTPStatus: http.StatusForbidden,
	}
}

// NewDuplicateEmail reports an email uniqueness conflict.
func NewDuplicateEmail() error {
	return &DomainError{
		Code:       CodeDuplicateEmail,
		Message:    "Email already registered",
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidAgent reports an assignment target that is missing or not
// an agent.
func NewInvalidAgent() error {
	return &DomainError{
		Code:       CodeInvalidAgent,
		Message:    "Invalid agent ID",
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewValidationError reports a malformed or incomplete request.
func NewValidationError(message string) error {
	return &DomainError{
		Code:       CodeValidationFailed,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewUnauthorized reports a missing or invalid credential.
func NewUnauthorized(message string) error {
	return &DomainError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewInternalError wraps any other failure.
func NewInternalError(message string, err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts an arbitrary error into a DomainError,
// treating missing rows as NOT_FOUND and everything else as internal.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		de := NewNotFound("resource").(*DomainError)
		return de
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
