package reperr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode standardizes failure semantics across the reputation engine.
// InvalidRating and RateLimited are surfaced verbatim through the API.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeInvalidRating      ErrorCode = "invalid_rating"
	CodeNotFound           ErrorCode = "not_found"
	CodeRateLimited        ErrorCode = "rate_limit_exceeded"
	CodeConflict           ErrorCode = "conflict"
	CodePreconditionFailed ErrorCode = "precondition_failed"
	CodeRetryable          ErrorCode = "retryable"
	CodeInternal           ErrorCode = "internal"
)

// Error is the canonical error wrapper for service and repo failures.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an error with explicit code + operation.
func New(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates an existing error with reputation error semantics.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(code, op, err.Error(), err)
}

// IsCode checks whether err (or a wrapped err) carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var repErr *Error
	if !errors.As(err, &repErr) {
		return false
	}
	return repErr.Code == code
}

// CodeOf extracts the error code when available.
func CodeOf(err error) ErrorCode {
	var repErr *Error
	if !errors.As(err, &repErr) {
		return ""
	}
	return repErr.Code
}

// MessageOf extracts the caller-safe message, falling back to the code.
func MessageOf(err error) string {
	var repErr *Error
	if !errors.As(err, &repErr) {
		return ""
	}
	if strings.TrimSpace(repErr.Message) != "" {
		return repErr.Message
	}
	return string(repErr.Code)
}
