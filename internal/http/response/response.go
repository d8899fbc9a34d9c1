package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VitalPointAI/argus-sub001/internal/domain/reperr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError translates coded service failures into HTTP statuses.
// Callers pass service errors through untouched; anything uncoded reads as
// an internal failure without leaking its text.
func RespondServiceError(c *gin.Context, err error) {
	code := reperr.CodeOf(err)
	if code == "" {
		code = reperr.CodeInternal
	}
	msg := reperr.MessageOf(err)
	if msg == "" {
		msg = "internal error"
	}
	c.JSON(statusOf(code), ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    string(code),
		},
	})
}

func statusOf(code reperr.ErrorCode) int {
	switch code {
	case reperr.CodeValidation:
		return http.StatusBadRequest
	case reperr.CodeInvalidRating:
		return http.StatusUnprocessableEntity
	case reperr.CodeNotFound:
		return http.StatusNotFound
	case reperr.CodeRateLimited:
		return http.StatusTooManyRequests
	case reperr.CodeConflict, reperr.CodePreconditionFailed:
		return http.StatusConflict
	case reperr.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
