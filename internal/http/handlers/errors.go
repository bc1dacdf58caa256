package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-srs-backend/internal/services"
)

// Stable error codes returned in ErrorResponse.Code. Clients branch on
// these, not on messages.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeUnknownWord      = "unknown_word"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// failErr maps a service error to its HTTP response.
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidGrade),
		errors.Is(err, services.ErrInvalidLemma),
		errors.Is(err, services.ErrInvalidMode):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrUnknownWord):
		fail(c, http.StatusNotFound, ErrCodeUnknownWord, err.Error())
	case errors.Is(err, services.ErrConcurrentWriteConflict):
		c.Header("Retry-After", "1")
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
