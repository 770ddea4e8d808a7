package handlers

import (
	"net/http"

	"github.com/ximepaparella/gifty-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Error represents an API error
type Error struct {
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Common API errors
var (
	ErrInvalidRequest = &Error{Message: "Invalid request", StatusCode: http.StatusBadRequest, Code: "INVALID_REQUEST"}
	ErrNotFound       = &Error{Message: "Resource not found", StatusCode: http.StatusNotFound, Code: "NOT_FOUND"}
	ErrInternalServer = &Error{Message: "Internal server error", StatusCode: http.StatusInternalServerError, Code: "INTERNAL_ERROR"}
	ErrUnauthorized   = &Error{Message: "Unauthorized", StatusCode: http.StatusUnauthorized, Code: "UNAUTHORIZED"}
	ErrConflict       = &Error{Message: "Resource already exists", StatusCode: http.StatusConflict, Code: "CONFLICT"}
)

// NewError creates a new API error with custom details
func NewError(message string, statusCode int, code string) *Error {
	return &Error{Message: message, StatusCode: statusCode, Code: code}
}

// writeError translates domain errors into HTTP responses. Validation errors
// carry the full violation list so the client can fix the payload in one
// round trip.
func writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success":    false,
			"message":    "Validation error",
			"code":       "VALIDATION_ERROR",
			"violations": verr.Violations,
		})
		return
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.StatusCode, gin.H{
			"success": false,
			"message": apiErr.Message,
			"code":    apiErr.Code,
		})
		return
	}

	status, code := classify(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Unhandled error")
		c.JSON(status, gin.H{
			"success": false,
			"message": "Internal server error",
			"code":    code,
		})
		return
	}

	c.JSON(status, gin.H{
		"success": false,
		"message": err.Error(),
		"code":    code,
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrVoucherNotFound),
		errors.Is(err, service.ErrStoreNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, service.ErrVoucherAlreadyRedeemed):
		return http.StatusConflict, "ALREADY_REDEEMED"
	case errors.Is(err, service.ErrVoucherExpired):
		return http.StatusGone, "VOUCHER_EXPIRED"
	case errors.Is(err, service.ErrEmailAlreadyExists):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// writeData writes a success envelope around the given payload
func writeData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// writeList writes a success envelope for a paginated collection
func writeList(c *gin.Context, data interface{}, total int64, offset, limit int) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"total":   total,
		"offset":  offset,
		"limit":   limit,
	})
}
