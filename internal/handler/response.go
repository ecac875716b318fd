package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"paygate/internal/gateway"
	"paygate/internal/repository"
	"paygate/internal/service"
)

// ErrorResponse represents an error response. Details carries the gateway's
// own message when a remote call failed.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		// Network faults and remote rejections look the same to the
		// caller but are logged apart for operability.
		if gwErr.Kind == gateway.KindNetwork {
			log.Printf("gateway unreachable: %v", gwErr)
		} else {
			log.Printf("gateway rejected request: %v", gwErr)
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "payment gateway request failed",
			Details: gwErr.Message,
		})
		return
	}

	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, repository.ErrDuplicateGatewayID):
		return http.StatusConflict

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidPaymentID),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrNoItems),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidUnitPrice),
		errors.Is(err, service.ErrAmountMismatch),
		errors.Is(err, service.ErrInvalidDescription),
		errors.Is(err, service.ErrInvalidPayerEmail),
		errors.Is(err, service.ErrInvalidPayerCPF),
		errors.Is(err, service.ErrMissingCardField),
		errors.Is(err, service.ErrMissingWebhookData):
		return http.StatusBadRequest

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
