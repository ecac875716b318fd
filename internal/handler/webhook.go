package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"paygate/internal/service"
)

// WebhookHandler handles gateway webhook deliveries.
type WebhookHandler struct {
	paymentService *service.PaymentService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(paymentService *service.PaymentService) *WebhookHandler {
	return &WebhookHandler{paymentService: paymentService}
}

// webhookPayload is the PagBank v4 notification shape. Order notifications
// carry the status on the first charge rather than the top level.
type webhookPayload struct {
	ID          string `json:"id"`
	ReferenceID string `json:"reference_id"`
	Status      string `json:"status"`
	Charges     []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"charges"`
}

// HandlePagBank handles POST /v1/webhooks/pagbank
//
// Unknown references are acknowledged with 200 so the gateway does not retry
// forever; processing failures return 500 so its retry mechanism re-delivers.
func (h *WebhookHandler) HandlePagBank(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid webhook payload"})
		return
	}

	status := payload.Status
	if status == "" && len(payload.Charges) > 0 {
		status = payload.Charges[0].Status
	}

	err := h.paymentService.ProcessWebhook(c.Request.Context(), service.WebhookNotification{
		OrderID:     payload.ID,
		ReferenceID: payload.ReferenceID,
		Status:      status,
	})

	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "webhook processed"})
	case errors.Is(err, service.ErrUnknownWebhookReference):
		// Acknowledged: retrying will not make the payment appear.
		c.JSON(http.StatusOK, gin.H{"message": "webhook acknowledged"})
	case errors.Is(err, service.ErrMissingWebhookData):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "webhook processing failed"})
	}
}
