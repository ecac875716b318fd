package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"paygate/internal/domain"
	"paygate/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// PaymentItemRequest is one line item in a create request.
type PaymentItemRequest struct {
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreatePaymentRequest is the HTTP request body for creating a payment.
type CreatePaymentRequest struct {
	Amount      decimal.Decimal      `json:"amount"`
	Description string               `json:"description"`
	PayerEmail  string               `json:"payer_email"`
	PayerName   string               `json:"payer_name,omitempty"`
	PayerCPF    string               `json:"payer_cpf,omitempty"`
	Items       []PaymentItemRequest `json:"items"`
}

// CreatePaymentResponse is the HTTP response for creating a payment.
type CreatePaymentResponse struct {
	PaymentID   string `json:"payment_id"`
	CheckoutURL string `json:"checkout_url"`
	PaymentURL  string `json:"payment_url"`
}

// PaymentItemResponse is one line item in a payment representation.
type PaymentItemResponse struct {
	Title      string `json:"title"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	TotalPrice string `json:"total_price"`
}

// PaymentResponse is the full payment representation.
type PaymentResponse struct {
	ID           string                `json:"id"`
	Amount       string                `json:"amount"`
	Description  string                `json:"description"`
	PayerEmail   string                `json:"payer_email"`
	Status       string                `json:"status"`
	GatewayID    string                `json:"payment_gateway_id,omitempty"`
	PreferenceID string                `json:"preference_id,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Items        []PaymentItemResponse `json:"items"`
	TotalAmount  string                `json:"total_amount"`
}

// CardRequest is the card block of a transparent payment request. Either
// token or encrypted carries the tokenized card data.
type CardRequest struct {
	Token        string `json:"token,omitempty"`
	Encrypted    string `json:"encrypted,omitempty"`
	SecurityCode string `json:"security_code"`
	HolderName   string `json:"holder_name"`
	HolderCPF    string `json:"holder_cpf"`
	Installments int    `json:"installments,omitempty"`
}

// TransparentPaymentRequest is the HTTP request body for a card payment.
type TransparentPaymentRequest struct {
	Payment CreatePaymentRequest `json:"payment"`
	Card    CardRequest          `json:"card"`
}

// TransparentPaymentResponse is the HTTP response for a card payment.
type TransparentPaymentResponse struct {
	Success   bool   `json:"success"`
	PaymentID string `json:"payment_id"`
	ChargeID  string `json:"charge_id"`
	Status    string `json:"status"`
}

// CreatePayment handles POST /v1/payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	resp, err := h.paymentService.CreatePayment(c.Request.Context(), service.CreatePaymentRequest{
		Amount:      req.Amount,
		Description: req.Description,
		PayerEmail:  req.PayerEmail,
		PayerName:   req.PayerName,
		PayerCPF:    req.PayerCPF,
		Items:       toDomainItems(req.Items),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, CreatePaymentResponse{
		PaymentID:   resp.Payment.ID,
		CheckoutURL: resp.CheckoutURL,
		PaymentURL:  resp.CheckoutURL,
	})
}

// GetAll handles GET /v1/payments
func (h *PaymentHandler) GetAll(c *gin.Context) {
	payments, err := h.paymentService.ListPayments(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]PaymentResponse, 0, len(payments))
	for _, payment := range payments {
		resp = append(resp, toPaymentResponse(payment))
	}

	respondJSON(c, http.StatusOK, resp)
}

// GetPayment handles GET /v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// PaymentStatus handles GET /v1/payments/:id/status
func (h *PaymentHandler) PaymentStatus(c *gin.Context) {
	payment, err := h.paymentService.RefreshStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// CreateTransparent handles POST /v1/payments/transparent
func (h *PaymentHandler) CreateTransparent(c *gin.Context) {
	var req TransparentPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	encrypted := req.Card.Encrypted
	if encrypted == "" {
		encrypted = req.Card.Token
	}

	resp, err := h.paymentService.CreateTransparentPayment(c.Request.Context(), service.TransparentPaymentRequest{
		Payment: service.CreatePaymentRequest{
			Amount:      req.Payment.Amount,
			Description: req.Payment.Description,
			PayerEmail:  req.Payment.PayerEmail,
			PayerName:   req.Payment.PayerName,
			PayerCPF:    req.Payment.PayerCPF,
			Items:       toDomainItems(req.Payment.Items),
		},
		Card: service.CardRequest{
			Encrypted:    encrypted,
			SecurityCode: req.Card.SecurityCode,
			HolderName:   req.Card.HolderName,
			HolderCPF:    req.Card.HolderCPF,
			Installments: req.Card.Installments,
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, TransparentPaymentResponse{
		Success:   true,
		PaymentID: resp.Payment.ID,
		ChargeID:  resp.ChargeID,
		Status:    string(resp.ChargeStatus),
	})
}

func toDomainItems(items []PaymentItemRequest) []domain.PaymentItem {
	result := make([]domain.PaymentItem, 0, len(items))
	for _, item := range items {
		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		result = append(result, domain.PaymentItem{
			Title:     item.Title,
			Quantity:  quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return result
}

func toPaymentResponse(payment *domain.Payment) PaymentResponse {
	items := make([]PaymentItemResponse, 0, len(payment.Items))
	for _, item := range payment.Items {
		items = append(items, PaymentItemResponse{
			Title:      item.Title,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice.StringFixed(2),
			TotalPrice: item.TotalPrice().StringFixed(2),
		})
	}

	return PaymentResponse{
		ID:           payment.ID,
		Amount:       payment.Amount.StringFixed(2),
		Description:  payment.Description,
		PayerEmail:   payment.PayerEmail,
		Status:       string(payment.Status),
		GatewayID:    payment.GatewayID,
		PreferenceID: payment.PreferenceID,
		CreatedAt:    payment.CreatedAt,
		UpdatedAt:    payment.UpdatedAt,
		Items:        items,
		TotalAmount:  payment.TotalAmount().StringFixed(2),
	}
}
