package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"paygate/internal/domain"
	"paygate/internal/gateway"
	"paygate/internal/repository"
)

// Gateway is the interface to the remote payment gateway. Every failure comes
// back as a *gateway.Error; implementations never panic on remote misbehavior.
type Gateway interface {
	CreateOrder(ctx context.Context, req gateway.OrderRequest) (*gateway.Order, error)
	GetOrder(ctx context.Context, orderID string) (*gateway.OrderStatus, error)
	CreateCharge(ctx context.Context, req gateway.ChargeRequest) (*gateway.Charge, error)
}

// PaymentService orchestrates the payment lifecycle: creation with
// compensating rollback, polled status refresh and webhook updates.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	gateway     Gateway
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(paymentRepo repository.PaymentRepository, gw Gateway) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		gateway:     gw,
	}
}

// CreatePaymentRequest contains the parameters for creating a payment.
type CreatePaymentRequest struct {
	Amount      decimal.Decimal
	Description string
	PayerEmail  string
	PayerName   string
	PayerCPF    string
	Items       []domain.PaymentItem
}

// CreatePaymentResponse is the result of a successful payment creation.
type CreatePaymentResponse struct {
	Payment     *domain.Payment
	CheckoutURL string
}

// CreatePayment validates the request, persists the payment and its items as
// a single unit in pending status, then creates the order at the gateway.
// If the gateway rejects the order, the local payment is deleted again: a
// local payment must never outlive a failed remote order.
func (s *PaymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResponse, error) {
	cpf, err := validatePaymentRequest(req)
	if err != nil {
		return nil, err
	}

	if err := ReconcileAmount(req.Amount, req.Items); err != nil {
		return nil, err
	}

	now := time.Now()
	payment := &domain.Payment{
		ID:          uuid.New().String(),
		Amount:      req.Amount,
		Description: req.Description,
		PayerEmail:  req.PayerEmail,
		Status:      domain.PaymentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items:       req.Items,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	orderItems := make([]gateway.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		orderItems = append(orderItems, gateway.OrderItem{
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	order, err := s.gateway.CreateOrder(ctx, gateway.OrderRequest{
		ReferenceID: payment.ID,
		Customer: gateway.Customer{
			Name:  req.PayerName,
			Email: req.PayerEmail,
			TaxID: cpf,
		},
		Items: orderItems,
	})
	if err != nil {
		// Compensating rollback: the remote order failed, so the local
		// payment and its items must not survive.
		if delErr := s.paymentRepo.Delete(ctx, payment.ID); delErr != nil {
			log.Printf("failed to roll back payment %s after gateway error: %v", payment.ID, delErr)
		}
		return nil, err
	}

	if err := s.paymentRepo.SetGatewayID(ctx, payment.ID, order.ID); err != nil {
		// The remote order exists; deleting the payment here would orphan
		// it. The record stays pending without a gateway id and is picked
		// up by the sweeper.
		log.Printf("failed to store gateway id %s on payment %s: %v", order.ID, payment.ID, err)
		return nil, err
	}

	payment.GatewayID = order.ID

	return &CreatePaymentResponse{
		Payment:     payment,
		CheckoutURL: order.PaymentURL,
	}, nil
}

// GetPayment retrieves a payment by ID.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, ErrInvalidPaymentID
	}

	return s.paymentRepo.GetByID(ctx, paymentID)
}

// ListPayments retrieves all payments, newest first.
func (s *PaymentService) ListPayments(ctx context.Context) ([]*domain.Payment, error) {
	return s.paymentRepo.GetAll(ctx)
}

// RefreshStatus returns the payment after polling the gateway for its current
// status. Without a gateway id the local state is returned unchanged. Gateway
// failures never mutate local state and never fail the read: the last-known
// status is returned. A changed status is applied with a guarded update so a
// concurrent webhook write is never regressed.
func (s *PaymentService) RefreshStatus(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if payment.GatewayID == "" {
		return payment, nil
	}

	orderStatus, err := s.gateway.GetOrder(ctx, payment.GatewayID)
	if err != nil {
		var gwErr *gateway.Error
		if errors.As(err, &gwErr) && gwErr.Kind == gateway.KindNetwork {
			log.Printf("status poll for payment %s: gateway unreachable: %v", payment.ID, err)
		} else {
			log.Printf("status poll for payment %s failed: %v", payment.ID, err)
		}
		return payment, nil
	}

	mapped := domain.MapGatewayStatus(orderStatus.Status)
	if mapped == payment.Status {
		return payment, nil
	}

	updated, err := s.paymentRepo.UpdateStatusFrom(ctx, payment.ID, payment.Status, mapped)
	if err != nil {
		return nil, err
	}

	if !updated {
		// A concurrent writer moved the status first; return its view.
		return s.paymentRepo.GetByID(ctx, payment.ID)
	}

	payment.Status = mapped
	payment.UpdatedAt = time.Now()

	return payment, nil
}

// WebhookNotification is the data extracted from a gateway webhook delivery.
type WebhookNotification struct {
	OrderID     string
	ReferenceID string
	Status      string
}

// ProcessWebhook applies a gateway-pushed status update. The webhook is
// authoritative: the gateway id and mapped status are written unconditionally
// in a single statement. Re-delivering the same notification converges to the
// same state.
func (s *PaymentService) ProcessWebhook(ctx context.Context, notification WebhookNotification) error {
	if notification.OrderID == "" || notification.ReferenceID == "" {
		return ErrMissingWebhookData
	}

	status := domain.MapGatewayStatus(notification.Status)

	err := s.paymentRepo.ApplyGatewayUpdate(ctx, notification.ReferenceID, notification.OrderID, status)
	if errors.Is(err, repository.ErrNotFound) {
		log.Printf("webhook for unknown payment reference %s (order %s) dropped", notification.ReferenceID, notification.OrderID)
		return ErrUnknownWebhookReference
	}

	return err
}

// CardRequest holds the card data for a transparent payment.
type CardRequest struct {
	Encrypted    string
	SecurityCode string
	HolderName   string
	HolderCPF    string
	Installments int
}

// TransparentPaymentRequest contains the parameters for a card payment.
type TransparentPaymentRequest struct {
	Payment CreatePaymentRequest
	Card    CardRequest
}

// TransparentPaymentResponse is the result of a successful card charge.
type TransparentPaymentResponse struct {
	Payment      *domain.Payment
	ChargeID     string
	ChargeStatus domain.PaymentStatus
}

// CreateTransparentPayment runs the create flow against the charges API with
// card data instead of a hosted checkout, under the same compensating-rollback
// discipline. The local status stays pending until the webhook or a poll
// confirms the outcome; the mapped charge status is only reported back.
func (s *PaymentService) CreateTransparentPayment(ctx context.Context, req TransparentPaymentRequest) (*TransparentPaymentResponse, error) {
	cpf, err := validatePaymentRequest(req.Payment)
	if err != nil {
		return nil, err
	}

	if err := validateCard(req.Card); err != nil {
		return nil, err
	}

	if err := ReconcileAmount(req.Payment.Amount, req.Payment.Items); err != nil {
		return nil, err
	}

	now := time.Now()
	payment := &domain.Payment{
		ID:          uuid.New().String(),
		Amount:      req.Payment.Amount,
		Description: req.Payment.Description,
		PayerEmail:  req.Payment.PayerEmail,
		Status:      domain.PaymentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		Items:       req.Payment.Items,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	charge, err := s.gateway.CreateCharge(ctx, gateway.ChargeRequest{
		ReferenceID: payment.ID,
		Description: payment.Description,
		Amount:      payment.Amount,
		Customer: gateway.Customer{
			Name:  req.Payment.PayerName,
			Email: req.Payment.PayerEmail,
			TaxID: cpf,
		},
		Card: gateway.Card{
			Encrypted:    req.Card.Encrypted,
			SecurityCode: req.Card.SecurityCode,
			HolderName:   req.Card.HolderName,
			Installments: req.Card.Installments,
		},
	})
	if err != nil {
		if delErr := s.paymentRepo.Delete(ctx, payment.ID); delErr != nil {
			log.Printf("failed to roll back payment %s after charge error: %v", payment.ID, delErr)
		}
		return nil, err
	}

	if err := s.paymentRepo.SetGatewayID(ctx, payment.ID, charge.ID); err != nil {
		log.Printf("failed to store charge id %s on payment %s: %v", charge.ID, payment.ID, err)
		return nil, err
	}

	payment.GatewayID = charge.ID

	return &TransparentPaymentResponse{
		Payment:      payment,
		ChargeID:     charge.ID,
		ChargeStatus: domain.MapGatewayStatus(charge.Status),
	}, nil
}

// validatePaymentRequest checks the fields the reconciler does not cover and
// returns the normalized CPF digits (empty when none was supplied).
func validatePaymentRequest(req CreatePaymentRequest) (string, error) {
	if strings.TrimSpace(req.Description) == "" {
		return "", ErrInvalidDescription
	}

	if _, err := mail.ParseAddress(req.PayerEmail); err != nil {
		return "", ErrInvalidPayerEmail
	}

	if req.PayerCPF == "" {
		return "", nil
	}

	cpf := digitsOnly(req.PayerCPF)
	if len(cpf) != 11 {
		return "", ErrInvalidPayerCPF
	}

	return cpf, nil
}

func validateCard(card CardRequest) error {
	required := []struct {
		name  string
		value string
	}{
		{"token", card.Encrypted},
		{"security_code", card.SecurityCode},
		{"holder_name", card.HolderName},
		{"holder_cpf", card.HolderCPF},
	}

	for _, field := range required {
		if field.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingCardField, field.name)
		}
	}

	return nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
