package repository

import (
	"context"
	"time"

	"paygate/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment together with its items as a single
	// atomic unit. Either everything is written or nothing is.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment and its items by ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetAll retrieves all payments with their items, newest first.
	GetAll(ctx context.Context) ([]*domain.Payment, error)

	// SetGatewayID stores the gateway order/charge id on a payment.
	// Returns ErrDuplicateGatewayID if another payment already holds it.
	SetGatewayID(ctx context.Context, id, gatewayID string) error

	// ApplyGatewayUpdate sets the gateway id and status in one statement.
	// Used for webhook deliveries, which are authoritative.
	ApplyGatewayUpdate(ctx context.Context, id, gatewayID string, status domain.PaymentStatus) error

	// UpdateStatusFrom moves a payment from one status to another only if
	// it still holds the expected current status. Reports whether the row
	// changed, so a stale read never overwrites a newer write.
	UpdateStatusFrom(ctx context.Context, id string, from, to domain.PaymentStatus) (bool, error)

	// Delete removes a payment and its items (compensating rollback).
	Delete(ctx context.Context, id string) error

	// ListStalePending returns pending payments created before the cutoff
	// that never received a gateway id.
	ListStalePending(ctx context.Context, before time.Time) ([]*domain.Payment, error)
}
