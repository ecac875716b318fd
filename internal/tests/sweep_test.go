package tests

import (
	"context"
	"testing"
	"time"

	"paygate/internal/domain"
	"paygate/internal/service"
)

// ──────────────────────────────────────────────
// 7. ORPHAN SWEEP
// ──────────────────────────────────────────────

func addPaymentAged(repo *MockPaymentRepository, id string, status domain.PaymentStatus, gatewayID string, age time.Duration) {
	repo.AddPayment(&domain.Payment{
		ID:         id,
		Amount:     dec("10.00"),
		PayerEmail: "buyer@example.com",
		Status:     status,
		GatewayID:  gatewayID,
		CreatedAt:  time.Now().Add(-age),
		UpdatedAt:  time.Now().Add(-age),
		Items: []domain.PaymentItem{
			{Title: "Widget", Quantity: 1, UnitPrice: dec("10.00")},
		},
	})
}

func TestSweepOnce_CancelsOnlyStaleOrphans(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	addPaymentAged(paymentRepo, "stale-orphan", domain.PaymentStatusPending, "", 2*time.Hour)
	addPaymentAged(paymentRepo, "fresh-orphan", domain.PaymentStatusPending, "", time.Minute)
	addPaymentAged(paymentRepo, "has-gateway", domain.PaymentStatusPending, "ORD1", 2*time.Hour)
	addPaymentAged(paymentRepo, "already-approved", domain.PaymentStatusApproved, "ORD2", 2*time.Hour)

	sweeper := service.NewOrphanSweeper(paymentRepo, time.Minute, time.Hour)

	cancelled, err := sweeper.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cancelled != 1 {
		t.Errorf("expected 1 cancellation, got %d", cancelled)
	}

	expectations := map[string]domain.PaymentStatus{
		"stale-orphan":     domain.PaymentStatusCancelled,
		"fresh-orphan":     domain.PaymentStatusPending,
		"has-gateway":      domain.PaymentStatusPending,
		"already-approved": domain.PaymentStatusApproved,
	}
	for id, want := range expectations {
		if got := paymentRepo.GetPayment(id).Status; got != want {
			t.Errorf("payment %s: expected %s, got %s", id, want, got)
		}
	}
}

func TestSweepOnce_ConcurrentUpdateWins(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	addPaymentAged(paymentRepo, "stale-orphan", domain.PaymentStatusPending, "", 2*time.Hour)
	paymentRepo.ForceStatusMiss = true

	sweeper := service.NewOrphanSweeper(paymentRepo, time.Minute, time.Hour)

	cancelled, err := sweeper.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// The guarded update lost the race, so the sweep counts nothing.
	if cancelled != 0 {
		t.Errorf("expected 0 cancellations on guarded miss, got %d", cancelled)
	}
}

func TestSweepOnce_ListFailure(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	paymentRepo.ListStalePendingError = context.DeadlineExceeded

	sweeper := service.NewOrphanSweeper(paymentRepo, time.Minute, time.Hour)

	if _, err := sweeper.SweepOnce(context.Background()); err == nil {
		t.Fatal("expected error from failed listing")
	}
}
