package tests

import (
	"context"
	"testing"

	"paygate/internal/domain"
	"paygate/internal/gateway"
	"paygate/internal/service"
)

// ──────────────────────────────────────────────
// 6. STATUS POLLING
// ──────────────────────────────────────────────

func TestRefreshStatus_NoGatewayID_ReturnsLocalState(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	seedPendingPayment(paymentRepo, "pay-1")
	gw := NewStubGateway()

	paymentService := service.NewPaymentService(paymentRepo, gw)

	payment, err := paymentService.RefreshStatus(context.Background(), "pay-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if payment.Status != domain.PaymentStatusPending {
		t.Errorf("expected pending, got %s", payment.Status)
	}

	if gw.GetOrderCallCount != 0 {
		t.Errorf("expected gateway never queried, got %d calls", gw.GetOrderCallCount)
	}
}

func TestRefreshStatus_AppliesChangedStatus(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	payment := seedPendingPayment(paymentRepo, "pay-1")
	payment.GatewayID = "ORD1"
	paymentRepo.AddPayment(payment)

	gw := NewStubGateway()
	gw.GetOrderResult = &gateway.OrderStatus{ID: "ORD1", Status: "PAID"}

	paymentService := service.NewPaymentService(paymentRepo, gw)

	refreshed, err := paymentService.RefreshStatus(context.Background(), "pay-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if refreshed.Status != domain.PaymentStatusApproved {
		t.Errorf("expected approved, got %s", refreshed.Status)
	}

	if stored := paymentRepo.GetPayment("pay-1"); stored.Status != domain.PaymentStatusApproved {
		t.Errorf("expected persisted status approved, got %s", stored.Status)
	}
}

func TestRefreshStatus_UnchangedStatus_NoWrite(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	payment := seedPendingPayment(paymentRepo, "pay-1")
	payment.GatewayID = "ORD1"
	paymentRepo.AddPayment(payment)

	gw := NewStubGateway()
	gw.GetOrderResult = &gateway.OrderStatus{ID: "ORD1", Status: "WAITING"}

	paymentService := service.NewPaymentService(paymentRepo, gw)

	if _, err := paymentService.RefreshStatus(context.Background(), "pay-1"); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if paymentRepo.UpdateStatusFromCallCount != 0 {
		t.Errorf("expected no status write for unchanged status, got %d", paymentRepo.UpdateStatusFromCallCount)
	}
}

func TestRefreshStatus_GatewayFailure_PreservesTerminalStatus(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	payment := seedPendingPayment(paymentRepo, "pay-1")
	payment.GatewayID = "ORD1"
	payment.Status = domain.PaymentStatusApproved
	paymentRepo.AddPayment(payment)

	gw := NewStubGateway()
	gw.GetOrderError = &gateway.Error{Kind: gateway.KindNetwork, Message: "dial tcp: connection refused"}

	paymentService := service.NewPaymentService(paymentRepo, gw)

	refreshed, err := paymentService.RefreshStatus(context.Background(), "pay-1")
	if err != nil {
		t.Fatalf("gateway failure must not fail the read, got: %v", err)
	}

	if refreshed.Status != domain.PaymentStatusApproved {
		t.Errorf("expected last-known approved, got %s", refreshed.Status)
	}

	if stored := paymentRepo.GetPayment("pay-1"); stored.Status != domain.PaymentStatusApproved {
		t.Errorf("local state mutated on gateway failure: %s", stored.Status)
	}
}

func TestRefreshStatus_ConcurrentWriterWins(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	payment := seedPendingPayment(paymentRepo, "pay-1")
	payment.GatewayID = "ORD1"
	paymentRepo.AddPayment(payment)
	paymentRepo.ForceStatusMiss = true

	gw := NewStubGateway()
	gw.GetOrderResult = &gateway.OrderStatus{ID: "ORD1", Status: "PAID"}

	paymentService := service.NewPaymentService(paymentRepo, gw)

	// The guarded update reports a miss; the poll must fall back to the
	// stored row instead of claiming its own view.
	refreshed, err := paymentService.RefreshStatus(context.Background(), "pay-1")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if refreshed.Status != domain.PaymentStatusPending {
		t.Errorf("expected stored status pending, got %s", refreshed.Status)
	}
}
