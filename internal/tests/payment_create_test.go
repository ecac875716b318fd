package tests

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"paygate/internal/domain"
	"paygate/internal/gateway"
	"paygate/internal/service"
)

// ──────────────────────────────────────────────
// 3. PAYMENT CREATION EDGE CASES
// ──────────────────────────────────────────────

func validCreateRequest() service.CreatePaymentRequest {
	return service.CreatePaymentRequest{
		Amount:      dec("29.90"),
		Description: "Widget order",
		PayerEmail:  "buyer@example.com",
		Items: []domain.PaymentItem{
			{Title: "Widget", Quantity: 1, UnitPrice: dec("29.90")},
		},
	}
}

func TestCreatePayment_Success(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	gw := NewStubGateway()
	gw.CreateOrderResult = &gateway.Order{ID: "ORD1", PaymentURL: "https://pay/ORD1"}

	paymentService := service.NewPaymentService(paymentRepo, gw)

	resp, err := paymentService.CreatePayment(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if resp.CheckoutURL != "https://pay/ORD1" {
		t.Errorf("expected checkout url https://pay/ORD1, got %s", resp.CheckoutURL)
	}

	stored := paymentRepo.GetPayment(resp.Payment.ID)
	if stored == nil {
		t.Fatal("expected payment to be persisted")
	}

	if stored.Status != domain.PaymentStatusPending {
		t.Errorf("expected status pending, got %s", stored.Status)
	}

	if stored.GatewayID != "ORD1" {
		t.Errorf("expected gateway id ORD1, got %q", stored.GatewayID)
	}

	if !stored.TotalAmount().Equal(stored.Amount) {
		t.Errorf("items total %s does not match amount %s", stored.TotalAmount(), stored.Amount)
	}

	if gw.LastOrderRequest.ReferenceID != resp.Payment.ID {
		t.Errorf("expected reference id %s sent to gateway, got %s", resp.Payment.ID, gw.LastOrderRequest.ReferenceID)
	}
}

func TestCreatePayment_GatewayFailure_RollsBack(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	gw := NewStubGateway()
	gw.CreateOrderError = &gateway.Error{
		Kind:       gateway.KindGateway,
		Message:    "40002: invalid_parameter",
		HTTPStatus: http.StatusBadRequest,
	}

	paymentService := service.NewPaymentService(paymentRepo, gw)

	_, err := paymentService.CreatePayment(context.Background(), validCreateRequest())
	if err == nil {
		t.Fatal("expected gateway error")
	}

	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *gateway.Error, got: %v", err)
	}

	// No orphaned local payment survives a failed remote order.
	if paymentRepo.CountPayments() != 0 {
		t.Errorf("expected no payments after rollback, found %d", paymentRepo.CountPayments())
	}

	if paymentRepo.DeleteCallCount != 1 {
		t.Errorf("expected 1 delete call, got %d", paymentRepo.DeleteCallCount)
	}
}

func TestCreatePayment_AmountMismatch_NeverReachesStoreOrGateway(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	gw := NewStubGateway()

	paymentService := service.NewPaymentService(paymentRepo, gw)

	req := validCreateRequest()
	req.Amount = dec("10.00")
	req.Items = []domain.PaymentItem{{Title: "Widget", Quantity: 1, UnitPrice: dec("10.50")}}

	_, err := paymentService.CreatePayment(context.Background(), req)
	if !errors.Is(err, service.ErrAmountMismatch) {
		t.Fatalf("expected ErrAmountMismatch, got: %v", err)
	}

	if paymentRepo.CreateCallCount != 0 {
		t.Errorf("expected no store writes, got %d", paymentRepo.CreateCallCount)
	}

	if gw.CreateOrderCallCount != 0 {
		t.Errorf("expected gateway never invoked, got %d calls", gw.CreateOrderCallCount)
	}
}

func TestCreatePayment_InvalidInput(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		mutate  func(*service.CreatePaymentRequest)
		wantErr error
	}{
		{
			name:    "malformed email",
			mutate:  func(r *service.CreatePaymentRequest) { r.PayerEmail = "not-an-email" },
			wantErr: service.ErrInvalidPayerEmail,
		},
		{
			name:    "empty description",
			mutate:  func(r *service.CreatePaymentRequest) { r.Description = "  " },
			wantErr: service.ErrInvalidDescription,
		},
		{
			name:    "short cpf",
			mutate:  func(r *service.CreatePaymentRequest) { r.PayerCPF = "123" },
			wantErr: service.ErrInvalidPayerCPF,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			paymentRepo := NewMockPaymentRepository()
			gw := NewStubGateway()
			paymentService := service.NewPaymentService(paymentRepo, gw)

			req := validCreateRequest()
			tc.mutate(&req)

			_, err := paymentService.CreatePayment(context.Background(), req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got: %v", tc.wantErr, err)
			}

			if paymentRepo.CreateCallCount != 0 {
				t.Errorf("expected no store writes, got %d", paymentRepo.CreateCallCount)
			}
		})
	}
}

func TestCreatePayment_FormattedCPFForwardedAsDigits(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	gw := NewStubGateway()
	gw.CreateOrderResult = &gateway.Order{ID: "ORD2", PaymentURL: "https://pay/ORD2"}

	paymentService := service.NewPaymentService(paymentRepo, gw)

	req := validCreateRequest()
	req.PayerCPF = "123.456.789-09"

	if _, err := paymentService.CreatePayment(context.Background(), req); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if gw.LastOrderRequest.Customer.TaxID != "12345678909" {
		t.Errorf("expected normalized cpf 12345678909, got %q", gw.LastOrderRequest.Customer.TaxID)
	}
}

// ──────────────────────────────────────────────
// 4. TRANSPARENT (CARD) PAYMENT
// ──────────────────────────────────────────────

func validTransparentRequest() service.TransparentPaymentRequest {
	return service.TransparentPaymentRequest{
		Payment: validCreateRequest(),
		Card: service.CardRequest{
			Encrypted:    "tok_abc",
			SecurityCode: "123",
			HolderName:   "JOSE SILVA",
			HolderCPF:    "12345678909",
		},
	}
}

func TestCreateTransparentPayment_Success(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	gw := NewStubGateway()
	gw.CreateChargeResult = &gateway.Charge{ID: "CHAR_1", Status: "PAID"}

	paymentService := service.NewPaymentService(paymentRepo, gw)

	resp, err := paymentService.CreateTransparentPayment(context.Background(), validTransparentRequest())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if resp.ChargeID != "CHAR_1" {
		t.Errorf("expected charge id CHAR_1, got %s", resp.ChargeID)
	}

	if resp.ChargeStatus != domain.PaymentStatusApproved {
		t.Errorf("expected reported charge status approved, got %s", resp.ChargeStatus)
	}

	// Local status stays pending until the webhook or a poll confirms.
	stored := paymentRepo.GetPayment(resp.Payment.ID)
	if stored == nil {
		t.Fatal("expected payment to be persisted")
	}
	if stored.Status != domain.PaymentStatusPending {
		t.Errorf("expected stored status pending, got %s", stored.Status)
	}
	if stored.GatewayID != "CHAR_1" {
		t.Errorf("expected gateway id CHAR_1, got %q", stored.GatewayID)
	}
}

func TestCreateTransparentPayment_MissingCardField(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	gw := NewStubGateway()
	paymentService := service.NewPaymentService(paymentRepo, gw)

	req := validTransparentRequest()
	req.Card.SecurityCode = ""

	_, err := paymentService.CreateTransparentPayment(context.Background(), req)
	if !errors.Is(err, service.ErrMissingCardField) {
		t.Fatalf("expected ErrMissingCardField, got: %v", err)
	}

	if paymentRepo.CreateCallCount != 0 {
		t.Errorf("expected no store writes, got %d", paymentRepo.CreateCallCount)
	}

	if gw.CreateChargeCallCount != 0 {
		t.Errorf("expected gateway never invoked, got %d calls", gw.CreateChargeCallCount)
	}
}

func TestCreateTransparentPayment_ChargeFailure_RollsBack(t *testing.T) {
	t.Parallel()

	paymentRepo := NewMockPaymentRepository()
	gw := NewStubGateway()
	gw.CreateChargeError = &gateway.Error{
		Kind:       gateway.KindGateway,
		Message:    "40001: card declined",
		HTTPStatus: http.StatusBadRequest,
	}

	paymentService := service.NewPaymentService(paymentRepo, gw)

	_, err := paymentService.CreateTransparentPayment(context.Background(), validTransparentRequest())
	if err == nil {
		t.Fatal("expected charge error")
	}

	if paymentRepo.CountPayments() != 0 {
		t.Errorf("expected no payments after rollback, found %d", paymentRepo.CountPayments())
	}
}
