package tests

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"paygate/internal/domain"
	"paygate/internal/gateway"
	"paygate/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	// Counters for verification
	CreateCallCount           int32
	DeleteCallCount           int32
	SetGatewayIDCallCount     int32
	ApplyGatewayCallCount     int32
	UpdateStatusFromCallCount int32

	// Error injection
	CreateError           error
	DeleteError           error
	SetGatewayIDError     error
	ApplyGatewayError     error
	UpdateStatusFromError error
	ListStalePendingError error

	// ForceStatusMiss makes UpdateStatusFrom report that the row did not
	// move, simulating a concurrent writer winning the race.
	ForceStatusMiss bool
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

// AddPayment seeds a payment into the mock repository.
func (m *MockPaymentRepository) AddPayment(payment *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = copyPayment(payment)
}

// GetPayment returns a payment for test assertions.
func (m *MockPaymentRepository) GetPayment(id string) *domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil
	}
	return copyPayment(payment)
}

// CountPayments returns the number of stored payments.
func (m *MockPaymentRepository) CountPayments() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.payments)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = copyPayment(payment)
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyPayment(payment), nil
}

func (m *MockPaymentRepository) GetAll(ctx context.Context) ([]*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Payment, 0, len(m.payments))
	for _, payment := range m.payments {
		result = append(result, copyPayment(payment))
	}
	return result, nil
}

func (m *MockPaymentRepository) SetGatewayID(ctx context.Context, id, gatewayID string) error {
	atomic.AddInt32(&m.SetGatewayIDCallCount, 1)
	if m.SetGatewayIDError != nil {
		return m.SetGatewayIDError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for otherID, other := range m.payments {
		if otherID != id && other.GatewayID == gatewayID {
			return repository.ErrDuplicateGatewayID
		}
	}
	payment, ok := m.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	payment.GatewayID = gatewayID
	payment.UpdatedAt = time.Now()
	return nil
}

func (m *MockPaymentRepository) ApplyGatewayUpdate(ctx context.Context, id, gatewayID string, status domain.PaymentStatus) error {
	atomic.AddInt32(&m.ApplyGatewayCallCount, 1)
	if m.ApplyGatewayError != nil {
		return m.ApplyGatewayError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	payment.GatewayID = gatewayID
	payment.Status = status
	payment.UpdatedAt = time.Now()
	return nil
}

func (m *MockPaymentRepository) UpdateStatusFrom(ctx context.Context, id string, from, to domain.PaymentStatus) (bool, error) {
	atomic.AddInt32(&m.UpdateStatusFromCallCount, 1)
	if m.UpdateStatusFromError != nil {
		return false, m.UpdateStatusFromError
	}
	if m.ForceStatusMiss {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[id]
	if !ok || payment.Status != from {
		return false, nil
	}
	payment.Status = to
	payment.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockPaymentRepository) Delete(ctx context.Context, id string) error {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.payments, id)
	return nil
}

func (m *MockPaymentRepository) ListStalePending(ctx context.Context, before time.Time) ([]*domain.Payment, error) {
	if m.ListStalePendingError != nil {
		return nil, m.ListStalePendingError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Payment
	for _, payment := range m.payments {
		if payment.Status == domain.PaymentStatusPending && payment.GatewayID == "" && payment.CreatedAt.Before(before) {
			result = append(result, copyPayment(payment))
		}
	}
	return result, nil
}

func copyPayment(payment *domain.Payment) *domain.Payment {
	copied := *payment
	copied.Items = append([]domain.PaymentItem(nil), payment.Items...)
	return &copied
}

// ──────────────────────────────────────────────
// STUB GATEWAY
// ──────────────────────────────────────────────

// StubGateway is a configurable stub implementation of the payment gateway.
type StubGateway struct {
	mu sync.Mutex

	CreateOrderResult  *gateway.Order
	CreateOrderError   error
	GetOrderResult     *gateway.OrderStatus
	GetOrderError      error
	CreateChargeResult *gateway.Charge
	CreateChargeError  error

	// Counters for verification
	CreateOrderCallCount  int32
	GetOrderCallCount     int32
	CreateChargeCallCount int32

	// Last requests for assertions
	LastOrderRequest  gateway.OrderRequest
	LastChargeRequest gateway.ChargeRequest
}

// NewStubGateway creates a stub gateway with no configured results.
func NewStubGateway() *StubGateway {
	return &StubGateway{}
}

func (g *StubGateway) CreateOrder(ctx context.Context, req gateway.OrderRequest) (*gateway.Order, error) {
	atomic.AddInt32(&g.CreateOrderCallCount, 1)
	g.mu.Lock()
	g.LastOrderRequest = req
	g.mu.Unlock()
	if g.CreateOrderError != nil {
		return nil, g.CreateOrderError
	}
	return g.CreateOrderResult, nil
}

func (g *StubGateway) GetOrder(ctx context.Context, orderID string) (*gateway.OrderStatus, error) {
	atomic.AddInt32(&g.GetOrderCallCount, 1)
	if g.GetOrderError != nil {
		return nil, g.GetOrderError
	}
	return g.GetOrderResult, nil
}

func (g *StubGateway) CreateCharge(ctx context.Context, req gateway.ChargeRequest) (*gateway.Charge, error) {
	atomic.AddInt32(&g.CreateChargeCallCount, 1)
	g.mu.Lock()
	g.LastChargeRequest = req
	g.mu.Unlock()
	if g.CreateChargeError != nil {
		return nil, g.CreateChargeError
	}
	return g.CreateChargeResult, nil
}
