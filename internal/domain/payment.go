package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the canonical status of a payment. Every gateway-specific
// status vocabulary is mapped into exactly one of these five values.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusApproved  PaymentStatus = "approved"
	PaymentStatusRejected  PaymentStatus = "rejected"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment represents a local payment record backed by a PagBank order or charge.
type Payment struct {
	ID           string
	GatewayID    string // PagBank order/charge id; empty until the gateway accepts
	Amount       decimal.Decimal
	Description  string
	PayerEmail   string
	Status       PaymentStatus
	PreferenceID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Items        []PaymentItem
}

// TotalAmount sums quantity × unit price over all items.
func (p *Payment) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range p.Items {
		total = total.Add(item.TotalPrice())
	}
	return total
}

// PaymentItem is a line item owned by a payment.
type PaymentItem struct {
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
}

// TotalPrice returns quantity × unit price. Not stored; always derived.
func (i PaymentItem) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
