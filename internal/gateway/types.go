package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrorKind distinguishes remote rejections from transport-level faults.
type ErrorKind string

const (
	// KindGateway means the gateway answered with a non-success status or
	// a body that could not be decoded.
	KindGateway ErrorKind = "gateway"

	// KindNetwork means the request never completed (timeout, connection
	// refused, DNS failure).
	KindNetwork ErrorKind = "network"
)

// Error is the structured failure result for every gateway operation.
// HTTPStatus is zero for network faults.
type Error struct {
	Kind       ErrorKind
	Message    string
	HTTPStatus int
}

func (e *Error) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("pagbank: %s (HTTP %d)", e.Message, e.HTTPStatus)
	}
	return fmt.Sprintf("pagbank: %s", e.Message)
}

// Customer identifies the payer on an order or charge.
type Customer struct {
	Name  string
	Email string
	TaxID string
}

// OrderItem is a line item on an order request. UnitPrice is in currency
// units; the client converts to integer minor units on the wire.
type OrderItem struct {
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
}

// OrderRequest creates a PagBank order with a hosted checkout link.
type OrderRequest struct {
	ReferenceID string
	Customer    Customer
	Items       []OrderItem
}

// Order is the normalized result of a successful order creation.
type Order struct {
	ID         string
	PaymentURL string
	Raw        json.RawMessage
}

// OrderStatus is the normalized result of an order lookup. Status is the raw
// gateway status, empty when the order carries no charge yet.
type OrderStatus struct {
	ID     string
	Status string
	Raw    json.RawMessage
}

// Card holds the card payment method data for a transparent charge.
type Card struct {
	Encrypted    string
	SecurityCode string
	HolderName   string
	Installments int
}

// ChargeRequest creates a direct credit card charge.
type ChargeRequest struct {
	ReferenceID string
	Description string
	Amount      decimal.Decimal
	Customer    Customer
	Card        Card
}

// Charge is the normalized result of a successful charge creation.
type Charge struct {
	ID              string
	Status          string
	PaymentResponse json.RawMessage
}
