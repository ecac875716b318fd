package tests

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"paygate/internal/domain"
	"paygate/internal/service"
)

// ──────────────────────────────────────────────
// 1. AMOUNT RECONCILIATION EDGE CASES
// ──────────────────────────────────────────────

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestReconcileAmount_Boundaries(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		amount  string
		items   []domain.PaymentItem
		wantErr error
	}{
		{
			name:   "exact match",
			amount: "29.90",
			items:  []domain.PaymentItem{{Title: "Widget", Quantity: 1, UnitPrice: dec("29.90")}},
		},
		{
			name:   "multiple items summing exactly",
			amount: "50.00",
			items: []domain.PaymentItem{
				{Title: "A", Quantity: 2, UnitPrice: dec("12.50")},
				{Title: "B", Quantity: 1, UnitPrice: dec("25.00")},
			},
		},
		{
			name:   "difference of exactly one cent accepted",
			amount: "10.00",
			items:  []domain.PaymentItem{{Title: "A", Quantity: 1, UnitPrice: dec("10.01")}},
		},
		{
			name:    "difference of 0.011 rejected",
			amount:  "10.00",
			items:   []domain.PaymentItem{{Title: "A", Quantity: 1, UnitPrice: dec("10.011")}},
			wantErr: service.ErrAmountMismatch,
		},
		{
			name:    "items overshoot declared amount",
			amount:  "10.00",
			items:   []domain.PaymentItem{{Title: "A", Quantity: 1, UnitPrice: dec("10.50")}},
			wantErr: service.ErrAmountMismatch,
		},
		{
			name:    "empty item list",
			amount:  "10.00",
			items:   nil,
			wantErr: service.ErrNoItems,
		},
		{
			name:    "zero quantity",
			amount:  "10.00",
			items:   []domain.PaymentItem{{Title: "A", Quantity: 0, UnitPrice: dec("10.00")}},
			wantErr: service.ErrInvalidQuantity,
		},
		{
			name:    "negative quantity",
			amount:  "10.00",
			items:   []domain.PaymentItem{{Title: "A", Quantity: -1, UnitPrice: dec("10.00")}},
			wantErr: service.ErrInvalidQuantity,
		},
		{
			name:    "negative unit price",
			amount:  "10.00",
			items:   []domain.PaymentItem{{Title: "A", Quantity: 1, UnitPrice: dec("-10.00")}},
			wantErr: service.ErrInvalidUnitPrice,
		},
		{
			name:   "zero unit price allowed when amounts agree",
			amount: "5.00",
			items: []domain.PaymentItem{
				{Title: "A", Quantity: 1, UnitPrice: dec("5.00")},
				{Title: "freebie", Quantity: 3, UnitPrice: dec("0.00")},
			},
		},
		{
			name:    "zero amount",
			amount:  "0.00",
			items:   []domain.PaymentItem{{Title: "A", Quantity: 1, UnitPrice: dec("0.00")}},
			wantErr: service.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			amount:  "-1.00",
			items:   []domain.PaymentItem{{Title: "A", Quantity: 1, UnitPrice: dec("1.00")}},
			wantErr: service.ErrInvalidAmount,
		},
		{
			name:   "no float drift on many small items",
			amount: "0.30",
			items: []domain.PaymentItem{
				{Title: "A", Quantity: 3, UnitPrice: dec("0.10")},
			},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := service.ReconcileAmount(dec(tc.amount), tc.items)
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected error %v, got: %v", tc.wantErr, err)
			}
		})
	}
}
