package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"paygate/internal/domain"
)

// amountTolerance is one cent: item totals may drift from the declared
// amount by at most 0.01 currency units.
var amountTolerance = decimal.New(1, -2)

// ReconcileAmount verifies that the sum of quantity × unit price over all
// items matches the declared amount within the tolerance. It is a pure gate:
// it runs before any persistence or gateway call and has no side effects.
func ReconcileAmount(amount decimal.Decimal, items []domain.PaymentItem) error {
	if len(items) == 0 {
		return ErrNoItems
	}

	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	total := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: %q", ErrInvalidQuantity, item.Title)
		}
		if item.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: %q", ErrInvalidUnitPrice, item.Title)
		}
		total = total.Add(item.TotalPrice())
	}

	if total.Sub(amount).Abs().GreaterThan(amountTolerance) {
		return fmt.Errorf("%w: items total %s, declared %s", ErrAmountMismatch, total.StringFixed(2), amount.StringFixed(2))
	}

	return nil
}
