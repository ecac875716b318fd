package service

import "errors"

var (
	// ErrInvalidPaymentID is returned when the payment id is empty.
	ErrInvalidPaymentID = errors.New("invalid payment id")

	// ErrInvalidAmount is returned when the declared amount is not positive.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrNoItems is returned when a payment carries no items.
	ErrNoItems = errors.New("at least one item is required")

	// ErrInvalidQuantity is returned when an item quantity is not positive.
	ErrInvalidQuantity = errors.New("item quantity must be greater than zero")

	// ErrInvalidUnitPrice is returned when an item unit price is negative.
	ErrInvalidUnitPrice = errors.New("item unit price must not be negative")

	// ErrAmountMismatch is returned when the item total differs from the
	// declared amount by more than the tolerance.
	ErrAmountMismatch = errors.New("items total does not match declared amount")

	// ErrInvalidDescription is returned when the description is empty.
	ErrInvalidDescription = errors.New("description is required")

	// ErrInvalidPayerEmail is returned when the payer email is malformed.
	ErrInvalidPayerEmail = errors.New("invalid payer email")

	// ErrInvalidPayerCPF is returned when a supplied CPF is not 11 digits.
	ErrInvalidPayerCPF = errors.New("payer cpf must have 11 digits")

	// ErrMissingCardField is returned when a required card field is absent.
	ErrMissingCardField = errors.New("missing required card field")

	// ErrMissingWebhookData is returned when a webhook payload lacks the
	// order id or reference id.
	ErrMissingWebhookData = errors.New("webhook payload missing order id or reference id")

	// ErrUnknownWebhookReference is returned when a webhook references a
	// payment that does not exist locally. Acknowledged to the gateway,
	// tracked distinctly for operability.
	ErrUnknownWebhookReference = errors.New("webhook references unknown payment")
)
