package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateGatewayID is returned when a gateway id is already
	// assigned to another payment.
	ErrDuplicateGatewayID = errors.New("gateway id already assigned")
)
