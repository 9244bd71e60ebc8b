package utils

import "errors"

// Error taxonomy. Handlers map these to HTTP codes with errors.Is;
// services wrap them with fmt.Errorf("...: %w", ...).
var (
	// ErrValidation - bad/missing request fields (400)
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized - missing/invalid user context (401)
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound - unknown order id / record (404)
	ErrNotFound = errors.New("not found")

	// ErrSignature - webhook authenticity failure (401), must be checked
	// before any booking lookup or mutation
	ErrSignature = errors.New("invalid signature")

	// ErrProvider - travel provider rejected or errored the commit call
	ErrProvider = errors.New("provider booking failed")

	// ErrGateway - payment gateway HTTP failure during order creation
	ErrGateway = errors.New("payment gateway request failed")

	// ErrUnknownStatus - unrecognized gateway status string; the event is
	// rejected and no state change is applied
	ErrUnknownStatus = errors.New("unknown payment status")
)
