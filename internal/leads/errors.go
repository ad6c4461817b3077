package leads

import "errors"

var (
	// ErrMissingPhone is returned when a capture has no phone number
	ErrMissingPhone = errors.New("phone is required")

	// ErrMissingSender is returned when a capture has no sender identifier
	ErrMissingSender = errors.New("sender id is required")

	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")
)
