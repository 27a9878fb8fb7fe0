package services

import "errors"

// Sentinel errors shared across the matchmaking services. Controllers map
// these onto HTTP statuses; anything else is treated as a store failure.
var (
	// ErrNotFound signals a missing profile or request.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput signals malformed or out-of-range input, rejected
	// before any write.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized signals that the acting user is not the request's
	// recipient.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRequestNotPending signals a response to a request already in a
	// terminal state.
	ErrRequestNotPending = errors.New("request is no longer pending")
)
