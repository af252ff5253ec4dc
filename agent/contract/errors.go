package contract

import "errors"

var (
	// ErrNotFound covers unknown sessions, products, and resolved or absent
	// pending actions.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a pending action already exists, or when
	// a confirm/cancel races with another request for the same session.
	ErrConflict = errors.New("conflict")

	// ErrUpstream marks catalog/checkout/model provider failures. It is
	// absorbed into an apologetic reply on conversational paths.
	ErrUpstream = errors.New("upstream failure")

	ErrValidation = errors.New("validation failed")

	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
)
