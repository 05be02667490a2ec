package services

import "errors"

// Sentinel errors surfaced to controllers, which map them to HTTP statuses.
var (
	// ErrInvalidRequest marks a submission missing required fields.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUpstreamUnavailable marks a failed call to the matching engine.
	ErrUpstreamUnavailable = errors.New("matching engine unavailable")

	// ErrStoreUnavailable marks a failed call to DynamoDB during a
	// reconciliation-critical step.
	ErrStoreUnavailable = errors.New("datastore unavailable")

	// ErrNotFound marks a missing record.
	ErrNotFound = errors.New("not found")
)
