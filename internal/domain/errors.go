package domain

import "errors"

// Sentinel errors shared across packages. Callers match with errors.Is.
var (
	// ErrDuplicateURL is returned when an insert is rejected because a
	// record with the same URL already exists.
	ErrDuplicateURL = errors.New("content URL already exists")

	// ErrNotFound is returned when a record lookup matches nothing.
	ErrNotFound = errors.New("content record not found")

	// ErrInvalidResponse is returned when the model output does not parse
	// into the expected analysis schema.
	ErrInvalidResponse = errors.New("analysis response does not match expected schema")

	// ErrClientFailure is returned when the model call itself failed
	// (network, auth, rate limit).
	ErrClientFailure = errors.New("analysis client call failed")
)
