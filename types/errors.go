package types

import "errors"

// Error taxonomy surfaced by the core services. Controllers translate these
// into HTTP statuses; everything else is treated as an internal failure.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrIncomplete          = errors.New("incomplete")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidPath         = errors.New("invalid path")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrIOFailure           = errors.New("io failure")
)
