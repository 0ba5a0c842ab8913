package engine

import (
	"errors"

	"github.com/danieljhkim/overlaygen/internal/planner"
)

var (
	// ErrIOFailure indicates the working tree could not be built. It aborts
	// the whole operation and the partial tree must be discarded.
	ErrIOFailure = errors.New("io failure")

	// ErrResourceNotFound indicates an overlay identifier had no bytes.
	ErrResourceNotFound = errors.New("overlay resource not found")

	// ErrMalformedDocument indicates a document failed to parse as the
	// expected structure. Only the affected item is abandoned.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrIdentifierMismatch indicates an identifier outside the generator
	// prefix. Plan skips wrap it.
	ErrIdentifierMismatch = planner.ErrIdentifierMismatch

	// ErrValidation indicates a validation failure.
	ErrValidation = errors.New("validation failed")
)
