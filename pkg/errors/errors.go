package errors

import "errors"

var (
	// ErrNotFound is returned when no record matches the requested key.
	ErrNotFound = errors.New("tensor not found")

	// ErrEmptyStore is returned by eviction when there are no records to
	// determine the current round from.
	ErrEmptyStore = errors.New("nothing to evict: store is empty")

	// ErrUnknownFunction is returned when an aggregation function name is
	// not present in the registry.
	ErrUnknownFunction = errors.New("unknown aggregation function")

	// ErrInvalidWeights is returned when collaborator weights do not sum
	// to 1.0 within tolerance, or do not match the contributions.
	ErrInvalidWeights = errors.New("invalid collaborator weights")

	// ErrShapeMismatch is returned when contributions disagree on shape.
	ErrShapeMismatch = errors.New("tensor shape mismatch")

	// ErrNoContributions is returned when an aggregation function is
	// invoked with nothing to aggregate.
	ErrNoContributions = errors.New("no contributions provided for aggregation")

	// ErrInvalidData is returned when a payload cannot be interpreted.
	ErrInvalidData = errors.New("invalid data")
)
