package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a missing or empty required input.
	ErrValidation = errors.New("validation failed")
	// ErrEmbedding signals an undecodable image or an embedding provider failure.
	ErrEmbedding = errors.New("embedding failed")
	// ErrInvalidImage marks an embedding failure that is the caller's fault
	// and never reached the provider. Always wrapped alongside ErrEmbedding;
	// resilience layers must not count it against the provider.
	ErrInvalidImage = errors.New("invalid image payload")
	// ErrDimensionMismatch signals an embedding whose length does not match
	// the configured dimension. This is a configuration bug, not bad input.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrStoreUnavailable signals that the vector store could not be reached
	// after the client's own retry policy was exhausted.
	ErrStoreUnavailable = errors.New("vector store unavailable")
	// ErrPartialDeletion signals that some but not all of an entity's
	// documents were deleted.
	ErrPartialDeletion = errors.New("partial deletion")
)

// DimensionMismatchError wraps ErrDimensionMismatch with the observed sizes.
type DimensionMismatchError struct {
	Got  int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: got %d, want %d", ErrDimensionMismatch.Error(), e.Got, e.Want)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(got, want int) error {
	return &DimensionMismatchError{Got: got, Want: want}
}

// PartialDeletionError wraps ErrPartialDeletion with deletion counts.
// Documents already deleted stay deleted; the caller may safely retry.
type PartialDeletionError struct {
	Deleted int
	Failed  int
}

func (e *PartialDeletionError) Error() string {
	return fmt.Sprintf("%s: %d deleted, %d failed", ErrPartialDeletion.Error(), e.Deleted, e.Failed)
}

func (e *PartialDeletionError) Unwrap() error { return ErrPartialDeletion }

// NewPartialDeletion creates a partial deletion error.
func NewPartialDeletion(deleted, failed int) error {
	return &PartialDeletionError{Deleted: deleted, Failed: failed}
}
