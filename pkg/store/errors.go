package store

import (
	"context"
	"errors"
	"fmt"
)

// Predefined errors for externally triggerable failures. Index-consistency
// violations are not represented here: the engine guarantees they cannot
// occur instead of handling them.
var (
	// ErrNotFound indicates that a requested memory was not found.
	ErrNotFound = errors.New("memory not found")

	// ErrInvalidArgument indicates a malformed value: a confidence or
	// importance outside [0,1], an unparseable filter, or a mistyped
	// recognized metadata key.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidContent indicates content that cannot be linearized to text.
	ErrInvalidContent = errors.New("invalid content")

	// ErrDimensionMismatch indicates that the embedder's output dimension
	// disagrees with the store's configured dimension. This is a
	// configuration error and aborts the write.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrDuplicateID indicates an explicit-id write that collided with an
	// existing record while the store is in strict (non-upsert) mode.
	ErrDuplicateID = errors.New("duplicate memory id")

	// ErrDependencyTimeout indicates that a call to the embedder or the
	// summarizer was cut off by the caller's deadline.
	ErrDependencyTimeout = errors.New("dependency timed out")

	// ErrDependencyFailure indicates that the embedder or the summarizer
	// returned an error. It is always surfaced, never folded into an
	// empty result.
	ErrDependencyFailure = errors.New("dependency failed")
)

// DependencyError classifies a failure from an external collaborator
// (embedder, summarizer) as a timeout or a hard failure, preserving the
// original error text.
func DependencyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrDependencyTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrDependencyFailure, err)
}
