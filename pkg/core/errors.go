package core

import (
	"errors"
	"fmt"

	"github.com/agentmind/agentmind-go/pkg/session"
	"github.com/agentmind/agentmind-go/pkg/store"
)

// Predefined errors for common failure scenarios. The storage-level
// sentinels are re-exported so callers can match them with errors.Is without
// importing the store package.
var (
	// ErrNotFound indicates that a requested memory was not found.
	ErrNotFound = store.ErrNotFound

	// ErrInvalidArgument indicates that the provided input is invalid.
	ErrInvalidArgument = store.ErrInvalidArgument

	// ErrInvalidContent indicates that content could not be serialized.
	ErrInvalidContent = store.ErrInvalidContent

	// ErrDimensionMismatch indicates an embedding of the wrong size.
	ErrDimensionMismatch = store.ErrDimensionMismatch

	// ErrDuplicateID indicates an explicit-id write onto an existing id in
	// strict mode.
	ErrDuplicateID = store.ErrDuplicateID

	// ErrDependencyTimeout indicates that an external provider timed out.
	ErrDependencyTimeout = store.ErrDependencyTimeout

	// ErrDependencyFailure indicates that an external provider failed.
	ErrDependencyFailure = store.ErrDependencyFailure

	// ErrEmptySession indicates that a summarized session has no memories.
	ErrEmptySession = session.ErrEmptySession

	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// MemoryError wraps errors with operation context.
//
// It records which client operation failed, making error messages more
// informative for debugging.
type MemoryError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message.
//
// The format is: "agentmind: <Op>: <Err>"
func (e *MemoryError) Error() string {
	return fmt.Sprintf("agentmind: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
//
// This allows using errors.Is() and errors.As() with MemoryError.
func (e *MemoryError) Unwrap() error {
	return e.Err
}

// NewMemoryError creates a new MemoryError wrapping the given error.
//
// If err is nil, returns nil. This allows safe error wrapping:
//
//	if err != nil {
//	    return NewMemoryError("Remember", err)
//	}
func NewMemoryError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &MemoryError{
		Op:  op,
		Err: err,
	}
}
