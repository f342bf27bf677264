// Package kernelerr defines the small set of abstract error kinds the
// geometry and coupling kernels, the store, and the analytics layer report,
// per the failure semantics the engine's spec requires: MissingInput,
// DimensionMismatch, SingularMatrix, DeadlineExceeded, and StoreError.
// These errors are returned as *Error values built with New, which carry
// the Kind and wrap the underlying cause (Unwrap); errors.Is matches on Kind.
package kernelerr

import "fmt"

// Kind enumerates the abstract error categories from the failure semantics.
type Kind string

const (
	// MissingInput means a required field of a point (or coupling, or
	// wisdom record) was absent. Detectors swallow this and return no
	// record; kernel routines propagate it.
	MissingInput Kind = "missing_input"

	// DimensionMismatch means a vector or matrix shape is inconsistent
	// with the configured active/storage dimension. Always fatal to the
	// call that raised it.
	DimensionMismatch Kind = "dimension_mismatch"

	// SingularMatrix means inversion failed even after Tikhonov
	// regularization. Fatal to the call; callers may retry with a larger
	// regularization constant.
	SingularMatrix Kind = "singular_matrix"

	// DeadlineExceeded means cooperative cancellation fired; whatever was
	// finalized before the deadline is returned as an incomplete result.
	DeadlineExceeded Kind = "deadline_exceeded"

	// StoreError is an opaque error surfaced by the data-store contract.
	// Never retried inside the core.
	StoreError Kind = "store_error"
)

// Error pairs a Kind with the underlying cause and an optional message.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target names the same Kind, so callers can write
// errors.Is(err, kernelerr.MissingInput)-shaped checks by comparing against
// a sentinel built with New(kind, "", "", nil).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds a kernelerr.Error for the given kind.
func New(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

// Sentinel returns a zero-cause, zero-message Error usable as an
// errors.Is/errors.As comparison target for a given Kind.
func Sentinel(kind Kind) *Error {
	return &Error{Kind: kind}
}
