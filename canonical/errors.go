/*
errors.go - Error taxonomy for the normalization engine

PURPOSE:
  All engine error types in one place. Only one class is allowed to abort
  an operation; the other two describe dirty input and are recovered
  locally by dropping the field or fragment.

ERROR CATEGORIES:
  1. MissingField       - expected field absent. Never fatal; the field
                          normalizes to nil.
  2. UnrecognizedShape  - a fragment matches no known variant. The fragment
                          is dropped from its batch and reported to the
                          caller for logging.
  3. InvariantViolation - a computed fact breaks a stated invariant (negative
                          day count, non-monotonic funnel). This indicates a
                          logic defect and propagates to the caller.

USAGE:
  if canonical.IsInvariantViolation(err) {
      return err // abort
  }
  log.Printf("[Gather] dropped fragment: %v", err) // data error, continue
*/
package canonical

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingField is returned when a required field is absent.
	ErrMissingField = errors.New("missing field")

	// ErrUnrecognizedShape is returned when a fragment matches no known variant.
	ErrUnrecognizedShape = errors.New("unrecognized shape")

	// ErrInvariantViolation is returned when a derived fact breaks an invariant.
	ErrInvariantViolation = errors.New("invariant violation")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ShapeError describes a fragment that was dropped from a batch.
type ShapeError struct {
	Kind   string // entity kind, e.g. "pay_statement"
	Index  int    // position in the batch, -1 if unknown
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s[%d]: %s", e.Kind, e.Index, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *ShapeError) Unwrap() error { return ErrUnrecognizedShape }

// FieldError describes an absent required field. It unwraps to both the
// field sentinel and, because the whole fragment is dropped, the shape sentinel.
type FieldError struct {
	Kind  string
	Index int
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s[%d]: missing %s", e.Kind, e.Index, e.Field)
}

func (e *FieldError) Unwrap() []error { return []error{ErrMissingField, ErrUnrecognizedShape} }

// InvariantError describes a broken invariant on a derived fact.
type InvariantError struct {
	Fact   string // e.g. "eligibility", "participation_funnel"
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Fact, e.Detail)
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsInvariantViolation returns true if err must abort the current operation.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}

// IsDataError returns true if err describes dirty input that was recovered locally.
func IsDataError(err error) bool {
	return errors.Is(err, ErrMissingField) || errors.Is(err, ErrUnrecognizedShape)
}
