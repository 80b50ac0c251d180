/*
errors.go - Centralized error taxonomy for the staffing engine

PURPOSE:
  All error categories in one place for consistency and discoverability.
  Domain packages wrap these with additional context; callers classify
  with errors.Is/errors.As.

ERROR CATEGORIES:
  1. Validation    - malformed input (negative counts, bad day-of-week)
  2. Conflict      - request blocked by existing state (double clock-in)
  3. State         - illegal lifecycle transition (release a draft stub)
  4. Locked        - mutation of a terminal/immutable record
  5. Configuration - invalid organization settings
  6. NotFound      - referenced record does not exist

All of these are deterministic, caller-recoverable errors. Store-level
failures (I/O, SQL) are propagated verbatim and are NOT wrapped into
this taxonomy.

USAGE:
  if errors.Is(err, core.ErrConflict) { ... }

  var conflict *core.ConflictError
  if errors.As(err, &conflict) && conflict.Code == "AlreadyClockedIn" { ... }
*/
package core

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when existing state blocks the request.
	ErrConflict = errors.New("conflict with existing state")

	// ErrState is returned for illegal lifecycle transitions.
	ErrState = errors.New("illegal state transition")

	// ErrLocked is returned when mutating a terminal/immutable record.
	ErrLocked = errors.New("record is locked")

	// ErrConfiguration is returned for invalid organization settings.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes a malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConflictError describes a request blocked by existing state.
// Code is a stable machine-readable identifier, e.g. "AlreadyClockedIn".
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// StateError describes an illegal lifecycle transition.
type StateError struct {
	Current   string
	Attempted string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s from state %q", e.Attempted, e.Current)
}

func (e *StateError) Unwrap() error { return ErrState }

// LockedError describes a mutation attempt on a terminal record.
type LockedError struct {
	Kind string // "pay_stub", "time_entry"
	ID   string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s %s is released/terminal and cannot be mutated", e.Kind, e.ID)
}

func (e *LockedError) Unwrap() error { return ErrLocked }

// ConfigurationError describes an invalid organization setting.
type ConfigurationError struct {
	Setting string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Setting, e.Message)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// NotFoundError identifies a missing record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to the caller's input
// or the current state, rather than an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrState) ||
		errors.Is(err, ErrLocked) ||
		errors.Is(err, ErrConfiguration)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
