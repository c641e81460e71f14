/*
errors.go - Centralized error types for the HR domain

PURPOSE:
  All domain error categories in one place. The HTTP layer maps these to
  status codes in a single switch; nothing else inspects error strings.

ERROR CATEGORIES:
  Validation - malformed input, rejected before any store or ledger I/O
  NotFound   - referenced entity absent, terminal for the request
  Conflict   - entity not in the expected state (already decided, wallet taken)

  Ledger-side failures live in the reconcile package (ErrUnavailable,
  WriteError) so that this package stays free of ledger concerns.

USAGE:
  if errors.Is(err, hr.ErrConflict) { ... }

SEE ALSO:
  - reconcile/gateway.go: Ledger error types
  - api/handlers.go: HTTP status mapping
*/
package hr

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrValidation is the root of all input validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when an entity is not in the state the
	// operation requires. Callers must not retry with the same arguments.
	ErrConflict = errors.New("conflict with current state")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a specific invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConflictError reports a state precondition failure, e.g. deciding a
// request that is no longer PENDING.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// WalletTakenError reports a wallet-uniqueness violation: the address is
// already bound to a different Participant.
type WalletTakenError struct {
	Wallet  string
	BoundTo string
}

func (e *WalletTakenError) Error() string {
	return fmt.Sprintf("wallet %s already bound to participant %s", e.Wallet, e.BoundTo)
}

func (e *WalletTakenError) Unwrap() error { return ErrConflict }
