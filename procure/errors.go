/*
errors.go - Centralized error taxonomy for the procurement engine

PURPOSE:
  All engine errors in one place. Every failure of a Ledger or Bundler
  operation is one of six categories, so the presentation layer can map
  errors to user-visible messages (and HTTP statuses) without inspecting
  strings.

ERROR CATEGORIES:
  1. Validation   - malformed or missing required input
  2. Permission   - role lacks the capability for the action
  3. NotFound     - referenced requisition or PO does not exist
  4. InvalidTransition - action not legal from the entity's current status
  5. InvalidSelection  - PO-bundling precondition violated by the selection
  6. Store        - persistence/commit failure (partial batch = full failure)

USAGE:
  Check categories with errors.Is against the sentinels, or errors.As
  against the structured types for context:

    var sel *procure.InvalidSelectionError
    if errors.As(err, &sel) {
        // sel.Offending lists the disqualifying requisitions
    }

SEE ALSO:
  - ledger.go, bundler.go: Producers of these errors
  - api/handlers.go: HTTP status mapping
*/
package procure

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed or missing required input.
	// Validation failures are surfaced to the caller, never persisted.
	ErrValidation = errors.New("validation failed")

	// ErrPermission is returned when the acting role lacks the capability
	// for the requested action.
	ErrPermission = errors.New("permission denied")

	// ErrNotFound is returned when a referenced requisition or purchase
	// order does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when an action is not legal from the
	// entity's current status. The entity is left unchanged.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidSelection is returned when a PO bundle selection contains a
	// requisition that is not approved. The whole batch is refused.
	ErrInvalidSelection = errors.New("invalid bundle selection")

	// ErrStore is returned for persistence failures. A failed batch commit
	// is guaranteed to have applied nothing.
	ErrStore = errors.New("store failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which field of the submitted form is unacceptable.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// PermissionError reports which capability the acting role was missing.
type PermissionError struct {
	Role   Role
	Action string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("role %q may not %s", e.Role, e.Action)
}

func (e *PermissionError) Unwrap() error { return ErrPermission }

// NotFoundError reports a missing entity by kind and id.
type NotFoundError struct {
	Kind string // "requisition" or "purchase order"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidTransitionError reports an action attempted from an illegal status.
type InvalidTransitionError struct {
	ID     RequisitionID
	From   RequisitionStatus
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("requisition %s: cannot %s from status %q", e.ID, e.Action, e.From)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// InvalidSelectionError lists the requisitions that disqualified a bundle.
// The precondition is all-or-nothing: one disqualifying requisition refuses
// the entire selection.
type InvalidSelectionError struct {
	Offending map[RequisitionID]RequisitionStatus
}

func (e *InvalidSelectionError) Error() string {
	parts := make([]string, 0, len(e.Offending))
	for id, status := range e.Offending {
		parts = append(parts, fmt.Sprintf("%s (%s)", id, status))
	}
	return "selection contains unapproved requisitions: " + strings.Join(parts, ", ")
}

func (e *InvalidSelectionError) Unwrap() error { return ErrInvalidSelection }

// StoreError wraps an underlying persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return ErrStore }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input or
// state, as opposed to an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrPermission) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrInvalidSelection)
}
