/*
errors.go - Error types for the ledger engine

ERROR CATEGORIES:
  1. Snapshot errors - Import document could not be parsed or was not confirmed
  2. Reference errors - An id is missing or duplicated (strict mode only)
  3. Persistence warnings - Durable write failed; memory is still authoritative

USAGE:
  if err := ledger.RecordSale(ctx, tx); err != nil {
      if pharmacy.IsWarning(err) {
          // sale is recorded, only durability is degraded
      }
  }
*/
package pharmacy

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned in strict mode when an operation references
	// an id that is absent from its collection.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateID is returned in strict mode when an insert reuses an id.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrMalformedSnapshot is returned when a backup document cannot be parsed.
	// No collection is modified.
	ErrMalformedSnapshot = errors.New("malformed snapshot")

	// ErrImportNotConfirmed is returned when a restore is attempted without
	// explicit confirmation. Restores overwrite whole collections.
	ErrImportNotConfirmed = errors.New("import not confirmed")

	// ErrPersistence marks a failed durable write. It is never fatal.
	ErrPersistence = errors.New("persistence unavailable")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ReferenceError names the collection and id behind a strict-mode failure.
type ReferenceError struct {
	Collection Collection
	ID         string
	Err        error // ErrNotFound or ErrDuplicateID
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Collection, e.ID, e.Err)
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}

func notFound(c Collection, id string) error {
	return &ReferenceError{Collection: c, ID: id, Err: ErrNotFound}
}

func duplicate(c Collection, id string) error {
	return &ReferenceError{Collection: c, ID: id, Err: ErrDuplicateID}
}

// PersistenceWarning reports that an operation was applied in memory but
// could not be written to durable storage.
type PersistenceWarning struct {
	Op  string
	Err error
}

func (w *PersistenceWarning) Error() string {
	return fmt.Sprintf("%s: changes kept in memory only: %v", w.Op, w.Err)
}

func (w *PersistenceWarning) Unwrap() []error {
	return []error{ErrPersistence, w.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsWarning returns true if err only reports degraded durability.
func IsWarning(err error) bool {
	var w *PersistenceWarning
	return errors.As(err, &w)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMalformedSnapshot) ||
		errors.Is(err, ErrImportNotConfirmed) ||
		errors.Is(err, ErrDuplicateID)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
