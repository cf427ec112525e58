package services

import (
	"fmt"

	"github.com/eventra/eventra_backend/models"
)

// DuplicateAttributionError signals a second "sale completed" delivery for an
// order that is already attributed. Recoverable: callers get the existing
// attribution back instead of a new one.
type DuplicateAttributionError struct {
	OrderID  string
	Existing *models.SalesAttribution
}

func (e *DuplicateAttributionError) Error() string {
	return fmt.Sprintf("order %s is already attributed", e.OrderID)
}

// ConfigurationError signals an organizer-side misconfiguration (tier table
// gap, missing commission config). Fatal to the request; surfaced to the
// organizer, never retried automatically.
type ConfigurationError struct {
	OrganizerID string
	Reason      string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("commission configuration error for organizer %s: %s", e.OrganizerID, e.Reason)
}

// InvalidRecordStateError signals a ledger transition that is not allowed
// from the record's current state. For batch operations BlockedRecords lists
// every record that blocked the batch.
type InvalidRecordStateError struct {
	RecordID       string
	CurrentStatus  string
	AttemptedState string
	BlockedRecords []string
}

func (e *InvalidRecordStateError) Error() string {
	if len(e.BlockedRecords) > 0 {
		return fmt.Sprintf("records blocked the operation: %v", e.BlockedRecords)
	}
	return fmt.Sprintf("record %s cannot move from %s to %s", e.RecordID, e.CurrentStatus, e.AttemptedState)
}

// SerializationConflictError signals that the sale transaction kept colliding
// with concurrent sales on the same limit/tier counters after bounded
// retries. Transient; the caller may redeliver the event.
type SerializationConflictError struct {
	Attempts int
	Err      error
}

func (e *SerializationConflictError) Error() string {
	return fmt.Sprintf("transaction aborted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *SerializationConflictError) Unwrap() error { return e.Err }

// InsufficientDataError signals a malformed upstream sale event. Rejected,
// not retried; the producer has to fix the payload.
type InsufficientDataError struct {
	Field  string
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("sale event field %q: %s", e.Field, e.Reason)
}
