package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the reservation core. Handlers map these to HTTP
// status codes; services return them wrapped with context.
var (
	// ErrNotFound indicates the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates the operation lost a race to another writer,
	// e.g. a conflicting reservation committed between validation and the
	// in-transaction re-check. The caller should refresh and retry.
	ErrConflict = errors.New("conflicting reservation for room")

	// ErrBusy indicates the store reported transient write contention and
	// the retry budget was exhausted. The whole action can be retried later.
	ErrBusy = errors.New("store busy, retry budget exhausted")

	// ErrInvalidTransition indicates a status change not allowed from the
	// reservation's current state.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrBackupInFlight indicates a snapshot was requested while another
	// snapshot is still running. Snapshots are never queued.
	ErrBackupInFlight = errors.New("backup already in flight")

	// ErrRoomArchived indicates a reservation targeted an archived room.
	ErrRoomArchived = errors.New("room is archived")
)

// ValidationError names the first business rule a draft violated.
// Validation is fail-fast: one field at a time, the way a receptionist
// corrects a form.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// BackupError reports a failed snapshot attempt. Backup failures are
// logged and surfaced on the admin path only; they never interrupt the
// booking flow.
type BackupError struct {
	Stage string // "prepare", "vacuum", "verify", "publish"
	Err   error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup failed during %s: %v", e.Stage, e.Err)
}

func (e *BackupError) Unwrap() error {
	return e.Err
}
