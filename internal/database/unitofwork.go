package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hotelmunich/reservations-backend/internal/models"
	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// RetryPolicy bounds how long a write unit of work may fight transient
// lock contention before surfacing ErrBusy to the caller.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// DefaultRetryPolicy matches the configured defaults: 5 attempts with a
// 50ms backoff doubled per attempt, on top of the driver busy timeout.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 5, BaseBackoff: 50 * time.Millisecond}

// UnitOfWork runs fn inside one atomic write transaction. The transaction
// takes the writer lock at BEGIN (immediate mode), so fn observes a state
// no concurrent writer can change under it; overlap re-checks inside fn
// close the validate-then-commit race window.
//
// Transient SQLITE_BUSY/SQLITE_LOCKED failures retry the whole unit with
// backoff. Business errors returned by fn roll back and propagate
// unchanged; no partial state ever survives a failed unit.
func UnitOfWork(ctx context.Context, db DB, policy RetryPolicy, fn func(tx *sqlx.Tx) error) error {
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := policy.BaseBackoff << (attempt - 1)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := runOnce(db, fn)
		if err == nil {
			return nil
		}
		if !isBusy(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%w: %v", models.ErrBusy, lastErr)
}

func runOnce(db DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isBusy reports whether err is transient lock contention worth retrying
func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// IsUniqueConstraint reports whether err is a UNIQUE constraint violation
func IsUniqueConstraint(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// IsForeignKeyViolation reports whether err is a FOREIGN KEY violation,
// raised when a mutation references a missing row or a delete would orphan
// referencing rows.
func IsForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}
