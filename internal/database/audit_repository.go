package database

import (
	"fmt"
	"time"
)

// AuditEntry is one durable audit record: logins, cancellations, backup
// outcomes. Audit rows are append-only.
type AuditEntry struct {
	ID         int64     `db:"id"`
	UserID     *int64    `db:"user_id"`
	Action     string    `db:"action"`
	EntityType string    `db:"entity_type"`
	EntityID   *string   `db:"entity_id"`
	IPAddress  string    `db:"ip_address"`
	UserAgent  string    `db:"user_agent"`
	Detail     string    `db:"detail"`
	CreatedAt  time.Time `db:"created_at"`
}

// AuditRepository handles database operations for the audit_logs table
type AuditRepository struct {
	db DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append writes one audit entry
func (r *AuditRepository) Append(entry AuditEntry) error {
	_, err := r.db.Exec(`
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, ip_address, user_agent, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.UserID, entry.Action, entry.EntityType, entry.EntityID,
		entry.IPAddress, entry.UserAgent, entry.Detail)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// RecentByAction returns the latest entries for one action, newest first
func (r *AuditRepository) RecentByAction(action string, limit int) ([]AuditEntry, error) {
	entries := []AuditEntry{}
	err := r.db.Select(&entries, `
		SELECT id, user_id, action, entity_type, entity_id, ip_address, user_agent, detail, created_at
		FROM audit_logs
		WHERE action = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, action, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}
