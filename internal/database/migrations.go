package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// migration is one forward schema step. Steps run in order inside a write
// transaction and are recorded in schema_migrations; the schema is never
// silently reshaped outside this path.
type migration struct {
	Version int
	Name    string
	Apply   func(tx *sqlx.Tx) error
}

var migrations = []migration{
	{Version: 1, Name: "create core tables", Apply: createCoreTables},
	{Version: 2, Name: "create audit log", Apply: createAuditLog},
	{Version: 3, Name: "seed rooms", Apply: seedRooms},
}

// Migrate brings the store schema up to date and seeds the default admin
// and reception users when the users table is empty. Safe to run on every
// startup; applied versions are skipped.
func Migrate(db DB, bcryptCost int) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		applied, err := migrationApplied(db, m.Version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		tx, err := db.Beginx()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}
		if err := m.Apply(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		if _, err := tx.Exec(
			`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
			m.Version, m.Name, time.Now().UTC().Format(time.RFC3339),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}
	}

	return seedDefaultUsers(db, bcryptCost)
}

func migrationApplied(db DB, version int) (bool, error) {
	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version); err != nil {
		return false, fmt.Errorf("failed to check migration %d: %w", version, err)
	}
	return count > 0, nil
}

func createCoreTables(tx *sqlx.Tx) error {
	schema := `
	CREATE TABLE users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL CHECK (role IN ('admin', 'reception')),
		real_name     TEXT NOT NULL DEFAULT '',
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE rooms (
		id        TEXT PRIMARY KEY,
		label     TEXT NOT NULL,
		category  TEXT NOT NULL DEFAULT 'Standard',
		base_rate REAL NOT NULL DEFAULT 0 CHECK (base_rate >= 0),
		archived  INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE guests (
		id              TEXT PRIMARY KEY,
		document_type   TEXT NOT NULL DEFAULT '',
		document_number TEXT NOT NULL UNIQUE,
		full_name       TEXT NOT NULL,
		nationality     TEXT NOT NULL DEFAULT '',
		vehicle_plate   TEXT,
		vehicle_brand   TEXT,
		billing_tax_id  TEXT,
		billing_name    TEXT,
		created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE reservations (
		id                  TEXT PRIMARY KEY,
		room_id             TEXT NOT NULL REFERENCES rooms(id) ON DELETE RESTRICT,
		guest_id            TEXT NOT NULL REFERENCES guests(id) ON DELETE RESTRICT,
		check_in            DATE NOT NULL,
		check_out           DATE NOT NULL,
		status              TEXT NOT NULL DEFAULT 'pending'
		                    CHECK (status IN ('pending', 'checked_in', 'checked_out', 'cancelled')),
		cancellation_reason TEXT,
		cancelled_by        TEXT,
		price               REAL NOT NULL DEFAULT 0 CHECK (price >= 0),
		contact_phone       TEXT,
		arrival_time        TEXT,
		created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		created_by          INTEGER NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
		CHECK (check_out > check_in)
	);

	CREATE INDEX idx_reservations_room_dates ON reservations(room_id, check_in, check_out);
	CREATE INDEX idx_reservations_status ON reservations(status);
	CREATE INDEX idx_guests_document ON guests(document_number);
	`
	_, err := tx.Exec(schema)
	return err
}

func createAuditLog(tx *sqlx.Tx) error {
	schema := `
	CREATE TABLE audit_logs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     INTEGER,
		action      TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id   TEXT,
		ip_address  TEXT NOT NULL DEFAULT '',
		user_agent  TEXT NOT NULL DEFAULT '',
		detail      TEXT NOT NULL DEFAULT '',
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX idx_audit_logs_action ON audit_logs(action, created_at);
	`
	_, err := tx.Exec(schema)
	return err
}

// seedRooms loads the hotel's fixed room inventory on first run
func seedRooms(tx *sqlx.Tx) error {
	var count int
	if err := tx.Get(&count, `SELECT COUNT(*) FROM rooms`); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	roomIDs := []string{
		"21", "22", "23", "24", "25", "26", "27", "28",
		"31", "32", "33", "34", "35", "36",
	}
	for _, id := range roomIDs {
		if _, err := tx.Exec(
			`INSERT INTO rooms (id, label, category, base_rate) VALUES (?, ?, 'Standard', 0)`,
			id, "Habitación "+id,
		); err != nil {
			return err
		}
	}
	return nil
}

// seedDefaultUsers creates the default admin and reception credentials
// when the users table is empty, so the system always has at least one
// admin. Idempotent: guarded by the emptiness check and run under the
// same transactional discipline as any other write.
func seedDefaultUsers(db DB, bcryptCost int) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin user seeding: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.Get(&count, `SELECT COUNT(*) FROM users`); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	defaults := []struct {
		username, password, role, realName string
	}{
		{"admin", "admin", "admin", "Administrador"},
		{"recepcion", "recepcion", "reception", "Recepción"},
	}
	for _, u := range defaults {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash default password: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO users (username, password_hash, role, real_name) VALUES (?, ?, ?, ?)`,
			u.username, string(hash), u.role, u.realName,
		); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.username, err)
		}
	}

	return tx.Commit()
}
