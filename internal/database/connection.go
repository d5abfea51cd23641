package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/hotelmunich/reservations-backend/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DB interface defines database operations
type DB interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
	Beginx() (*sqlx.Tx, error)
	Ping() error
	Close() error
}

// SQLiteDB implements the DB interface using sqlx over a single store file
type SQLiteDB struct {
	*sqlx.DB

	// Path is the resolved location of the store file; the backup
	// manager snapshots this file's logical content.
	Path string
}

// NewConnection opens the store file, creating its directory if needed.
//
// The DSN configures the concurrency discipline for the whole process:
// WAL journaling so readers never block on the single serialized writer,
// foreign keys enforced, a driver-level busy timeout before SQLITE_BUSY
// surfaces, and immediate transactions so every write tx takes the writer
// lock up front instead of failing on upgrade mid-transaction.
func NewConnection(cfg config.DatabaseConfig) (*SQLiteDB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?%s", cfg.Path, dsnParams(cfg).Encode())

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection pool serves every front-desk session; SQLite
	// serializes the writers, the pool just bounds open handles.
	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteDB{DB: db, Path: cfg.Path}, nil
}

func dsnParams(cfg config.DatabaseConfig) url.Values {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", fmt.Sprintf("%d", cfg.BusyTimeout.Milliseconds()))
	params.Set("_txlock", "immediate")
	params.Set("_synchronous", "NORMAL")
	return params
}

// Beginx starts a write transaction. With _txlock=immediate the writer
// lock is acquired at BEGIN, so a locked store fails here, not at commit.
func (db *SQLiteDB) Beginx() (*sqlx.Tx, error) {
	return db.DB.Beginx()
}
