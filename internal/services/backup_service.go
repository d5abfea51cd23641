package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hotelmunich/reservations-backend/internal/database"
	"github.com/hotelmunich/reservations-backend/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// BackupKind distinguishes the retention class of a snapshot
type BackupKind string

const (
	BackupDaily  BackupKind = "daily"
	BackupWeekly BackupKind = "weekly"
)

// BackupInfo describes one snapshot file on disk
type BackupInfo struct {
	Name      string     `json:"name"`
	Path      string     `json:"path"`
	Kind      BackupKind `json:"kind"`
	SizeBytes int64      `json:"size_bytes"`
	CreatedAt time.Time  `json:"created_at"`
}

// BackupService produces consistent snapshots of the live database while
// writers keep running. A snapshot is written to a temporary file first,
// verified, and only then renamed into place, so the backup directory
// never contains a partial or corrupt file.
type BackupService struct {
	db     database.DB
	audit  *database.AuditRepository
	logger *logrus.Logger

	directory       string
	dailyRetention  int
	weeklyRetention int

	mu       sync.Mutex
	inFlight bool
}

// NewBackupService creates a new BackupService
func NewBackupService(db database.DB, audit *database.AuditRepository, directory string, dailyRetention, weeklyRetention int, logger *logrus.Logger) *BackupService {
	return &BackupService{
		db:              db,
		audit:           audit,
		logger:          logger,
		directory:       directory,
		dailyRetention:  dailyRetention,
		weeklyRetention: weeklyRetention,
	}
}

// Snapshot takes one verified snapshot of the given kind. Only one
// snapshot runs at a time; a second caller gets ErrBackupInFlight
// instead of queuing.
func (s *BackupService) Snapshot(ctx context.Context, kind BackupKind) (*BackupInfo, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, models.ErrBackupInFlight
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	started := time.Now().UTC()
	info, err := s.snapshot(ctx, kind, started)
	if err != nil {
		s.logger.WithError(err).WithField("kind", kind).Error("Backup failed")
		s.auditBackup(kind, "", false, err)
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"kind":       kind,
		"file":       info.Name,
		"size_bytes": info.SizeBytes,
		"elapsed":    time.Since(started).String(),
	}).Info("Backup completed")
	s.auditBackup(kind, info.Name, true, nil)

	if err := s.Prune(); err != nil {
		s.logger.WithError(err).Warn("Backup retention sweep failed")
	}

	return info, nil
}

func (s *BackupService) snapshot(ctx context.Context, kind BackupKind, now time.Time) (*BackupInfo, error) {
	if err := os.MkdirAll(s.directory, 0o755); err != nil {
		return nil, &models.BackupError{Stage: "prepare", Err: err}
	}

	finalName := s.fileName(kind, now)
	finalPath := filepath.Join(s.directory, finalName)
	tempPath := finalPath + ".tmp"

	// A stale temp file from a crashed run would make VACUUM INTO fail.
	if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
		return nil, &models.BackupError{Stage: "prepare", Err: err}
	}

	// VACUUM INTO reads a consistent view of the database without
	// blocking concurrent writers.
	if _, err := s.db.Exec("VACUUM INTO ?", tempPath); err != nil {
		os.Remove(tempPath)
		return nil, &models.BackupError{Stage: "vacuum", Err: err}
	}

	if err := verifySnapshot(ctx, tempPath); err != nil {
		os.Remove(tempPath)
		return nil, &models.BackupError{Stage: "verify", Err: err}
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return nil, &models.BackupError{Stage: "publish", Err: err}
	}

	stat, err := os.Stat(finalPath)
	if err != nil {
		return nil, &models.BackupError{Stage: "publish", Err: err}
	}

	return &BackupInfo{
		Name:      finalName,
		Path:      finalPath,
		Kind:      kind,
		SizeBytes: stat.Size(),
		CreatedAt: now,
	}, nil
}

// fileName encodes the kind and capture time. Weekly snapshots are keyed
// by ISO week so a rerun in the same week replaces the previous file.
func (s *BackupService) fileName(kind BackupKind, now time.Time) string {
	if kind == BackupWeekly {
		year, week := now.ISOWeek()
		return fmt.Sprintf("hotel_weekly_%d-W%02d.db", year, week)
	}
	return fmt.Sprintf("hotel_daily_%s_%s.db", now.Format("2006-01-02"), now.Format("150405"))
}

// verifySnapshot opens the snapshot read-only and runs an integrity
// check before the file is published.
func verifySnapshot(ctx context.Context, path string) error {
	db, err := sqlx.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.GetContext(ctx, &result, "PRAGMA integrity_check"); err != nil {
		return fmt.Errorf("integrity check failed to run: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check reported: %s", result)
	}
	return nil
}

// List returns the snapshots currently on disk, newest first
func (s *BackupService) List() ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.directory)
	if err != nil {
		if os.IsNotExist(err) {
			return []BackupInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		var kind BackupKind
		switch {
		case strings.HasPrefix(entry.Name(), "hotel_daily_"):
			kind = BackupDaily
		case strings.HasPrefix(entry.Name(), "hotel_weekly_"):
			kind = BackupWeekly
		default:
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Name:      entry.Name(),
			Path:      filepath.Join(s.directory, entry.Name()),
			Kind:      kind,
			SizeBytes: info.Size(),
			CreatedAt: info.ModTime().UTC(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Prune deletes snapshots beyond the retention window, per kind
func (s *BackupService) Prune() error {
	backups, err := s.List()
	if err != nil {
		return err
	}

	pruned := 0
	pruned += s.pruneKind(backups, BackupDaily, s.dailyRetention)
	pruned += s.pruneKind(backups, BackupWeekly, s.weeklyRetention)

	if pruned > 0 {
		s.logger.WithField("pruned", pruned).Info("Old backups removed")
	}
	return nil
}

func (s *BackupService) pruneKind(backups []BackupInfo, kind BackupKind, keep int) int {
	seen := 0
	pruned := 0
	for _, b := range backups {
		if b.Kind != kind {
			continue
		}
		seen++
		if seen <= keep {
			continue
		}
		if err := os.Remove(b.Path); err != nil {
			s.logger.WithError(err).WithField("file", b.Name).Warn("Failed to remove old backup")
			continue
		}
		pruned++
	}
	return pruned
}

// RunScheduled is the cron entrypoint. It takes a daily snapshot every
// run and additionally a weekly one on Sundays.
func (s *BackupService) RunScheduled(ctx context.Context) {
	if _, err := s.Snapshot(ctx, BackupDaily); err != nil {
		s.logger.WithError(err).Error("Scheduled daily backup failed")
	}
	if time.Now().UTC().Weekday() == time.Sunday {
		if _, err := s.Snapshot(ctx, BackupWeekly); err != nil {
			s.logger.WithError(err).Error("Scheduled weekly backup failed")
		}
	}
}

func (s *BackupService) auditBackup(kind BackupKind, file string, success bool, cause error) {
	action := "backup_failed"
	detail := fmt.Sprintf("kind=%s", kind)
	if success {
		action = "backup"
		detail = fmt.Sprintf("kind=%s file=%s", kind, file)
	} else if cause != nil {
		detail = fmt.Sprintf("kind=%s error=%v", kind, cause)
	}

	entry := database.AuditEntry{
		Action:     action,
		EntityType: "backup",
		Detail:     detail,
	}
	if err := s.audit.Append(entry); err != nil {
		s.logger.WithError(err).Warn("Failed to write backup audit entry")
	}
}
