package services

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron      *cron.Cron
	backupSvc *BackupService
	schedule  string
	logger    *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(backupSvc *BackupService, schedule string, logger *logrus.Logger) *CronService {
	// Cron with seconds precision, format: second minute hour day month weekday
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:      c,
		backupSvc: backupSvc,
		schedule:  schedule,
		logger:    logger,
	}
}

// Start registers and starts all scheduled jobs
func (s *CronService) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.backupJob)
	if err != nil {
		return fmt.Errorf("failed to schedule backup job: %w", err)
	}
	s.logger.WithField("schedule", s.schedule).Info("Scheduled nightly backup")

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) backupJob() {
	s.logger.Info("Nightly backup job starting")
	s.backupSvc.RunScheduled(context.Background())
}

// RunBackupNow triggers the backup job immediately
func (s *CronService) RunBackupNow() {
	s.backupJob()
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
