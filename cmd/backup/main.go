package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hotelmunich/reservations-backend/internal/config"
	"github.com/hotelmunich/reservations-backend/internal/database"
	"github.com/hotelmunich/reservations-backend/internal/services"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	var kindFlag string
	var listFlag bool
	flag.StringVar(&kindFlag, "kind", "daily", "snapshot kind: daily or weekly")
	flag.BoolVar(&listFlag, "list", false, "list existing backups instead of taking one")
	flag.Parse()

	// Try loading .env from current working directory (optional)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{})

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	auditRepo := database.NewAuditRepository(db)
	backupService := services.NewBackupService(
		db,
		auditRepo,
		cfg.Backup.Directory,
		cfg.Backup.DailyRetention,
		cfg.Backup.WeeklyRetention,
		logger,
	)

	if listFlag {
		backups, err := backupService.List()
		if err != nil {
			log.Fatalf("failed to list backups: %v", err)
		}
		if len(backups) == 0 {
			fmt.Println("No backups found.")
			return
		}
		for _, b := range backups {
			fmt.Printf("%-10s %-40s %10d bytes  %s\n", b.Kind, b.Name, b.SizeBytes, b.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return
	}

	kind := services.BackupDaily
	switch kindFlag {
	case "daily":
	case "weekly":
		kind = services.BackupWeekly
	default:
		fmt.Fprintln(os.Stderr, "kind must be daily or weekly")
		os.Exit(2)
	}

	info, err := backupService.Snapshot(context.Background(), kind)
	if err != nil {
		log.Fatalf("backup failed: %v", err)
	}

	fmt.Printf("Backup written: %s (%d bytes)\n", info.Path, info.SizeBytes)
}
