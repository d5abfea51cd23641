package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Backup   BackupConfig
	JWT      JWTConfig
	Security SecurityConfig
	CORS     CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds the SQLite store configuration
type DatabaseConfig struct {
	Path            string        // path to the store file, e.g. ./data/hotel.db
	BusyTimeout     time.Duration // driver-level wait on a locked store
	MaxRetries      int           // write retries after the driver timeout
	RetryBackoff    time.Duration // base backoff, doubled per attempt
	MaxConnections  int
	ConnMaxLifetime time.Duration
}

// BackupConfig holds hot-backup configuration
type BackupConfig struct {
	Directory       string
	Schedule        string // cron spec, seconds precision
	DailyRetention  int    // daily snapshots to keep
	WeeklyRetention int    // weekly snapshots to keep
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret             string
	RefreshSecret      string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost     int
	EnableAuditLog bool
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Path:            getEnv("DATABASE_PATH", "./data/hotel.db"),
			BusyTimeout:     time.Duration(getEnvAsInt("DATABASE_BUSY_TIMEOUT_MS", 5000)) * time.Millisecond,
			MaxRetries:      getEnvAsInt("DATABASE_WRITE_RETRIES", 5),
			RetryBackoff:    time.Duration(getEnvAsInt("DATABASE_RETRY_BACKOFF_MS", 50)) * time.Millisecond,
			MaxConnections:  getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			ConnMaxLifetime: time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Backup: BackupConfig{
			Directory: getEnv("BACKUP_DIR", "./backups"),
			// Daily at 3:00 AM, off-peak for a hotel front desk
			Schedule:        getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"),
			DailyRetention:  getEnvAsInt("BACKUP_DAILY_RETENTION", 7),
			WeeklyRetention: getEnvAsInt("BACKUP_WEEKLY_RETENTION", 4),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", ""),
			RefreshSecret:      getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenExpiry:  time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 28800)) * time.Second,
			RefreshTokenExpiry: time.Duration(getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRY", 604800)) * time.Second,
		},
		Security: SecurityConfig{
			BcryptCost:     getEnvAsInt("BCRYPT_COST", 10),
			EnableAuditLog: getEnvAsBool("ENABLE_AUDIT_LOG", true),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{getEnv("CORS_ALLOWED_ORIGIN", "*")},
		},
	}

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
