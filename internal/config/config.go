// Package config loads practice configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// S3 holds S3-compatible storage settings for database snapshots.
type S3 struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds all runtime configuration. All variables use the PRAXIS_
// prefix.
type Config struct {
	Port     string
	DBPath   string
	Timezone *time.Location

	LogLevel  string
	LogFormat string

	// Web push reminders.
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	PushContact     string
	ReminderLead    time.Duration

	// Scheduled snapshots.
	Backup           S3
	BackupSchedule   string
	BackupRetention  int
	BackupPassphrase string

	// Agenda incremental reveal.
	RevealInitial  int
	RevealStep     int
	RevealDebounce time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:            getenv("PRAXIS_PORT", "8080"),
		DBPath:          getenv("PRAXIS_DB_PATH", "praxis.db"),
		LogLevel:        getenv("PRAXIS_LOG_LEVEL", "info"),
		LogFormat:       getenv("PRAXIS_LOG_FORMAT", "text"),
		VAPIDPublicKey:  os.Getenv("PRAXIS_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("PRAXIS_VAPID_PRIVATE_KEY"),
		PushContact:     getenv("PRAXIS_PUSH_CONTACT", "mailto:noreply@praxis.local"),
		ReminderLead:    getduration("PRAXIS_REMINDER_LEAD", time.Hour),
		Backup: S3{
			Endpoint:  os.Getenv("PRAXIS_S3_ENDPOINT"),
			Bucket:    os.Getenv("PRAXIS_S3_BUCKET"),
			Region:    getenv("PRAXIS_S3_REGION", "auto"),
			AccessKey: os.Getenv("PRAXIS_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("PRAXIS_S3_SECRET_KEY"),
		},
		BackupSchedule:   getenv("PRAXIS_BACKUP_SCHEDULE", "0 3 * * *"),
		BackupRetention:  getint("PRAXIS_BACKUP_RETENTION_DAYS", 30),
		BackupPassphrase: os.Getenv("PRAXIS_BACKUP_PASSPHRASE"),
		RevealInitial:   getint("PRAXIS_REVEAL_INITIAL", 5),
		RevealStep:      getint("PRAXIS_REVEAL_STEP", 5),
		RevealDebounce:  getduration("PRAXIS_REVEAL_DEBOUNCE", 300*time.Millisecond),
	}

	tz := getenv("PRAXIS_TIMEZONE", "Local")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Config{}, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	cfg.Timezone = loc

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
