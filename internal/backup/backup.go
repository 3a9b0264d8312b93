// Package backup snapshots the practice database to S3-compatible storage on
// a cron schedule.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/robfig/cron/v3"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds backup manager configuration.
type Config struct {
	S3            S3Config
	DBPath        string
	Schedule      string // cron expression
	RetentionDays int
	Passphrase    string // when set, snapshots are encrypted before upload
}

// State represents the backup manager state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

// Status holds the current backup manager status.
type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	LastKey    string     `json:"last_key,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// StatusCallback is called whenever the backup state changes.
type StatusCallback func(Status)

// Manager uploads database snapshots on a schedule and prunes old ones.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	status   Status
	callback StatusCallback
	logger   *slog.Logger

	db     *sql.DB
	client s3Client
	cron   *cron.Cron
}

// NewManager creates a backup manager. Without S3 credentials it stays
// disabled and every run is a no-op.
func NewManager(cfg Config, db *sql.DB, callback StatusCallback, logger *slog.Logger) *Manager {
	m := &Manager{
		cfg:      cfg,
		db:       db,
		callback: callback,
		logger:   logger,
		status:   Status{State: StateDisabled},
	}

	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}

	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Start schedules snapshots per the configured cron expression. No-op when
// the manager is disabled or the expression does not parse.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil || m.cron != nil {
		return
	}

	c := cron.New()
	_, err := c.AddFunc(m.cfg.Schedule, func() {
		if _, err := m.RunNow(ctx); err != nil {
			m.logger.Error("scheduled backup failed", "error", err)
		}
	})
	if err != nil {
		m.logger.Error("invalid backup schedule", "schedule", m.cfg.Schedule, "error", err)
		return
	}
	c.Start()
	m.cron = c
	m.logger.Info("backup schedule started", "schedule", m.cfg.Schedule)
}

// Stop cancels the schedule and waits for a running job to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// Status returns the current status.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	if s.LastBackup == nil {
		s.LastBackup = m.status.LastBackup
	}
	if s.LastKey == "" {
		s.LastKey = m.status.LastKey
	}
	m.status = s
	cb := m.callback
	m.mu.Unlock()

	if cb != nil {
		cb(s)
	}
}

// RunNow takes a consistent snapshot with VACUUM INTO, uploads it, and prunes
// snapshots older than the retention window. Returns the uploaded object key.
func (m *Manager) RunNow(ctx context.Context) (string, error) {
	m.mu.RLock()
	client := m.client
	bucket := m.cfg.S3.Bucket
	passphrase := m.cfg.Passphrase
	m.mu.RUnlock()

	if client == nil {
		return "", fmt.Errorf("backup not configured: S3 credentials missing")
	}

	m.setStatus(Status{State: StateRunning, InProgress: true})

	snapshot := filepath.Join(os.TempDir(), fmt.Sprintf("praxis-snapshot-%d.db", time.Now().UnixNano()))
	defer os.Remove(snapshot)

	// VACUUM INTO produces a consistent copy without blocking writers.
	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", snapshot); err != nil {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return "", fmt.Errorf("vacuum snapshot: %w", err)
	}

	ext := ".db"
	if passphrase != "" {
		encrypted := snapshot + ".enc"
		if err := EncryptFile(snapshot, encrypted, passphrase); err != nil {
			m.setStatus(Status{State: StateError, Error: err.Error()})
			return "", fmt.Errorf("encrypt snapshot: %w", err)
		}
		defer os.Remove(encrypted)
		snapshot = encrypted
		ext = ".db.enc"
	}

	f, err := os.Open(snapshot)
	if err != nil {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return "", fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return "", fmt.Errorf("stat snapshot: %w", err)
	}

	key := fmt.Sprintf("praxis/%s%s", time.Now().UTC().Format("2006-01-02T150405Z"), ext)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(stat.Size()),
	})
	if err != nil {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return "", fmt.Errorf("upload to s3: %w", err)
	}

	if err := m.prune(ctx, client, bucket); err != nil {
		m.logger.Error("pruning old snapshots failed", "error", err)
	}

	now := time.Now().UTC()
	m.setStatus(Status{State: StateIdle, LastBackup: &now, LastKey: key})
	m.logger.Info("backup uploaded", "key", key, "bytes", stat.Size())
	return key, nil
}

func (m *Manager) prune(ctx context.Context, client s3Client, bucket string) error {
	m.mu.RLock()
	retention := m.cfg.RetentionDays
	m.mu.RUnlock()
	if retention <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retention)

	out, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String("praxis/"),
	})
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}

	for _, obj := range out.Contents {
		if obj.LastModified == nil || !obj.LastModified.Before(cutoff) {
			continue
		}
		if err := m.deleteObject(ctx, client, bucket, obj); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) deleteObject(ctx context.Context, client s3Client, bucket string, obj types.Object) error {
	_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    obj.Key,
	})
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", aws.ToString(obj.Key), err)
	}
	return nil
}
