package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"kindle-sync/feature/library/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Well-known metadata keys.
const (
	metaLastSync          = "last_sync"
	metaLastStatus        = "last_status"
	metaAuthFailureStreak = "auth_failure_streak"
	metaExportDirectory   = "export_directory"
)

// sessionEntry is a row of the session key-value area (cookies, region).
type sessionEntry struct {
	Key       string    `gorm:"primaryKey"`
	Value     string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (sessionEntry) TableName() string { return "session" }

// metadataEntry is a row of the run-metadata key-value area.
type metadataEntry struct {
	Key       string    `gorm:"primaryKey"`
	Value     string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (metadataEntry) TableName() string { return "sync_metadata" }

// SaveSession upserts one session value.
func (s *Store) SaveSession(ctx context.Context, key, value string) error {
	entry := sessionEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to save session key %s: %w", key, err)
	}
	return nil
}

// GetSession returns a session value, or "" when absent.
func (s *Store) GetSession(ctx context.Context, key string) (string, error) {
	var entry sessionEntry
	err := s.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session key %s: %w", key, err)
	}
	return entry.Value, nil
}

// ClearSession drops every stored session value.
func (s *Store) ClearSession(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&sessionEntry{}).Error; err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *Store) setMeta(ctx context.Context, key, value string) error {
	entry := metadataEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to save metadata key %s: %w", key, err)
	}
	return nil
}

func (s *Store) getMeta(ctx context.Context, key string) (string, error) {
	var entry metadataEntry
	err := s.db.WithContext(ctx).First(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read metadata key %s: %w", key, err)
	}
	return entry.Value, nil
}

// LastSync returns the timestamp of the last run that made progress,
// or nil when no run has completed yet.
func (s *Store) LastSync(ctx context.Context) (*time.Time, error) {
	raw, err := s.getMeta(ctx, metaLastSync)
	if err != nil || raw == "" {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, nil
	}
	return &t, nil
}

// SetLastSync records the timestamp of a completed run.
func (s *Store) SetLastSync(ctx context.Context, t time.Time) error {
	return s.setMeta(ctx, metaLastSync, t.Format(time.RFC3339))
}

// LastStatus returns the outcome of the most recent run.
func (s *Store) LastStatus(ctx context.Context) (string, error) {
	return s.getMeta(ctx, metaLastStatus)
}

// SetLastStatus records the outcome of a run.
func (s *Store) SetLastStatus(ctx context.Context, status string) error {
	return s.setMeta(ctx, metaLastStatus, status)
}

// AuthFailureStreak returns the consecutive authentication-failure
// counter.
func (s *Store) AuthFailureStreak(ctx context.Context) (int, error) {
	raw, err := s.getMeta(ctx, metaAuthFailureStreak)
	if err != nil || raw == "" {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// SetAuthFailureStreak stores the consecutive authentication-failure
// counter.
func (s *Store) SetAuthFailureStreak(ctx context.Context, n int) error {
	return s.setMeta(ctx, metaAuthFailureStreak, strconv.Itoa(n))
}

// ExportDirectory returns the configured export directory, or "".
func (s *Store) ExportDirectory(ctx context.Context) (string, error) {
	return s.getMeta(ctx, metaExportDirectory)
}

// SetExportDirectory stores the export directory.
func (s *Store) SetExportDirectory(ctx context.Context, dir string) error {
	return s.setMeta(ctx, metaExportDirectory, dir)
}

// Stats summarizes the store for the status surfaces.
type Stats struct {
	Books      int64      `json:"total_books"`
	Highlights int64      `json:"total_highlights"`
	LastSync   *time.Time `json:"last_sync,omitempty"`
	LastStatus string     `json:"last_status,omitempty"`
}

// Statistics returns aggregate counts plus the last-run bookkeeping.
func (s *Store) Statistics(ctx context.Context) (*Stats, error) {
	var stats Stats

	if err := s.db.WithContext(ctx).Model(&models.Book{}).Count(&stats.Books).Error; err != nil {
		return nil, fmt.Errorf("failed to count books: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Highlight{}).Count(&stats.Highlights).Error; err != nil {
		return nil, fmt.Errorf("failed to count highlights: %w", err)
	}

	lastSync, err := s.LastSync(ctx)
	if err != nil {
		return nil, err
	}
	stats.LastSync = lastSync

	stats.LastStatus, err = s.LastStatus(ctx)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
