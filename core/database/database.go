package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the SQLite database and returns a *gorm.DB handle.
//
// Foreign keys are switched on so highlight rows are cascade-deleted
// with their book, and a busy timeout keeps concurrent short-lived
// handles (CLI and web surface outside a sync run) from failing fast
// on a locked file.
func Connect(cfg Config) (*gorm.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	// Suppress GORM logging; the application logger reports outcomes.
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// SQLite has a single writer; one connection avoids lock churn
	// between the pool's handles.
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// buildDSN expands the configured path, creates its parent directory
// and appends the connection pragmas.
func buildDSN(cfg Config) (string, error) {
	path := cfg.Path

	if path != ":memory:" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", err
		}
		path = expanded

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	timeout := cfg.BusyTimeoutMillis
	if timeout <= 0 {
		timeout = 10000
	}

	return fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=%d&_journal_mode=WAL", path, timeout), nil
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
