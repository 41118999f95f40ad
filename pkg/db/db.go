// Package db is the local SQLite file behind botctl: session preferences and
// bot drafts.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

// Database owns the SQL handle.
type Database struct {
	DB *sql.DB
}

// Open opens (creating it if needed) the file at path and migrates it.
// ":memory:" gives a private in-memory database.
func Open(path string) (*Database, error) {
	if path == "" {
		return nil, errors.New("database path is empty")
	}
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection: a second one to ":memory:" would see an empty database,
	// and a CLI never needs concurrent writers.
	sqlDB.SetMaxOpenConns(1)

	d := &Database{DB: sqlDB}
	if err := ApplyMigrations(d); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return d, nil
}

// Ping verifies the file is reachable.
func (d *Database) Ping(ctx context.Context) error {
	return d.DB.PingContext(ctx)
}

func (d *Database) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	return d.DB.Close()
}
