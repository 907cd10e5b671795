// Package store persists small pieces of user state in SQLite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/randytsao24/ctaglass/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// DB wraps a SQLite connection with write serialization
type DB struct {
	conn    *sql.DB
	writeMu sync.Mutex
	logger  *slog.Logger
	now     func() time.Time
}

// Connect opens (creating if needed) the database at dbPath
func Connect(ctx context.Context, dbPath string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "store"))

	if dbPath != MemoryPath {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite has a single writer, and each new connection to
	// :memory: would see an empty database
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.PingContext(ctx); err != nil {
		logging.SafeCloseWithLogging(conn, logger, "close after failed ping")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.LogOperation(logger, "database_connected", slog.String("path", dbPath))
	return &DB{conn: conn, logger: logger, now: time.Now}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// EnsureSchema creates tables if they don't exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	if _, err := db.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
