package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Database manages the SQLite connection lifecycle for the notes service:
// WAL-mode connection, migrations, and graceful close. Repositories take a
// *Database and use its query helpers.
//
// Usage:
//
//	database, err := NewDatabase("./data/notes.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer database.Close()
//
//	notes := NewNotesRepository(database)
type Database struct {
	db             *sql.DB
	path           string
	migrationsPath string
	mu             sync.RWMutex
}

// DatabaseConfig holds configuration for the Database.
type DatabaseConfig struct {
	// Path is the database file path
	Path string
	// MigrationsPath is the migrations directory in file:// URL format
	// (default: "file://db/migrations")
	MigrationsPath string
	// ConnectionConfig allows customizing the SQLite connection
	ConnectionConfig *ConnectionConfig
}

// DefaultDatabaseConfig returns sensible defaults for the database.
func DefaultDatabaseConfig(path string) DatabaseConfig {
	return DatabaseConfig{
		Path:             path,
		MigrationsPath:   "file://db/migrations",
		ConnectionConfig: nil, // use defaults
	}
}

// NewDatabase creates a Database with default configuration. The database
// file and its parent directories are created if they don't exist.
func NewDatabase(path string) (*Database, error) {
	return NewDatabaseWithConfig(DefaultDatabaseConfig(path))
}

// NewDatabaseWithConfig creates a Database with custom configuration.
//
// Example:
//
//	config := DatabaseConfig{
//	    Path:           "./data/notes.db",
//	    MigrationsPath: "file://custom/migrations",
//	}
//	database, err := NewDatabaseWithConfig(config)
func NewDatabaseWithConfig(config DatabaseConfig) (*Database, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	dir := filepath.Dir(config.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	var connConfig ConnectionConfig
	if config.ConnectionConfig != nil {
		connConfig = *config.ConnectionConfig
	} else {
		connConfig = DefaultConnectionConfig(config.Path)
	}

	conn, err := NewSQLiteConnection(connConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	migrationsPath := config.MigrationsPath
	if migrationsPath == "" {
		migrationsPath = "file://db/migrations"
	}

	return &Database{
		db:             conn,
		path:           config.Path,
		migrationsPath: migrationsPath,
	}, nil
}

// Migrate runs all pending database migrations. Safe to call multiple times.
//
// golang-migrate takes ownership of the connection it is given, so this uses
// the path-based runner which manages a separate connection.
func (d *Database) Migrate() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := MigrateUpFromPath(d.path, d.migrationsPath); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// DB returns the underlying sql.DB for use by repositories.
// Do not close it directly; use Database.Close().
func (d *Database) DB() *sql.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.path
}

// Close gracefully closes the database connection. The Database must not be
// used afterwards.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}

	if err := d.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	d.db = nil
	return nil
}

// Ping verifies the database connection is alive. Useful for health checks.
func (d *Database) Ping() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return fmt.Errorf("database connection is closed")
	}

	return d.db.Ping()
}

// Stats returns connection pool statistics.
func (d *Database) Stats() sql.DBStats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return sql.DBStats{}
	}

	return d.db.Stats()
}

// Exec executes a query without returning any rows.
func (d *Database) Exec(query string, args ...interface{}) (sql.Result, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return nil, fmt.Errorf("database connection is closed")
	}

	return d.db.Exec(query, args...)
}

// Query executes a query that returns rows.
func (d *Database) Query(query string, args ...interface{}) (*sql.Rows, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return nil, fmt.Errorf("database connection is closed")
	}

	return d.db.Query(query, args...)
}

// QueryRow executes a query that returns at most one row.
func (d *Database) QueryRow(query string, args ...interface{}) *sql.Row {
	d.mu.RLock()
	defer d.mu.RUnlock()

	// QueryRow defers errors to Scan
	return d.db.QueryRow(query, args...)
}

// Begin starts a new transaction.
func (d *Database) Begin() (*sql.Tx, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.db == nil {
		return nil, fmt.Errorf("database connection is closed")
	}

	return d.db.Begin()
}
