package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file" // File source driver
)

// MigrationConfig holds configuration for running migrations.
type MigrationConfig struct {
	// MigrationsPath is the path to the migrations directory (e.g., "file://db/migrations")
	MigrationsPath string
	// DatabaseName is used by golang-migrate for internal tracking (default: "main")
	DatabaseName string
}

// DefaultMigrationConfig returns sensible defaults for migration configuration.
func DefaultMigrationConfig(migrationsPath string) MigrationConfig {
	return MigrationConfig{
		MigrationsPath: migrationsPath,
		DatabaseName:   "main",
	}
}

// MigrateUp applies all pending up migrations.
// migrate.ErrNoChange is handled gracefully: no pending migrations is not an
// error.
//
// IMPORTANT: the migrator takes ownership of the connection and closes it
// when complete. Do not use db after this call; prefer MigrateUpFromPath.
func MigrateUp(db *sql.DB, migrationsPath string) error {
	m, err := newMigrator(db, DefaultMigrationConfig(migrationsPath))
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// MigrateUpFromPath applies all pending migrations using a database path.
// This is the recommended approach as it manages its own connection
// lifecycle.
//
// Example:
//
//	err := MigrateUpFromPath("./data/notes.db", "file://db/migrations")
func MigrateUpFromPath(dbPath, migrationsPath string) error {
	db, err := NewSQLiteConnectionWithDefaults(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// no defer: MigrateUp closes via migrator.Close()

	return MigrateUp(db, migrationsPath)
}

// MigrateDown rolls back migrations by the given number of steps; -1 rolls
// back everything. Takes ownership of the connection like MigrateUp.
func MigrateDown(db *sql.DB, migrationsPath string, steps int) error {
	m, err := newMigrator(db, DefaultMigrationConfig(migrationsPath))
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	var migrateErr error
	if steps == -1 {
		migrateErr = m.Down()
	} else {
		migrateErr = m.Steps(-steps)
	}

	if migrateErr != nil {
		if errors.Is(migrateErr, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("failed to roll back migrations: %w", migrateErr)
	}

	return nil
}

// MigrateDownFromPath rolls back migrations using a database path.
func MigrateDownFromPath(dbPath, migrationsPath string, steps int) error {
	db, err := NewSQLiteConnectionWithDefaults(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	return MigrateDown(db, migrationsPath, steps)
}

// GetMigrationVersionFromPath returns the current migration version and
// dirty state. Version 0 with dirty=false means no migrations applied yet.
// The dirty flag indicates a migration failed partway through and manual
// intervention may be required.
func GetMigrationVersionFromPath(dbPath, migrationsPath string) (uint, bool, error) {
	db, err := NewSQLiteConnectionWithDefaults(dbPath)
	if err != nil {
		return 0, false, fmt.Errorf("failed to open database: %w", err)
	}

	m, err := newMigrator(db, DefaultMigrationConfig(migrationsPath))
	if err != nil {
		return 0, false, fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}

	return version, dirty, nil
}

// newMigrator creates a migrate.Migrate instance for the given connection.
// The returned migrator owns the connection; migrator.Close() closes it.
func newMigrator(db *sql.DB, config MigrationConfig) (*migrate.Migrate, error) {
	if db == nil {
		return nil, errors.New("database connection is required")
	}
	if config.MigrationsPath == "" {
		return nil, errors.New("migrations path is required")
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{
		DatabaseName: config.DatabaseName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		config.MigrationsPath,
		"sqlite",
		driver,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return m, nil
}
