package db

import (
	"os"
	"path/filepath"
	"testing"
)

// newTestDatabase creates a migrated temp database for repository tests.
// The migrations path is relative to the package directory, which is the
// working directory under go test.
func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	config := DatabaseConfig{
		Path:           filepath.Join(t.TempDir(), "notes.db"),
		MigrationsPath: "file://migrations",
	}

	database, err := NewDatabaseWithConfig(config)
	if err != nil {
		t.Fatalf("NewDatabaseWithConfig() error = %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})

	if err := database.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	return database
}

func TestNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "notes.db")

	database, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	defer database.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
	if err := database.Ping(); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if got := database.Path(); got != path {
		t.Errorf("Path() = %q, want %q", got, path)
	}
}

func TestNewDatabaseWithConfig_EmptyPath(t *testing.T) {
	_, err := NewDatabaseWithConfig(DatabaseConfig{})
	if err == nil {
		t.Fatal("expected error for empty path, got nil")
	}
}

func TestDatabase_MigrateIsIdempotent(t *testing.T) {
	database := newTestDatabase(t)

	// Second run must report no change rather than fail
	if err := database.Migrate(); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	// Schema should be usable after migration
	for _, table := range []string{"users", "notes", "note_images", "generation_records"} {
		var count int
		err := database.QueryRow("SELECT COUNT(1) FROM " + table).Scan(&count)
		if err != nil {
			t.Errorf("table %s not queryable: %v", table, err)
		}
	}
}

func TestDatabase_CloseThenUse(t *testing.T) {
	database := newTestDatabase(t)

	if err := database.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := database.Exec("SELECT 1"); err == nil {
		t.Error("Exec() after Close should fail")
	}
	if err := database.Ping(); err == nil {
		t.Error("Ping() after Close should fail")
	}
}

func TestDatabase_Cleanup(t *testing.T) {
	database := newTestDatabase(t)

	_, err := database.Exec(`INSERT INTO users (id, email, password_hash) VALUES ('u1', 'a@b.c', 'x')`)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}

	// One stale row, one fresh row
	_, err = database.Exec(`
		INSERT INTO generation_records (id, user_id, note_id, date, prompt, image_url, success, created_at)
		VALUES ('old', 'u1', '', '2020-01-01', 'p', '', 1, datetime('now', '-120 days'))`)
	if err != nil {
		t.Fatalf("insert stale record: %v", err)
	}
	_, err = database.Exec(`
		INSERT INTO generation_records (id, user_id, note_id, date, prompt, image_url, success)
		VALUES ('new', 'u1', '', '2026-01-01', 'p', '', 1)`)
	if err != nil {
		t.Fatalf("insert fresh record: %v", err)
	}

	result, err := database.Cleanup(90)
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if result.GenerationRecordsDeleted != 1 {
		t.Errorf("GenerationRecordsDeleted = %d, want 1", result.GenerationRecordsDeleted)
	}
	if result.TotalDeleted != 1 {
		t.Errorf("TotalDeleted = %d, want 1", result.TotalDeleted)
	}

	var remaining string
	if err := database.QueryRow(`SELECT id FROM generation_records`).Scan(&remaining); err != nil {
		t.Fatalf("query remaining: %v", err)
	}
	if remaining != "new" {
		t.Errorf("remaining record = %q, want %q", remaining, "new")
	}
}

func TestDatabase_Cleanup_NegativeRetention(t *testing.T) {
	database := newTestDatabase(t)

	if _, err := database.Cleanup(-1); err == nil {
		t.Error("expected error for negative retention, got nil")
	}
}
