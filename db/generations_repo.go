package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// GenerationsRepository records image-generation attempts for rate limiting
// and history. Inserts can go through an optional AsyncWriter so bookkeeping
// never blocks the pipeline.
type GenerationsRepository struct {
	db          *Database
	asyncWriter *AsyncWriter
}

// NewGenerationsRepository creates a GenerationsRepository with synchronous
// writes.
func NewGenerationsRepository(database *Database) *GenerationsRepository {
	return &GenerationsRepository{db: database}
}

// NewGenerationsRepositoryWithAsyncWriter creates a GenerationsRepository
// that queues inserts on the given writer. The writer must be started by the
// caller.
func NewGenerationsRepositoryWithAsyncWriter(database *Database, writer *AsyncWriter) *GenerationsRepository {
	return &GenerationsRepository{db: database, asyncWriter: writer}
}

// NewGenerationWriteHandler returns a WriteHandler that persists queued
// generation records. Wire it into the AsyncWriter passed to
// NewGenerationsRepositoryWithAsyncWriter.
func NewGenerationWriteHandler(database *Database) WriteHandler {
	repo := &GenerationsRepository{db: database}
	return repo.insertSync
}

// Insert records a generation attempt. When an async writer is configured
// the record is queued without blocking; if the queue is full the insert
// falls through to a synchronous write so the record is never dropped.
func (r *GenerationsRepository) Insert(ctx context.Context, record *GenerationRecord) error {
	if r.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Date == "" {
		return fmt.Errorf("generation record date is required")
	}

	// Use async writer if available
	if r.asyncWriter != nil && r.asyncWriter.IsStarted() {
		if r.asyncWriter.Write(record) {
			return nil
		}
		// Fall through to sync write if channel is full
	}

	return r.insertSync(record)
}

func (r *GenerationsRepository) insertSync(record *GenerationRecord) error {
	query := `
		INSERT INTO generation_records (id, user_id, note_id, date, prompt, image_url, success)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		record.ID,
		record.UserID,
		record.NoteID,
		record.Date,
		record.Prompt,
		record.ImageURL,
		boolToInt(record.Success),
	)
	if err != nil {
		return fmt.Errorf("failed to insert generation record: %w", err)
	}

	return nil
}

// CountForUserOn returns how many generation attempts the user has recorded
// on the given UTC date (format 2006-01-02). Failed attempts count too.
func (r *GenerationsRepository) CountForUserOn(ctx context.Context, userID, date string) (int, error) {
	if r.db == nil {
		return 0, fmt.Errorf("database connection is nil")
	}

	var count int
	query := `SELECT COUNT(1) FROM generation_records WHERE user_id = ? AND date = ?`
	if err := r.db.QueryRow(query, userID, date).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count generation records: %w", err)
	}

	return count, nil
}

// RecentForUser returns the user's most recent generation records, newest
// first, capped at limit.
func (r *GenerationsRepository) RecentForUser(ctx context.Context, userID string, limit int) ([]GenerationRecord, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if limit < 1 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, user_id, note_id, date, prompt, image_url, success, created_at
		FROM generation_records
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query generation records: %w", err)
	}
	defer rows.Close()

	var records []GenerationRecord
	for rows.Next() {
		var rec GenerationRecord
		var success int
		var createdAt string

		err := rows.Scan(&rec.ID, &rec.UserID, &rec.NoteID, &rec.Date,
			&rec.Prompt, &rec.ImageURL, &success, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation record row: %w", err)
		}

		rec.Success = success != 0
		rec.CreatedAt = parseSQLiteTime(createdAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating generation record rows: %w", err)
	}

	return records, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
