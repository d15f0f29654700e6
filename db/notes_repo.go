package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ErrNoteNotFound is returned when a note does not exist or is not owned by
// the requesting user. The two cases are deliberately indistinguishable.
var ErrNoteNotFound = errors.New("db: note not found")

// ListNotesOptions narrows a ListNotes query.
type ListNotesOptions struct {
	// Search matches title, content and tags with a LIKE filter
	Search string
	// Tag keeps only notes carrying the exact tag
	Tag string
}

// NotesRepository provides CRUD operations for notes and their append-only
// image sub-records.
//
// All note reads are scoped to an owner. Image lists are never stored on the
// note row; they are derived from note_images in rowid (insertion) order,
// so concurrent generation tasks appending to the same note cannot lose each
// other's writes.
type NotesRepository struct {
	db *Database
}

// NewNotesRepository creates a NotesRepository.
func NewNotesRepository(database *Database) *NotesRepository {
	return &NotesRepository{db: database}
}

// CreateNote inserts a new note owned by note.UserID. A missing ID is filled
// with a fresh UUID.
func (r *NotesRepository) CreateNote(ctx context.Context, note *Note) error {
	if r.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if note.ID == "" {
		note.ID = uuid.NewString()
	}

	query := `
		INSERT INTO notes (id, user_id, title, content, tags, default_prompt)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		note.ID,
		note.UserID,
		note.Title,
		note.Content,
		JoinTags(note.Tags),
		note.DefaultPrompt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}

	return nil
}

// GetNote returns a note by id scoped to its owner, with derived image
// lists. Returns ErrNoteNotFound when absent or owned by someone else.
func (r *NotesRepository) GetNote(ctx context.Context, noteID, userID string) (*Note, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := `
		SELECT id, user_id, title, content, tags, default_prompt,
			   generated_prompt, created_at, updated_at
		FROM notes
		WHERE id = ? AND user_id = ?`

	note, err := r.scanNote(r.db.QueryRow(query, noteID, userID))
	if err != nil {
		return nil, err
	}

	images, err := r.ListImages(ctx, note.ID)
	if err != nil {
		return nil, err
	}
	note.attachImages(images)

	return note, nil
}

// ListNotes returns the owner's notes, newest updated first, with derived
// image lists. Search and tag filters combine.
func (r *NotesRepository) ListNotes(ctx context.Context, userID string, opts ListNotesOptions) ([]Note, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := `
		SELECT id, user_id, title, content, tags, default_prompt,
			   generated_prompt, created_at, updated_at
		FROM notes
		WHERE user_id = ?`
	args := []interface{}{userID}

	if opts.Search != "" {
		query += ` AND (title LIKE ? OR content LIKE ? OR tags LIKE ?)`
		pattern := "%" + opts.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if opts.Tag != "" {
		// tags are comma-joined; pad both sides so LIKE matches whole tags
		query += ` AND (',' || tags || ',') LIKE ?`
		args = append(args, "%,"+opts.Tag+",%")
	}

	query += ` ORDER BY updated_at DESC, created_at DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	var noteIDs []string
	for rows.Next() {
		note, err := r.scanNoteRows(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
		noteIDs = append(noteIDs, note.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating note rows: %w", err)
	}

	imagesByNote, err := r.imagesForNotes(ctx, noteIDs)
	if err != nil {
		return nil, err
	}
	for i := range notes {
		notes[i].attachImages(imagesByNote[notes[i].ID])
	}

	return notes, nil
}

// UpdateNote updates the owner-mutable fields (title, content, tags, default
// prompt) and bumps updated_at. Returns ErrNoteNotFound when the note is
// absent or not owned by userID.
func (r *NotesRepository) UpdateNote(ctx context.Context, userID string, note *Note) error {
	if r.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	query := `
		UPDATE notes
		SET title = ?, content = ?, tags = ?, default_prompt = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?`

	result, err := r.db.Exec(query,
		note.Title,
		note.Content,
		JoinTags(note.Tags),
		note.DefaultPrompt,
		note.ID,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNoteNotFound
	}

	return nil
}

// SetGeneratedPrompt sets the note's last-generated-prompt field. Used by
// the generation pipeline for both the in-progress marker and the final
// prompt. Not owner-scoped: the pipeline resolves ownership before running.
func (r *NotesRepository) SetGeneratedPrompt(ctx context.Context, noteID, prompt string) error {
	if r.db == nil {
		return fmt.Errorf("database connection is nil")
	}

	query := `UPDATE notes SET generated_prompt = ? WHERE id = ?`
	result, err := r.db.Exec(query, prompt, noteID)
	if err != nil {
		return fmt.Errorf("failed to set generated prompt: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNoteNotFound
	}

	return nil
}

// DeleteNote removes a note and returns it with its image sub-records so
// the caller can release the stored objects. Image rows go with the note via
// ON DELETE CASCADE.
func (r *NotesRepository) DeleteNote(ctx context.Context, noteID, userID string) (*Note, error) {
	note, err := r.GetNote(ctx, noteID, userID)
	if err != nil {
		return nil, err
	}

	result, err := r.db.Exec(`DELETE FROM notes WHERE id = ? AND user_id = ?`, noteID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete note: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrNoteNotFound
	}

	return note, nil
}

// AppendImage appends an image sub-record to a note and enforces the image
// cap with FIFO eviction: when the note exceeds maxImages rows the oldest
// rows are deleted and returned so the caller can release their stored
// objects. Insert and eviction run in one transaction.
func (r *NotesRepository) AppendImage(ctx context.Context, image *NoteImage, maxImages int) ([]NoteImage, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if image.ID == "" {
		image.ID = uuid.NewString()
	}
	if maxImages < 1 {
		return nil, fmt.Errorf("maxImages must be positive, got %d", maxImages)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// the note must exist; a dangling insert would orphan the row
	var exists int
	if err := tx.QueryRow(`SELECT COUNT(1) FROM notes WHERE id = ?`, image.NoteID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check note existence: %w", err)
	}
	if exists == 0 {
		return nil, ErrNoteNotFound
	}

	insert := `
		INSERT INTO note_images (id, note_id, object_id, url, prompt)
		VALUES (?, ?, ?, ?, ?)`
	if _, err := tx.Exec(insert, image.ID, image.NoteID, image.ObjectID, image.URL, image.Prompt); err != nil {
		return nil, fmt.Errorf("failed to insert note image: %w", err)
	}

	rows, err := tx.Query(`
		SELECT id, note_id, object_id, url, prompt, created_at
		FROM note_images
		WHERE note_id = ?
		ORDER BY rowid`, image.NoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query note images: %w", err)
	}

	all, err := scanImages(rows)
	if err != nil {
		return nil, err
	}

	var evicted []NoteImage
	if excess := len(all) - maxImages; excess > 0 {
		evicted = all[:excess]
		for _, old := range evicted {
			if _, err := tx.Exec(`DELETE FROM note_images WHERE id = ?`, old.ID); err != nil {
				return nil, fmt.Errorf("failed to evict note image %s: %w", old.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit image append: %w", err)
	}

	return evicted, nil
}

// ListImages returns a note's image sub-records in append order.
func (r *NotesRepository) ListImages(ctx context.Context, noteID string) ([]NoteImage, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	rows, err := r.db.Query(`
		SELECT id, note_id, object_id, url, prompt, created_at
		FROM note_images
		WHERE note_id = ?
		ORDER BY rowid`, noteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query note images: %w", err)
	}

	return scanImages(rows)
}

// ListTags returns the owner's distinct tags, sorted.
func (r *NotesRepository) ListTags(ctx context.Context, userID string) ([]string, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	rows, err := r.db.Query(`SELECT tags FROM notes WHERE user_id = ? AND tags != ''`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var joined string
		if err := rows.Scan(&joined); err != nil {
			return nil, fmt.Errorf("failed to scan tags row: %w", err)
		}
		for _, tag := range SplitTags(joined) {
			seen[tag] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tag rows: %w", err)
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

// scanNote scans a single-row note query, mapping sql.ErrNoRows to
// ErrNoteNotFound.
func (r *NotesRepository) scanNote(row *sql.Row) (*Note, error) {
	var note Note
	var tags, createdAt, updatedAt string

	err := row.Scan(
		&note.ID,
		&note.UserID,
		&note.Title,
		&note.Content,
		&tags,
		&note.DefaultPrompt,
		&note.GeneratedPrompt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to scan note: %w", err)
	}

	note.Tags = SplitTags(tags)
	note.CreatedAt = parseSQLiteTime(createdAt)
	note.UpdatedAt = parseSQLiteTime(updatedAt)
	return &note, nil
}

func (r *NotesRepository) scanNoteRows(rows *sql.Rows) (*Note, error) {
	var note Note
	var tags, createdAt, updatedAt string

	err := rows.Scan(
		&note.ID,
		&note.UserID,
		&note.Title,
		&note.Content,
		&tags,
		&note.DefaultPrompt,
		&note.GeneratedPrompt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan note row: %w", err)
	}

	note.Tags = SplitTags(tags)
	note.CreatedAt = parseSQLiteTime(createdAt)
	note.UpdatedAt = parseSQLiteTime(updatedAt)
	return &note, nil
}

// imagesForNotes loads image sub-records for many notes in one query,
// grouped by note id.
func (r *NotesRepository) imagesForNotes(ctx context.Context, noteIDs []string) (map[string][]NoteImage, error) {
	result := make(map[string][]NoteImage)
	if len(noteIDs) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(noteIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(noteIDs))
	for i, id := range noteIDs {
		args[i] = id
	}

	rows, err := r.db.Query(`
		SELECT id, note_id, object_id, url, prompt, created_at
		FROM note_images
		WHERE note_id IN (`+placeholders+`)
		ORDER BY rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query note images: %w", err)
	}

	images, err := scanImages(rows)
	if err != nil {
		return nil, err
	}

	for _, img := range images {
		result[img.NoteID] = append(result[img.NoteID], img)
	}
	return result, nil
}

func scanImages(rows *sql.Rows) ([]NoteImage, error) {
	defer rows.Close()

	var images []NoteImage
	for rows.Next() {
		var img NoteImage
		var createdAt string

		err := rows.Scan(&img.ID, &img.NoteID, &img.ObjectID, &img.URL, &img.Prompt, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note image row: %w", err)
		}

		img.CreatedAt = parseSQLiteTime(createdAt)
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating note image rows: %w", err)
	}

	return images, nil
}

// attachImages fills the derived image fields from sub-records.
func (n *Note) attachImages(images []NoteImage) {
	n.ImageIDs = make([]string, 0, len(images))
	n.ImageURLs = make([]string, 0, len(images))
	for _, img := range images {
		n.ImageIDs = append(n.ImageIDs, img.ID)
		n.ImageURLs = append(n.ImageURLs, img.URL)
	}
	n.HasImages = len(n.ImageIDs) > 0
}
