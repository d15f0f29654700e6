package db

import (
	"strings"
	"time"
)

// sqliteTimeLayout is the format CURRENT_TIMESTAMP produces.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// MaxImagesPerNote caps the image sub-records a note keeps. Appending past
// the cap evicts the oldest rows.
const MaxImagesPerNote = 3

// User is an account row in the users table.
type User struct {
	ID           string    // UUID primary key
	Email        string    // unique login identifier
	PasswordHash string    // bcrypt hash, never the plaintext
	CreatedAt    time.Time // timestamp when the account was created
}

// Note is a row in the notes table plus its derived image lists.
//
// ImageIDs and ImageURLs are derived from the note_images sub-records,
// ordered oldest first, and are therefore always the same length. HasImages
// is derived from the count and never stored.
type Note struct {
	ID              string    // UUID primary key
	UserID          string    // owner reference
	Title           string    // optional, "" allowed
	Content         string    // free text, "" allowed
	Tags            []string  // ordered tag strings, stored comma-joined
	DefaultPrompt   string    // used by generation when content is empty
	GeneratedPrompt string    // last prompt used, or an in-progress marker
	ImageIDs        []string  // derived: note_images.id in append order
	ImageURLs       []string  // derived: note_images.url in append order
	HasImages       bool      // derived: len(ImageIDs) > 0
	CreatedAt       time.Time // timestamp when the note was created
	UpdatedAt       time.Time // timestamp of the last owner mutation
}

// NoteImage is an append-only sub-record in the note_images table. One row
// per attached image; a note's visible image list is the query over its rows.
type NoteImage struct {
	ID        string    // UUID primary key, exposed as the image id
	NoteID    string    // parent note
	ObjectID  string    // object storage key
	URL       string    // durable URL for display
	Prompt    string    // prompt that produced the image, "" for uploads
	CreatedAt time.Time // append order tiebreaker with ID
}

// GenerationRecord is one audit row per generation attempt in the
// generation_records table. Inserted once, never mutated, counted by
// (UserID, Date) for the daily quota.
type GenerationRecord struct {
	ID        string    // UUID primary key
	UserID    string    // owner
	NoteID    string    // target note
	Date      string    // calendar date "2006-01-02" for daily counting
	Prompt    string    // prompt used (possibly fallback-labeled)
	ImageURL  string    // resulting image URL
	Success   bool      // false when the fallback path produced the image
	CreatedAt time.Time // timestamp of the attempt
}

// JoinTags serializes a tag list for the notes.tags column.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}

// SplitTags parses the notes.tags column back into an ordered list.
// Empty entries are dropped; an empty column yields nil.
func SplitTags(s string) []string {
	if s == "" {
		return nil
	}

	var tags []string
	for _, part := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

// DateOf formats a time as the generation_records date key.
func DateOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// parseSQLiteTime parses a CURRENT_TIMESTAMP column value, returning the
// zero time for unparseable input.
func parseSQLiteTime(s string) time.Time {
	t, _ := time.Parse(sqliteTimeLayout, s)
	return t
}
