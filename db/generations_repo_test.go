package db

import (
	"context"
	"testing"
	"time"
)

func TestGenerationsRepository_InsertAndCount(t *testing.T) {
	database := newTestDatabase(t)
	repo := NewGenerationsRepository(database)
	ctx := context.Background()
	user := createTestUser(t, database, "quota@example.com")

	today := DateOf(time.Now())
	for i := 0; i < 3; i++ {
		record := &GenerationRecord{
			UserID:   user.ID,
			NoteID:   "note-1",
			Date:     today,
			Prompt:   "a prompt",
			ImageURL: "/media/img",
			Success:  i%2 == 0,
		}
		if err := repo.Insert(ctx, record); err != nil {
			t.Fatalf("Insert(%d) error = %v", i, err)
		}
		if record.ID == "" {
			t.Fatal("Insert() did not assign an ID")
		}
	}

	count, err := repo.CountForUserOn(ctx, user.ID, today)
	if err != nil {
		t.Fatalf("CountForUserOn() error = %v", err)
	}
	if count != 3 {
		t.Errorf("CountForUserOn() = %d, want 3", count)
	}

	// Other days and other users don't count
	count, err = repo.CountForUserOn(ctx, user.ID, "2020-01-01")
	if err != nil {
		t.Fatalf("CountForUserOn() error = %v", err)
	}
	if count != 0 {
		t.Errorf("CountForUserOn() for other day = %d, want 0", count)
	}
	count, err = repo.CountForUserOn(ctx, "someone-else", today)
	if err != nil {
		t.Fatalf("CountForUserOn() error = %v", err)
	}
	if count != 0 {
		t.Errorf("CountForUserOn() for other user = %d, want 0", count)
	}
}

func TestGenerationsRepository_InsertRequiresDate(t *testing.T) {
	database := newTestDatabase(t)
	repo := NewGenerationsRepository(database)

	err := repo.Insert(context.Background(), &GenerationRecord{UserID: "u", Prompt: "p"})
	if err == nil {
		t.Error("Insert() without date should fail")
	}
}

func TestGenerationsRepository_RecentForUser(t *testing.T) {
	database := newTestDatabase(t)
	repo := NewGenerationsRepository(database)
	ctx := context.Background()
	user := createTestUser(t, database, "history@example.com")

	for i := 0; i < 5; i++ {
		record := &GenerationRecord{
			UserID:  user.ID,
			NoteID:  "note-1",
			Date:    DateOf(time.Now()),
			Prompt:  "p",
			Success: true,
		}
		if err := repo.Insert(ctx, record); err != nil {
			t.Fatalf("Insert(%d) error = %v", i, err)
		}
	}

	records, err := repo.RecentForUser(ctx, user.ID, 3)
	if err != nil {
		t.Fatalf("RecentForUser() error = %v", err)
	}
	if len(records) != 3 {
		t.Errorf("RecentForUser() returned %d records, want 3", len(records))
	}
	for _, rec := range records {
		if rec.UserID != user.ID {
			t.Errorf("RecentForUser() leaked record for user %q", rec.UserID)
		}
		if !rec.Success {
			t.Error("RecentForUser() Success = false, want true")
		}
	}
}

func TestGenerationsRepository_AsyncInsert(t *testing.T) {
	database := newTestDatabase(t)
	ctx := context.Background()
	user := createTestUser(t, database, "async@example.com")

	writer := NewAsyncWriter(NewGenerationWriteHandler(database))
	writer.Start()
	defer writer.Stop()

	repo := NewGenerationsRepositoryWithAsyncWriter(database, writer)

	today := DateOf(time.Now())
	record := &GenerationRecord{UserID: user.ID, NoteID: "n", Date: today, Prompt: "p", Success: true}
	if err := repo.Insert(ctx, record); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	// The write is queued; poll until the background goroutine lands it
	deadline := time.After(2 * time.Second)
	for {
		count, err := repo.CountForUserOn(ctx, user.ID, today)
		if err != nil {
			t.Fatalf("CountForUserOn() error = %v", err)
		}
		if count == 1 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("async insert not visible, count = %d", count)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestGenerationsRepository_AsyncFallsBackToSync(t *testing.T) {
	database := newTestDatabase(t)
	ctx := context.Background()
	user := createTestUser(t, database, "fallback@example.com")

	// Writer never started, so Insert must take the sync path
	writer := NewAsyncWriter(NewGenerationWriteHandler(database))
	repo := NewGenerationsRepositoryWithAsyncWriter(database, writer)

	today := DateOf(time.Now())
	record := &GenerationRecord{UserID: user.ID, NoteID: "n", Date: today, Prompt: "p"}
	if err := repo.Insert(ctx, record); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	count, err := repo.CountForUserOn(ctx, user.ID, today)
	if err != nil {
		t.Fatalf("CountForUserOn() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountForUserOn() = %d, want 1", count)
	}
}
