package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func TestUsersRepository_CreateAndGet(t *testing.T) {
	database := newTestDatabase(t)
	repo := NewUsersRepository(database)
	ctx := context.Background()

	user := &User{Email: "alice@example.com", PasswordHash: "$2a$10$hash"}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.ID == "" {
		t.Fatal("CreateUser() did not assign an ID")
	}

	byEmail, err := repo.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("GetUserByEmail() ID = %q, want %q", byEmail.ID, user.ID)
	}
	if byEmail.PasswordHash != user.PasswordHash {
		t.Errorf("GetUserByEmail() PasswordHash = %q, want %q", byEmail.PasswordHash, user.PasswordHash)
	}
	if byEmail.CreatedAt.IsZero() {
		t.Error("GetUserByEmail() CreatedAt is zero")
	}

	byID, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if byID.Email != "alice@example.com" {
		t.Errorf("GetUserByID() Email = %q, want alice@example.com", byID.Email)
	}
}

func TestUsersRepository_DuplicateEmail(t *testing.T) {
	database := newTestDatabase(t)
	repo := NewUsersRepository(database)
	ctx := context.Background()

	first := &User{Email: "bob@example.com", PasswordHash: "h1"}
	if err := repo.CreateUser(ctx, first); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	second := &User{Email: "bob@example.com", PasswordHash: "h2"}
	err := repo.CreateUser(ctx, second)
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("CreateUser() duplicate error = %v, want ErrDuplicateEmail", err)
	}
}

func TestUsersRepository_NotFound(t *testing.T) {
	database := newTestDatabase(t)
	repo := NewUsersRepository(database)
	ctx := context.Background()

	if _, err := repo.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetUserByEmail() error = %v, want sql.ErrNoRows", err)
	}
	if _, err := repo.GetUserByID(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetUserByID() error = %v, want sql.ErrNoRows", err)
	}
}
