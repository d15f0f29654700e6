package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrDuplicateEmail is returned by CreateUser when the email is taken.
var ErrDuplicateEmail = errors.New("db: email already registered")

// UsersRepository provides CRUD operations for the users table.
type UsersRepository struct {
	db *Database
}

// NewUsersRepository creates a UsersRepository.
func NewUsersRepository(database *Database) *UsersRepository {
	return &UsersRepository{db: database}
}

// CreateUser inserts a new account. A missing ID is filled with a fresh
// UUID. Returns ErrDuplicateEmail when the email is already registered.
func (r *UsersRepository) CreateUser(ctx context.Context, user *User) error {
	if r.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query := `INSERT INTO users (id, email, password_hash) VALUES (?, ?, ?)`
	if _, err := r.db.Exec(query, user.ID, user.Email, user.PasswordHash); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetUserByEmail returns the account for an email, or sql.ErrNoRows.
func (r *UsersRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`

	var user User
	var createdAt string
	err := r.db.QueryRow(query, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}

	user.CreatedAt = parseSQLiteTime(createdAt)
	return &user, nil
}

// GetUserByID returns the account for an id, or sql.ErrNoRows.
func (r *UsersRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	query := `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`

	var user User
	var createdAt string
	err := r.db.QueryRow(query, id).Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to query user by id: %w", err)
	}

	user.CreatedAt = parseSQLiteTime(createdAt)
	return &user, nil
}
