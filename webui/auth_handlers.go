package webui

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/rosieluu/simple-notes-app/auth"
	"github.com/rosieluu/simple-notes-app/core"
	"github.com/rosieluu/simple-notes-app/db"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		writeError(w, core.ErrInvalidRequest("A valid email address is required"))
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		writeError(w, core.ErrInvalidRequest("Password must be at least 8 characters"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Errorw("Password hashing failed", "error", err)
		writeError(w, err)
		return
	}

	user := &db.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.deps.Users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, db.ErrDuplicateEmail) {
			writeError(w, core.ErrInvalidRequest("Email already registered"))
			return
		}
		s.logger.Errorw("User creation failed", "error", err)
		writeError(w, err)
		return
	}

	token, err := s.deps.JWT.GenerateToken(user.ID)
	if err != nil {
		s.logger.Errorw("Token generation failed", "error", err)
		writeError(w, err)
		return
	}

	s.logger.Infow("User registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, authResponse{Token: token, UserID: user.ID, Email: user.Email})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if allowed, retryAfter := s.limiter.Allow(ip); !allowed {
		s.logger.Warnw("Login blocked by rate limiter", "remote", ip)
		writeError(w, core.ErrTooManyLoginAttempts(retryAfter))
		return
	}

	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.deps.Users.GetUserByEmail(r.Context(), email)
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.limiter.RecordFailure(ip)
		writeError(w, core.ErrUnauthenticated())
		return
	}

	token, err := s.deps.JWT.GenerateToken(user.ID)
	if err != nil {
		s.logger.Errorw("Token generation failed", "error", err)
		writeError(w, err)
		return
	}

	s.limiter.Reset(ip)
	writeJSON(w, http.StatusOK, authResponse{Token: token, UserID: user.ID, Email: user.Email})
}
