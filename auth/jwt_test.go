package auth

import (
	"errors"
	"testing"
	"time"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc, err := NewJWTService("test-secret-key-please-rotate")
	if err != nil {
		t.Fatalf("NewJWTService() error = %v", err)
	}

	token, err := svc.GenerateToken("user-123")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateToken() returned empty token")
	}

	userID, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if userID != "user-123" {
		t.Errorf("ValidateToken() = %q, want user-123", userID)
	}
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	if _, err := NewJWTService(""); err == nil {
		t.Error("NewJWTService(\"\") should fail")
	}
}

func TestJWTService_RejectsBadTokens(t *testing.T) {
	svc, err := NewJWTService("test-secret-key-please-rotate")
	if err != nil {
		t.Fatalf("NewJWTService() error = %v", err)
	}
	other, err := NewJWTService("a-different-secret-entirely")
	if err != nil {
		t.Fatalf("NewJWTService() error = %v", err)
	}

	foreign, err := other.GenerateToken("user-123")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt"},
		{name: "wrong secret", token: foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ValidateToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateToken(%s) error = %v, want ErrInvalidToken", tt.name, err)
			}
		})
	}
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc, err := NewJWTServiceWithConfig(JWTConfig{
		Secret: "test-secret-key-please-rotate",
		TTL:    -time.Minute,
	})
	if err != nil {
		t.Fatalf("NewJWTServiceWithConfig() error = %v", err)
	}

	// Non-positive TTL falls back to the default, so build an expired token
	// through a service whose clock-relative expiry lands in the past.
	if svc.TTL() != 24*time.Hour {
		t.Fatalf("TTL() = %v, want default 24h", svc.TTL())
	}

	short, err := NewJWTServiceWithConfig(JWTConfig{
		Secret: "test-secret-key-please-rotate",
		TTL:    time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewJWTServiceWithConfig() error = %v", err)
	}

	token, err := short.GenerateToken("user-123")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	time.Sleep(1100 * time.Millisecond) // exp has second granularity

	if _, err := short.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() expired error = %v, want ErrInvalidToken", err)
	}
}
