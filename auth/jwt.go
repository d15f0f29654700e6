// Package auth provides JWT session tokens, password hashing, and the HTTP
// middleware that gates the API behind them.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry, or
// claim checks. The caller must not distinguish the causes.
var ErrInvalidToken = errors.New("auth: invalid token")

// JWTService issues and validates HS256 session tokens carrying the user id.
type JWTService struct {
	secretKey []byte
	ttl       time.Duration
}

// JWTConfig holds configuration for the JWTService.
type JWTConfig struct {
	// Secret signs tokens. Required, and should be at least 16 bytes.
	Secret string
	// TTL is the token lifetime (default: 24h)
	TTL time.Duration
}

// DefaultJWTConfig returns sensible defaults for token issuance.
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret: secret,
		TTL:    24 * time.Hour,
	}
}

// NewJWTService creates a JWTService with the default 24h token lifetime.
func NewJWTService(secret string) (*JWTService, error) {
	return NewJWTServiceWithConfig(DefaultJWTConfig(secret))
}

// NewJWTServiceWithConfig creates a JWTService with custom configuration.
func NewJWTServiceWithConfig(config JWTConfig) (*JWTService, error) {
	if config.Secret == "" {
		return nil, fmt.Errorf("auth: JWT secret is required")
	}
	ttl := config.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &JWTService{
		secretKey: []byte(config.Secret),
		ttl:       ttl,
	}, nil
}

// GenerateToken issues a signed token for the given user id.
func (j *JWTService) GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(j.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("auth: failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks a token's signature and expiry and returns the user
// id it carries. Returns ErrInvalidToken on any failure.
func (j *JWTService) ValidateToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return j.secretKey, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}

// TTL returns the configured token lifetime.
func (j *JWTService) TTL() time.Duration {
	return j.ttl
}
