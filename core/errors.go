package core

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// AppError is a typed application error with a stable code for programmatic
// handling and an actionable instruction for resolution.
type AppError struct {
	Code    string `json:"code"`             // stable code, see Err* constants
	Message string `json:"message"`          // human-readable error message
	Action  string `json:"action,omitempty"` // actionable instruction for resolution
}

func (e *AppError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// Domain error codes.
const (
	ErrCodeUnauthenticated     = "UNAUTHENTICATED"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	ErrCodeInsufficientCredits = "INSUFFICIENT_CREDITS"
	ErrCodeStorageFailure      = "STORAGE_FAILURE"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
)

// Configuration error codes.
const (
	ErrCodeEnvFileMissing = "ENV_FILE_MISSING"
	ErrCodeMissingConfig  = "MISSING_CONFIG"
	ErrCodeInvalidConfig  = "INVALID_CONFIG"
)

// ErrUnauthenticated returns an error for requests without a verified caller
// identity.
func ErrUnauthenticated() *AppError {
	return &AppError{
		Code:    ErrCodeUnauthenticated,
		Message: "Authentication required",
		Action:  "Provide a valid bearer token in the Authorization header",
	}
}

// ErrNoteNotFound returns an error for a note that does not exist or is not
// owned by the caller. The two cases are deliberately indistinguishable.
func ErrNoteNotFound(noteID string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("Note not found: %s", noteID),
	}
}

// ErrNotFound returns a generic not-found error for other entities.
func ErrNotFound(what string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", what),
	}
}

// ErrProviderUnavailable returns an error for a missing credential, non-2xx
// response, or malformed response shape from an external provider.
func ErrProviderUnavailable(provider string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeProviderUnavailable,
		Message: fmt.Sprintf("Provider %s unavailable: %s", provider, reason),
		Action:  "Check OPENROUTER_API_KEY and provider status",
	}
}

// ErrInsufficientCredits returns the provider-specific credits-exhausted
// error, distinguished for user-facing messaging and fallback image styling.
func ErrInsufficientCredits(provider string) *AppError {
	return &AppError{
		Code:    ErrCodeInsufficientCredits,
		Message: fmt.Sprintf("Provider %s rejected the request: insufficient credits", provider),
		Action:  "Top up the provider account or switch to a cheaper model",
	}
}

// ErrStorageFailure returns an error for a failed object store write or URL
// retrieval. Fatal for the current generation task.
func ErrStorageFailure(reason string) *AppError {
	return &AppError{
		Code:    ErrCodeStorageFailure,
		Message: fmt.Sprintf("Object storage failure: %s", reason),
		Action:  "Check storage configuration and disk space",
	}
}

// ErrRateLimited returns an error for an exhausted daily generation quota.
func ErrRateLimited(limit int) *AppError {
	return &AppError{
		Code:    ErrCodeRateLimited,
		Message: fmt.Sprintf("Daily generation limit of %d reached", limit),
		Action:  "Try again tomorrow or raise GENERATION_DAILY_LIMIT",
	}
}

// ErrInvalidRequest returns an error for a request the caller can fix:
// malformed body, missing field, invalid enum value.
func ErrInvalidRequest(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidRequest,
		Message: message,
	}
}

// ErrTooManyLoginAttempts returns the error for a login-throttled client IP.
func ErrTooManyLoginAttempts(retryAfter time.Duration) *AppError {
	return &AppError{
		Code:    ErrCodeRateLimited,
		Message: "Too many failed login attempts",
		Action:  fmt.Sprintf("Try again in %s", retryAfter.Round(time.Second)),
	}
}

// ErrEnvFileMissing returns an error for a missing .env file.
func ErrEnvFileMissing(path string) *AppError {
	return &AppError{
		Code:    ErrCodeEnvFileMissing,
		Message: fmt.Sprintf("Configuration file not found: %s", path),
		Action:  "Copy example.env to .env and configure the required values",
	}
}

// ErrMissingConfig returns an error for missing required configuration.
func ErrMissingConfig(varName string) *AppError {
	return &AppError{
		Code:    ErrCodeMissingConfig,
		Message: fmt.Sprintf("Missing required configuration: %s", varName),
		Action:  fmt.Sprintf("Set %s in your .env file", varName),
	}
}

// ErrInvalidConfig returns an error for a configuration value that fails
// validation.
func ErrInvalidConfig(varName string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidConfig,
		Message: fmt.Sprintf("Invalid configuration %s: %s", varName, reason),
		Action:  fmt.Sprintf("Fix %s in your .env file", varName),
	}
}

// IsAppError checks if an error is (or wraps) an AppError and returns it.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetErrorCode extracts the code from an error, or "" for plain errors.
func GetErrorCode(err error) string {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// HTTPStatus maps an error to the HTTP status code handlers should return.
// Unrecognized errors map to 500.
func HTTPStatus(err error) int {
	switch GetErrorCode(err) {
	case ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeInsufficientCredits:
		return http.StatusPaymentRequired
	case ErrCodeProviderUnavailable:
		return http.StatusBadGateway
	case ErrCodeStorageFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
