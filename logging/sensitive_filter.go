package logging

import (
	"regexp"
	"strings"
)

// RedactedPlaceholder is the string used to replace sensitive data
const RedactedPlaceholder = "[REDACTED]"

// sensitivePatterns are compiled once at package init.
var sensitivePatterns = []*regexp.Regexp{
	// Provider API keys as handed out by OpenAI/OpenRouter: sk-... / sk-or-...
	regexp.MustCompile(`(?i)(sk-[a-zA-Z0-9_-]{20,})`),
	// AWS access key ids and generic 40-char secrets next to them
	regexp.MustCompile(`(AKIA[0-9A-Z]{16})`),
	// JWTs: three base64url segments
	regexp.MustCompile(`(eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+)`),
	// Bearer tokens in header dumps
	regexp.MustCompile(`(?i)(bearer\s+[a-zA-Z0-9._-]{20,})`),

	// Generic secret assignments
	regexp.MustCompile(`(?i)(password\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)(secret\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)(token\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)(api_key\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)(apikey\s*[:=]\s*[^\s,;]{8,})`),
}

// sensitiveFieldMarkers are substrings of field names that indicate the value
// must never reach the log output.
var sensitiveFieldMarkers = []string{
	"OPENROUTER_API_KEY",
	"JWT_SECRET",
	"S3_SECRET_ACCESS_KEY",
	"PASSWORD",
	"PASSWORD_HASH",
	"AUTHORIZATION",
	"SECRET",
	"TOKEN",
	"API_KEY",
	"APIKEY",
}

// RedactSensitiveData scans a string and redacts any detected sensitive data.
// Pure function: same input, same output.
//
// Example:
//
//	RedactSensitiveData("key is sk-or-v1-abc123def456ghi789jkl")
//	// "key is [REDACTED]"
func RedactSensitiveData(value string) string {
	if value == "" {
		return value
	}

	result := value
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedPlaceholder)
	}
	return result
}

// RedactField redacts a value when the field name marks it sensitive, and
// otherwise scans the value itself.
//
// Example:
//
//	RedactField("JWT_SECRET", "hunter2hunter2") // "[REDACTED]"
//	RedactField("email", "a@b.c")              // "a@b.c"
func RedactField(fieldName, fieldValue string) string {
	if IsSensitiveField(fieldName) {
		return RedactedPlaceholder
	}
	return RedactSensitiveData(fieldValue)
}

// IsSensitiveField reports whether the field name alone marks the value as
// sensitive. Checks the name only, never the value.
func IsSensitiveField(fieldName string) bool {
	upperName := strings.ToUpper(fieldName)

	for _, marker := range sensitiveFieldMarkers {
		if strings.Contains(upperName, marker) {
			return true
		}
	}
	return false
}

// ContainsSensitiveData reports whether the value matches any known
// credential pattern.
func ContainsSensitiveData(value string) bool {
	if value == "" {
		return false
	}

	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}
