package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newBufferLogger returns a Logger writing JSON entries into buf.
func newBufferLogger(t *testing.T, buf *bytes.Buffer) *Logger {
	t.Helper()

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(NewEncoderConfig()),
		zapcore.AddSync(buf),
		zapcore.DebugLevel,
	)
	zapLogger := zap.New(core)

	return &Logger{
		zap:           zapLogger,
		sugar:         zapLogger.Sugar(),
		isDevelopment: true,
	}
}

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "notes.log")

	logger, err := NewLogger(true, logPath)
	if err != nil {
		t.Fatalf("NewLogger() error: %v", err)
	}
	defer logger.Sync()

	logger.Info("startup complete")
	logger.Sync()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "startup complete") {
		t.Errorf("log file missing entry, got: %s", data)
	}
}

func TestLoggerRedactsSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(t, &buf)

	logger.Info("provider configured",
		zap.String("api_key", "sk-or-v1-verysecret1234567890abc"),
		zap.String("model", "gemini-flash"))

	out := buf.String()
	if strings.Contains(out, "verysecret") {
		t.Errorf("api_key value leaked into log output: %s", out)
	}
	if !strings.Contains(out, RedactedPlaceholder) {
		t.Errorf("expected %s in output, got: %s", RedactedPlaceholder, out)
	}
	if !strings.Contains(out, "gemini-flash") {
		t.Errorf("non-sensitive field should survive, got: %s", out)
	}
}

func TestLoggerRedactsSugaredPairs(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(t, &buf)

	logger.Infow("login attempt",
		"email", "jo@example.com",
		"password", "hunter2hunter2")

	out := buf.String()
	if strings.Contains(out, "hunter2") {
		t.Errorf("password value leaked into log output: %s", out)
	}
	if !strings.Contains(out, "jo@example.com") {
		t.Errorf("email should survive redaction, got: %s", out)
	}
}

func TestLoggerNamed(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(t, &buf)

	logger.Named("imagegen").Info("pipeline started")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry[FieldSource] != "imagegen" {
		t.Errorf("source = %v, want imagegen", entry[FieldSource])
	}
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(t, &buf)

	child := logger.With(zap.String("note_id", "note-123"))
	child.Info("first")
	child.Info("second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	for i, line := range lines {
		if !strings.Contains(line, "note-123") {
			t.Errorf("line %d missing inherited field: %s", i, line)
		}
	}
}

func TestLoggerSyncNil(t *testing.T) {
	var logger *Logger
	if err := logger.Sync(); err != nil {
		t.Errorf("Sync on nil logger should be a no-op, got: %v", err)
	}
}

func TestParseLogLevelString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected zapcore.Level
	}{
		{"debug", "debug", zapcore.DebugLevel},
		{"info", "info", zapcore.InfoLevel},
		{"warn", "warn", zapcore.WarnLevel},
		{"warning alias", "warning", zapcore.WarnLevel},
		{"error", "error", zapcore.ErrorLevel},
		{"fatal", "FATAL", zapcore.FatalLevel},
		{"mixed case", "Info", zapcore.InfoLevel},
		{"whitespace", "  debug  ", zapcore.DebugLevel},
		{"invalid falls back", "verbose", zapcore.InfoLevel},
		{"empty falls back", "", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseLogLevelString(tt.input, zapcore.InfoLevel)
			if result != tt.expected {
				t.Errorf("ParseLogLevelString(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestMultiCoreWithWriters(t *testing.T) {
	var console, file bytes.Buffer
	core := NewMultiCoreWithWriters(
		zapcore.InfoLevel,
		zapcore.AddSync(&console),
		zapcore.AddSync(&file),
		false,
	)
	logger := zap.New(core)

	logger.Info("tee check")
	logger.Sync()

	if !strings.Contains(console.String(), "tee check") {
		t.Errorf("console output missing entry: %s", console.String())
	}
	if !strings.Contains(file.String(), "tee check") {
		t.Errorf("file output missing entry: %s", file.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(file.Bytes(), &entry); err != nil {
		t.Fatalf("file output should be JSON: %v", err)
	}
	if entry[FieldMessage] != "tee check" {
		t.Errorf("message field = %v, want %q", entry[FieldMessage], "tee check")
	}
}

func TestFileWriterDefaults(t *testing.T) {
	cfg := applyFileWriterDefaults(FileWriterConfig{})
	if cfg.MaxSizeMB != DefaultMaxSizeMB {
		t.Errorf("MaxSizeMB = %d, want %d", cfg.MaxSizeMB, DefaultMaxSizeMB)
	}
	if cfg.MaxBackups != DefaultMaxBackups {
		t.Errorf("MaxBackups = %d, want %d", cfg.MaxBackups, DefaultMaxBackups)
	}
	if cfg.MaxAgeDays != DefaultMaxAgeDays {
		t.Errorf("MaxAgeDays = %d, want %d", cfg.MaxAgeDays, DefaultMaxAgeDays)
	}

	custom := applyFileWriterDefaults(FileWriterConfig{MaxSizeMB: 10})
	if custom.MaxSizeMB != 10 {
		t.Errorf("explicit MaxSizeMB overridden, got %d", custom.MaxSizeMB)
	}
}
