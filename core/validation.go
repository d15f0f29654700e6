package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
)

// ValidationStep is a single startup check with its outcome.
type ValidationStep struct {
	Name    string
	Status  StepStatus
	Message string
	Error   error
	Latency time.Duration
}

// StepStatus represents the status of a validation step.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepPassed
	StepFailed
	StepWarning
	StepSkipped
)

func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepRunning:
		return "running"
	case StepPassed:
		return "passed"
	case StepFailed:
		return "failed"
	case StepWarning:
		return "warning"
	case StepSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// SuiteResult is the aggregate outcome of a validation run.
type SuiteResult struct {
	Steps       []ValidationStep
	TotalSteps  int
	PassedSteps int
	FailedSteps int
	Warnings    int
	Duration    time.Duration
	Success     bool
}

/// ValidationSuite runs the startup checks with colored console progress:
// environment file, configuration completeness, data and media directories,
// and provider credential presence. A missing provider credential is a
// warning, not a failure, because generation degrades to the local fallback.
type ValidationSuite struct {
	output       io.Writer
	cfg          *Config
	envPath      string
	showProgress bool
	failFast     bool
}

// NewValidationSuite creates a ValidationSuite for the given configuration.
func NewValidationSuite(cfg *Config) *ValidationSuite {
	return &ValidationSuite{
		output:       os.Stdout,
		cfg:          cfg,
		envPath:      ".env",
		showProgress: true,
		failFast:     false,
	}
}

// WithOutput sets the writer for progress messages.
func (s *ValidationSuite) WithOutput(w io.Writer) *ValidationSuite {
	s.output = w
	return s
}

// WithEnvPath sets a custom path for the .env file.
func (s *ValidationSuite) WithEnvPath(path string) *ValidationSuite {
	s.envPath = path
	return s
}

// WithShowProgress enables or disables progress output.
func (s *ValidationSuite) WithShowProgress(show bool) *ValidationSuite {
	s.showProgress = show
	return s
}

// WithFailFast stops validation on the first failure.
func (s *ValidationSuite) WithFailFast(failFast bool) *ValidationSuite {
	s.failFast = failFast
	return s
}

// Validate runs all startup checks in sequence.
func (s *ValidationSuite) Validate() SuiteResult {
	startTime := time.Now()
	steps := make([]ValidationStep, 0, 5)

	if s.showProgress {
		s.printHeader("Notes Service Startup Validation")
	}

	checks := []struct {
		name string
		fn   func() ValidationStep
	}{
		{"Environment File", s.checkEnvFile},
		{"Auth Configuration", s.checkAuthConfig},
		{"Data Directory", s.checkDataDirectory},
		{"Storage Backend", s.checkStorageBackend},
		{"Provider Credential", s.checkProviderCredential},
	}

	for _, check := range checks {
		if s.showProgress {
			s.printStepStart(check.name)
		}

		stepStart := time.Now()
		step := check.fn()
		step.Name = check.name
		step.Latency = time.Since(stepStart)

		if s.showProgress {
			s.printStep(step)
		}

		steps = append(steps, step)
		if s.failFast && step.Status == StepFailed {
			break
		}
	}

	result := s.buildResult(steps, startTime)

	if s.showProgress {
		s.printSummary(result)
	}

	return result
}

// checkEnvFile warns when no .env file exists. Not fatal: configuration may
// come entirely from the process environment.
func (s *ValidationSuite) checkEnvFile() ValidationStep {
	if _, err := os.Stat(s.envPath); err != nil {
		return ValidationStep{
			Status:  StepWarning,
			Message: fmt.Sprintf("no %s file, using process environment", s.envPath),
		}
	}
	return ValidationStep{
		Status:  StepPassed,
		Message: "environment file found",
	}
}

func (s *ValidationSuite) checkAuthConfig() ValidationStep {
	if s.cfg.JWTSecret == "" {
		return ValidationStep{
			Status:  StepFailed,
			Message: "JWT secret missing",
			Error:   ErrMissingConfig("JWT_SECRET"),
		}
	}
	if len(s.cfg.JWTSecret) < 16 {
		return ValidationStep{
			Status:  StepWarning,
			Message: "JWT secret is shorter than 16 characters",
		}
	}
	return ValidationStep{
		Status:  StepPassed,
		Message: "JWT secret configured",
	}
}

// checkDataDirectory ensures the database parent directory exists and is
// writable, creating it when absent.
func (s *ValidationSuite) checkDataDirectory() ValidationStep {
	dir := filepath.Dir(s.cfg.DatabasePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ValidationStep{
			Status:  StepFailed,
			Message: "data directory not writable",
			Error:   fmt.Errorf("create %s: %w", dir, err),
		}
	}

	probe := filepath.Join(dir, ".write-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return ValidationStep{
			Status:  StepFailed,
			Message: "data directory not writable",
			Error:   fmt.Errorf("write probe in %s: %w", dir, err),
		}
	}
	os.Remove(probe)

	return ValidationStep{
		Status:  StepPassed,
		Message: fmt.Sprintf("data directory %s writable", dir),
	}
}

func (s *ValidationSuite) checkStorageBackend() ValidationStep {
	switch s.cfg.StorageBackend {
	case StorageBackendDisk:
		if err := os.MkdirAll(s.cfg.MediaDir, 0o755); err != nil {
			return ValidationStep{
				Status:  StepFailed,
				Message: "media directory not writable",
				Error:   fmt.Errorf("create %s: %w", s.cfg.MediaDir, err),
			}
		}
		return ValidationStep{
			Status:  StepPassed,
			Message: fmt.Sprintf("disk storage in %s", s.cfg.MediaDir),
		}
	case StorageBackendS3:
		if s.cfg.S3Bucket == "" {
			return ValidationStep{
				Status:  StepFailed,
				Message: "S3 bucket missing",
				Error:   ErrMissingConfig("S3_BUCKET"),
			}
		}
		if s.cfg.S3AccessKeyID == "" || s.cfg.S3SecretAccessKey == "" {
			return ValidationStep{
				Status:  StepWarning,
				Message: "no static S3 credentials, relying on ambient AWS config",
			}
		}
		return ValidationStep{
			Status:  StepPassed,
			Message: fmt.Sprintf("S3 storage in bucket %s", s.cfg.S3Bucket),
		}
	default:
		return ValidationStep{
			Status:  StepFailed,
			Message: "unknown storage backend",
			Error:   ErrInvalidConfig("STORAGE_BACKEND", s.cfg.StorageBackend),
		}
	}
}

func (s *ValidationSuite) checkProviderCredential() ValidationStep {
	if !s.cfg.HasProviderCredential() {
		return ValidationStep{
			Status:  StepWarning,
			Message: "OPENROUTER_API_KEY not set, image generation will use the local fallback",
		}
	}
	return ValidationStep{
		Status:  StepPassed,
		Message: "provider credential configured",
	}
}

func (s *ValidationSuite) buildResult(steps []ValidationStep, startTime time.Time) SuiteResult {
	result := SuiteResult{
		Steps:      steps,
		TotalSteps: len(steps),
		Duration:   time.Since(startTime),
		Success:    true,
	}

	for _, step := range steps {
		switch step.Status {
		case StepPassed:
			result.PassedSteps++
		case StepFailed:
			result.FailedSteps++
			result.Success = false
		case StepWarning:
			result.Warnings++
		}
	}

	return result
}

func (s *ValidationSuite) printHeader(title string) {
	fmt.Fprintln(s.output)
	headerColor := color.New(color.FgCyan, color.Bold)
	headerColor.Fprintf(s.output, "=== %s ===\n", title)
	fmt.Fprintln(s.output)
}

func (s *ValidationSuite) printStepStart(name string) {
	fmt.Fprintf(s.output, "  . %s...", name)
}

func (s *ValidationSuite) printStep(step ValidationStep) {
	var icon string
	var clr *color.Color

	switch step.Status {
	case StepPassed:
		icon = "✓"
		clr = color.New(color.FgGreen)
	case StepFailed:
		icon = "✗"
		clr = color.New(color.FgRed)
	case StepWarning:
		icon = "!"
		clr = color.New(color.FgYellow)
	case StepSkipped:
		icon = "○"
		clr = color.New(color.FgHiBlack)
	default:
		icon = "?"
		clr = color.New(color.FgWhite)
	}

	fmt.Fprintf(s.output, "\r")
	clr.Fprintf(s.output, "  %s %s", icon, step.Name)

	if step.Message != "" {
		dim := color.New(color.FgHiBlack)
		dim.Fprintf(s.output, " - %s", step.Message)
	}

	fmt.Fprintln(s.output)

	if step.Status == StepFailed && step.Error != nil {
		errColor := color.New(color.FgRed)
		errColor.Fprintf(s.output, "    -> %s\n", step.Error.Error())
	}
}

func (s *ValidationSuite) printSummary(result SuiteResult) {
	fmt.Fprintln(s.output)

	if result.Success {
		successColor := color.New(color.FgGreen, color.Bold)
		successColor.Fprintf(s.output, "=== Validation Passed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d/%d checks passed in %v)",
			result.PassedSteps, result.TotalSteps, result.Duration.Round(time.Millisecond))
		successColor.Fprintln(s.output, " ===")
	} else {
		failColor := color.New(color.FgRed, color.Bold)
		failColor.Fprintf(s.output, "=== Validation Failed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d passed, %d failed)",
			result.PassedSteps, result.FailedSteps)
		failColor.Fprintln(s.output, " ===")
	}

	fmt.Fprintln(s.output)
}

// GetErrors returns every error from failed steps.
func (r SuiteResult) GetErrors() []error {
	errors := make([]error, 0)
	for _, step := range r.Steps {
		if step.Error != nil {
			errors = append(errors, step.Error)
		}
	}
	return errors
}

// GetFirstError returns the first failed step's error, or nil.
func (r SuiteResult) GetFirstError() error {
	for _, step := range r.Steps {
		if step.Error != nil {
			return step.Error
		}
	}
	return nil
}

// Summary returns a one-line human-readable summary.
func (r SuiteResult) Summary() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Validation %s: ", map[bool]string{true: "Passed", false: "Failed"}[r.Success]))
	sb.WriteString(fmt.Sprintf("%d/%d checks passed", r.PassedSteps, r.TotalSteps))
	if r.FailedSteps > 0 {
		sb.WriteString(fmt.Sprintf(", %d failed", r.FailedSteps))
	}
	if r.Warnings > 0 {
		sb.WriteString(fmt.Sprintf(", %d warnings", r.Warnings))
	}
	sb.WriteString(fmt.Sprintf(" (took %v)", r.Duration.Round(time.Millisecond)))
	return sb.String()
}
