package core

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// Storage backend identifiers for Config.StorageBackend.
const (
	StorageBackendDisk = "disk"
	StorageBackendS3   = "s3"
)

// Config holds all configuration values. Constructed once in main and passed
// explicitly to every component that needs it.
type Config struct {
	// Server
	Port          int
	PublicBaseURL string // external base URL used when building media links
	DevMode       bool

	// Auth
	JWTSecret string
	JWTTTL    time.Duration

	// Database
	DatabasePath   string
	MigrationsPath string

	// Object storage
	StorageBackend    string // "disk" or "s3"
	MediaDir          string // disk backend root
	S3Bucket          string
	S3Region          string
	S3Endpoint        string // optional, for S3-compatible services
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3PresignExpiry   time.Duration

	// Image/text generation providers
	OpenRouterAPIKey  string // optional; absence routes to the fallback path
	OpenRouterBaseURL string
	TextModel         string
	ImageModel        string
	TextTimeout       time.Duration
	ImageTimeout      time.Duration

	// Generation quota
	GenerationDailyLimit int

	// Uploads
	MaxUploadBytes int64

	// TLS toward external providers
	AllowSelfSignedCerts bool

	LogFilePath string
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. Only JWT_SECRET is required; the provider API key is optional
// because its absence routes generation to the local fallback path.
func LoadConfig() (*Config, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, ErrMissingConfig("JWT_SECRET")
	}

	port := ParseIntEnv("PORT", 8080)
	publicBaseURL := GetEnvOrDefault("PUBLIC_BASE_URL", fmt.Sprintf("http://localhost:%d", port))
	publicBaseURL = strings.TrimRight(publicBaseURL, "/")

	storageBackend := strings.ToLower(GetEnvOrDefault("STORAGE_BACKEND", StorageBackendDisk))
	switch storageBackend {
	case StorageBackendDisk, StorageBackendS3:
	default:
		return nil, ErrInvalidConfig("STORAGE_BACKEND", fmt.Sprintf("unknown backend %q, expected disk or s3", storageBackend))
	}

	s3Bucket := os.Getenv("S3_BUCKET")
	if storageBackend == StorageBackendS3 && s3Bucket == "" {
		return nil, ErrMissingConfig("S3_BUCKET")
	}

	dailyLimit := ParseIntEnv("GENERATION_DAILY_LIMIT", 50)
	if dailyLimit < 1 {
		return nil, ErrInvalidConfig("GENERATION_DAILY_LIMIT", fmt.Sprintf("must be a positive integer, got %d", dailyLimit))
	}

	cfg := &Config{
		Port:          port,
		PublicBaseURL: publicBaseURL,
		DevMode:       ParseBoolEnv("DEV_MODE", false),

		JWTSecret: jwtSecret,
		JWTTTL:    ParseDurationEnv("JWT_TTL_SECONDS", 86400),

		DatabasePath:   GetEnvOrDefault("DATABASE_PATH", "./data/notes.db"),
		MigrationsPath: GetEnvOrDefault("MIGRATIONS_PATH", "./db/migrations"),

		StorageBackend:    storageBackend,
		MediaDir:          GetEnvOrDefault("MEDIA_DIR", "./media"),
		S3Bucket:          s3Bucket,
		S3Region:          GetEnvOrDefault("S3_REGION", "us-east-1"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3PresignExpiry:   ParseDurationEnv("S3_PRESIGN_EXPIRY_SECONDS", 900),

		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL: GetEnvOrDefault("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		TextModel:         GetEnvOrDefault("TEXT_MODEL", "google/gemini-2.5-flash"),
		ImageModel:        GetEnvOrDefault("IMAGE_MODEL", "google/gemini-2.5-flash-image-preview"),
		// 30s accommodates slow text completions without hanging tasks
		TextTimeout: ParseDurationEnv("TEXT_TIMEOUT_SECONDS", 30),
		// image synthesis is slower, 60s before falling back
		ImageTimeout: ParseDurationEnv("IMAGE_TIMEOUT_SECONDS", 60),

		GenerationDailyLimit: dailyLimit,

		// 10MB covers phone photos while bounding memory per upload
		MaxUploadBytes: ParseInt64Env("MAX_UPLOAD_BYTES", 10485760),

		AllowSelfSignedCerts: ParseBoolEnv("ALLOW_SELF_SIGNED_CERTS", false),

		LogFilePath: GetEnvOrDefault("LOG_FILE", "notes.log"),
	}

	// Optional YAML overlay for provider/model settings
	if overlayPath := GetEnvOrDefault("PROVIDER_SETTINGS_PATH", "providers.yaml"); overlayPath != "" {
		if err := applyProviderSettings(cfg, overlayPath); err != nil {
			return nil, fmt.Errorf("core: provider settings: %w", err)
		}
	}

	return cfg, nil
}

// HasProviderCredential reports whether an OpenRouter API key is configured.
// Without it the prompt builder uses the Basic strategy and generation goes
// straight to the fallback image.
func (c *Config) HasProviderCredential() bool {
	return c.OpenRouterAPIKey != ""
}

// ListenAddr returns the HTTP listen address for the configured port.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// GetHTTPClient returns an HTTP client honoring the TLS settings. Use for
// all requests to external providers.
func GetHTTPClient(cfg *Config, timeout time.Duration) *http.Client {
	client := &http.Client{
		Timeout: timeout,
	}

	if cfg.AllowSelfSignedCerts {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return client
}

// GetDefaultHTTPClient returns an HTTP client with a 30s timeout.
func GetDefaultHTTPClient(cfg *Config) *http.Client {
	return GetHTTPClient(cfg, 30*time.Second)
}
