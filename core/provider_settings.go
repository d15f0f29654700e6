package core

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderSettings is the optional YAML overlay for provider and model
// configuration. Environment variables set the baseline; any non-zero field
// in the file overrides it. The file is optional, a missing default path is
// not an error.
//
// Example providers.yaml:
//
//	base_url: https://openrouter.ai/api/v1
//	text_model: google/gemini-2.5-flash
//	image_model: google/gemini-2.5-flash-image-preview
//	text_timeout_seconds: 30
//	image_timeout_seconds: 60
type ProviderSettings struct {
	BaseURL             string `yaml:"base_url"`
	TextModel           string `yaml:"text_model"`
	ImageModel          string `yaml:"image_model"`
	TextTimeoutSeconds  int    `yaml:"text_timeout_seconds"`
	ImageTimeoutSeconds int    `yaml:"image_timeout_seconds"`
}

// applyProviderSettings loads the overlay file and applies non-zero fields
// onto cfg. A missing file is ignored; a malformed file is an error.
func applyProviderSettings(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	var settings ProviderSettings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	settings.ApplyTo(cfg)
	return nil
}

// ApplyTo overrides cfg with every non-zero field of the settings.
func (s *ProviderSettings) ApplyTo(cfg *Config) {
	if s.BaseURL != "" {
		cfg.OpenRouterBaseURL = s.BaseURL
	}
	if s.TextModel != "" {
		cfg.TextModel = s.TextModel
	}
	if s.ImageModel != "" {
		cfg.ImageModel = s.ImageModel
	}
	if s.TextTimeoutSeconds > 0 {
		cfg.TextTimeout = time.Duration(s.TextTimeoutSeconds) * time.Second
	}
	if s.ImageTimeoutSeconds > 0 {
		cfg.ImageTimeout = time.Duration(s.ImageTimeoutSeconds) * time.Second
	}
}
