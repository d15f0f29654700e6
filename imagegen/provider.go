// Package imagegen turns note prompts into stored note images: a provider
// client for OpenRouter-style image generation, a local SVG fallback for
// provider failures, and the pipeline that orchestrates a generation task
// end to end.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rosieluu/simple-notes-app/core"
	"github.com/rosieluu/simple-notes-app/logging"
)

// GenerateRequest asks a provider for one image.
type GenerateRequest struct {
	Prompt      string
	Style       string
	AspectRatio string
}

// GenerateResult carries the provider's output. ImageURL is usually a
// base64 data URL, but plain HTTP URLs are accepted too.
type GenerateResult struct {
	ImageURL string
}

// Provider generates an image for a prompt.
type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// OpenRouterProvider calls an OpenRouter-compatible chat/completions
// endpoint with image modalities.
type OpenRouterProvider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewOpenRouterProvider creates a provider from configuration. The HTTP
// client carries the image timeout; callers do not need their own deadline.
func NewOpenRouterProvider(cfg *core.Config, logger *logging.Logger) *OpenRouterProvider {
	return &OpenRouterProvider{
		apiKey:     cfg.OpenRouterAPIKey,
		baseURL:    strings.TrimRight(cfg.OpenRouterBaseURL, "/"),
		model:      cfg.ImageModel,
		httpClient: core.GetHTTPClient(cfg, cfg.ImageTimeout),
		logger:     logger.Named("imagegen"),
	}
}

// chatImageRequest is the OpenRouter request body for image generation.
type chatImageRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Modalities []string      `json:"modalities"`
	ImageConfig struct {
		AspectRatio string `json:"aspect_ratio"`
	} `json:"image_config"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatImageResponse is the subset of the response the provider reads.
type chatImageResponse struct {
	Choices []struct {
		Message struct {
			Images []struct {
				ImageURL struct {
					URL string `json:"url"`
				} `json:"image_url"`
			} `json:"images"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate posts the prompt and returns the generated image URL.
//
// A 402 status or a body mentioning "Insufficient credits" maps to
// INSUFFICIENT_CREDITS; any other failure maps to PROVIDER_UNAVAILABLE.
func (p *OpenRouterProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if p.apiKey == "" {
		return nil, core.ErrProviderUnavailable("openrouter", "OPENROUTER_API_KEY missing")
	}

	body := chatImageRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "user", Content: req.Prompt},
		},
		Modalities: []string{"image", "text"},
	}
	body.ImageConfig.AspectRatio = req.AspectRatio

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("imagegen: failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("imagegen: failed to build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	p.logger.Debugw("Requesting image generation",
		"model", p.model,
		"aspect_ratio", req.AspectRatio,
		"prompt_length", len(req.Prompt),
	)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.ErrProviderUnavailable("openrouter", err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, core.ErrProviderUnavailable("openrouter", fmt.Sprintf("reading response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusPaymentRequired || strings.Contains(string(respBody), "Insufficient credits") {
			return nil, core.ErrInsufficientCredits("openrouter")
		}
		return nil, core.ErrProviderUnavailable("openrouter", fmt.Sprintf("status %d", resp.StatusCode))
	}

	var parsed chatImageResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, core.ErrProviderUnavailable("openrouter", "malformed response body")
	}
	if len(parsed.Choices) == 0 || len(parsed.Choices[0].Message.Images) == 0 {
		return nil, core.ErrProviderUnavailable("openrouter", "response contains no image")
	}

	url := parsed.Choices[0].Message.Images[0].ImageURL.URL
	if url == "" {
		return nil, core.ErrProviderUnavailable("openrouter", "response image has no URL")
	}

	return &GenerateResult{ImageURL: url}, nil
}
