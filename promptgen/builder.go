package promptgen

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/rosieluu/simple-notes-app/core"
	"github.com/rosieluu/simple-notes-app/logging"
)

// systemInstructions steers the completion model toward short, concrete
// image prompts. English-only keeps downstream image models predictable.
const systemInstructions = `You are an expert in prompt engineering for image generation models.

STRICT RULES:
- MAX 180 characters (CRITICAL)
- Respond in ENGLISH only
- Use the content analysis provided
- Include specific visual details
- Avoid abstract concepts
- Format: "style, subject, composition, lighting, details"

Example: "photorealistic portrait, young professional, clean background, soft natural lighting, high detail"`

// chatClient is the slice of the go-openai client the builder needs.
// Satisfied by *openai.Client; tests substitute a fake.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// PromptContext carries the note fields the builder works from.
type PromptContext struct {
	Title          string
	Content        string
	Style          string
	ExistingImages int
}

// Builder produces image prompts from notes. The enhanced strategy asks a
// chat-completion model to write the prompt; any failure falls back to the
// deterministic basic strategy, so BuildPrompt never returns an error.
type Builder struct {
	client  chatClient
	model   string
	timeout time.Duration
	logger  *logging.Logger
}

// NewBuilder creates a Builder from configuration. Without a provider
// credential the builder runs in basic-only mode.
func NewBuilder(cfg *core.Config, logger *logging.Logger) *Builder {
	b := &Builder{
		model:   cfg.TextModel,
		timeout: cfg.TextTimeout,
		logger:  logger.Named("promptgen"),
	}

	if cfg.HasProviderCredential() {
		clientConfig := openai.DefaultConfig(cfg.OpenRouterAPIKey)
		if cfg.OpenRouterBaseURL != "" {
			clientConfig.BaseURL = cfg.OpenRouterBaseURL
		}
		clientConfig.HTTPClient = core.GetHTTPClient(cfg, cfg.TextTimeout)
		b.client = openai.NewClientWithConfig(clientConfig)
	}

	return b
}

// NewBuilderWithClient creates a Builder around an existing client. Used by
// tests.
func NewBuilderWithClient(client chatClient, model string, timeout time.Duration, logger *logging.Logger) *Builder {
	return &Builder{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger.Named("promptgen"),
	}
}

// BuildPrompt returns a prompt for the note, enhanced when a model is
// available and basic otherwise. The result is always non-empty and within
// the character budget.
func (b *Builder) BuildPrompt(ctx context.Context, pc PromptContext) string {
	style := pc.Style
	if !IsValidStyle(style) {
		style = StylePhotorealistic
	}

	if b.client == nil {
		return BuildBasicPrompt(pc.Title, pc.Content, style)
	}

	prompt, err := b.buildEnhanced(ctx, pc, style)
	if err != nil {
		b.logger.Warnw("Enhanced prompt failed, using basic strategy",
			"error", err,
			"style", style,
		)
		return BuildBasicPrompt(pc.Title, pc.Content, style)
	}
	return prompt
}

func (b *Builder) buildEnhanced(ctx context.Context, pc PromptContext, style string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	analysis := AnalyzeContext(pc.Title, pc.Content, style)

	userMessage := fmt.Sprintf(`Content Analysis: %s

Note Title: %q
Note Content: %q
Requested Style: %s`, analysis, pc.Title, pc.Content, style)
	if pc.ExistingImages > 0 {
		userMessage += fmt.Sprintf("\nExisting Images: %d", pc.ExistingImages)
	}
	userMessage += "\n\nGenerate an optimized prompt in English, max 180 characters."

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstructions},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		MaxTokens:   60,
		Temperature: 0.1,
		TopP:        0.9,
	})
	if err != nil {
		return "", fmt.Errorf("promptgen: completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("promptgen: completion returned no choices")
	}

	prompt := strings.TrimSpace(resp.Choices[0].Message.Content)
	prompt = strings.NewReplacer(`"`, "", `'`, "").Replace(prompt)
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("promptgen: completion returned empty prompt")
	}

	return TruncatePrompt(prompt), nil
}
