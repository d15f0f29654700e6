// Package promptgen builds image-generation prompts from note content. The
// pure classification helpers live in this file; the LLM-backed enhanced
// strategy is in builder.go.
package promptgen

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxPromptLength is the character budget image models accept reliably.
const MaxPromptLength = 180

// Recognized style identifiers.
const (
	StylePhotorealistic = "photorealistic"
	StyleArtistic       = "artistic"
	StyleCartoon        = "cartoon"
	StyleMinimalist     = "minimalist"
)

// ValidStyles lists the accepted style identifiers for request validation.
var ValidStyles = []string{StylePhotorealistic, StyleArtistic, StyleCartoon, StyleMinimalist}

// ValidAspectRatios lists the aspect ratios the image provider accepts.
var ValidAspectRatios = []string{"1:1", "3:4", "4:3", "16:9", "9:16"}

// contentTypeRules maps keyword groups to a content type. Order matters:
// the first matching group wins.
var contentTypeRules = []struct {
	contentType string
	keywords    []string
}{
	{"meeting", []string{"meeting", "notes", "agenda"}},
	{"concept", []string{"idea", "concept", "brainstorm"}},
	{"task", []string{"task", "todo", "action"}},
	{"project", []string{"project", "plan"}},
	{"personal", []string{"personal", "diary", "journal"}},
	{"recipe", []string{"recipe", "food", "cuisine"}},
	{"travel", []string{"travel", "trip"}},
	{"technical", []string{"code", "programming"}},
}

// moodRules maps keyword groups to a mood, first match wins.
var moodRules = []struct {
	mood     string
	keywords []string
}{
	{"positive", []string{"excited", "amazing", "great", "wonderful", "fantastic"}},
	{"urgent", []string{"urgent", "important", "critical", "deadline"}},
	{"calm", []string{"calm", "peaceful", "relaxed", "meditation"}},
	{"creative", []string{"creative", "artistic", "design", "inspiration"}},
	{"serious", []string{"problem", "issue", "difficult", "challenge"}},
}

// visualElements suggests scene elements per (content type, style).
var visualElements = map[string]map[string]string{
	"meeting": {
		StylePhotorealistic: "conference room, professional lighting, modern space",
		StyleArtistic:       "abstract collaboration, geometric shapes, corporate colors",
		StyleMinimalist:     "simple meeting space, white background, clean lines",
	},
	"concept": {
		StylePhotorealistic: "lightbulb, brainstorming whiteboard, bright workspace",
		StyleArtistic:       "abstract idea visualization, flowing shapes, vibrant colors",
		StyleMinimalist:     "simple icon, clean background, focused composition",
	},
	"travel": {
		StylePhotorealistic: "scenic destination, natural lighting, landscape view",
		StyleArtistic:       "stylized map, travel icons, wanderlust aesthetic",
		StyleMinimalist:     "simple travel symbol, clean design, neutral tones",
	},
	"recipe": {
		StylePhotorealistic: "food photography, natural lighting, appetizing presentation",
		StyleArtistic:       "illustrated ingredients, cookbook style, warm colors",
		StyleMinimalist:     "simple food icon, clean plating, white background",
	},
}

// styleDescriptors expands a style identifier into prompt phrasing.
var styleDescriptors = map[string]string{
	StylePhotorealistic: "photorealistic, high quality, detailed",
	StyleArtistic:       "artistic, creative, stylized",
	StyleCartoon:        "cartoon style, colorful, animated",
	StyleMinimalist:     "minimalist, clean, simple",
}

// ClassifyContentType derives a coarse content type from the note's title
// and content. Rules are checked in a fixed order and the first keyword hit
// wins, so "meeting to brainstorm ideas" classifies as meeting.
func ClassifyContentType(title, content string) string {
	text := strings.ToLower(title + " " + content)
	for _, rule := range contentTypeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.contentType
			}
		}
	}
	return "general"
}

// AnalyzeMood derives a mood from the note content, first keyword hit wins.
func AnalyzeMood(content string) string {
	text := strings.ToLower(content)
	for _, rule := range moodRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.mood
			}
		}
	}
	return "neutral"
}

// SuggestVisualElements returns scene elements for the (content type,
// style) pair, or a generic composition when the pair has no entry.
func SuggestVisualElements(contentType, style string) string {
	if byStyle, ok := visualElements[contentType]; ok {
		if elements, ok := byStyle[style]; ok {
			return elements
		}
	}
	return "professional composition, good lighting, clear details"
}

// AnalyzeContext summarizes a note for the enhanced prompt strategy.
func AnalyzeContext(title, content, style string) string {
	contentType := ClassifyContentType(title, content)
	mood := AnalyzeMood(content)
	visual := SuggestVisualElements(contentType, style)
	return fmt.Sprintf("Type: %s, Mood: %s, Visual: %s", contentType, mood, visual)
}

// BuildBasicPrompt assembles a deterministic prompt from the note without
// calling any model. Always returns a non-empty prompt within the
// character budget.
func BuildBasicPrompt(title, content, style string) string {
	baseStyle, ok := styleDescriptors[style]
	if !ok {
		baseStyle = StylePhotorealistic
	}

	subject := title
	if subject == "" {
		subject = "abstract concept"
	}

	details := "creative interpretation"
	if content != "" {
		details = truncateRunes(content, 40)
	}

	prompt := fmt.Sprintf("%s, %s, %s, professional lighting", baseStyle, subject, details)
	return truncateRunes(prompt, MaxPromptLength)
}

// DetermineAspectRatio picks an aspect ratio from prompt wording, falling
// back on the style. Rules are ordered: subject hints beat style hints.
func DetermineAspectRatio(prompt, style string) string {
	p := strings.ToLower(prompt)

	if containsAny(p, "portrait", "person", "face", "headshot") {
		return "3:4"
	}
	if containsAny(p, "landscape", "panorama", "skyline", "horizon") {
		return "16:9"
	}
	if containsAny(p, "product", "object", "item", "tool") {
		return "1:1"
	}
	if containsAny(p, "story", "social", "mobile") {
		return "9:16"
	}
	if style == StyleArtistic || style == StyleMinimalist {
		return "1:1"
	}
	return "1:1"
}

// IsValidStyle reports whether the style identifier is recognized.
func IsValidStyle(style string) bool {
	_, ok := styleDescriptors[style]
	return ok
}

// IsValidAspectRatio reports whether the aspect ratio is one the provider
// accepts.
func IsValidAspectRatio(ratio string) bool {
	for _, r := range ValidAspectRatios {
		if r == ratio {
			return true
		}
	}
	return false
}

// TruncatePrompt enforces the character budget, marking the cut with an
// ellipsis.
func TruncatePrompt(prompt string) string {
	if utf8.RuneCountInString(prompt) <= MaxPromptLength {
		return prompt
	}
	return truncateRunes(prompt, MaxPromptLength-3) + "..."
}

// truncateRunes cuts s to at most n runes. Cutting on rune boundaries
// keeps truncated prompts valid UTF-8.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
