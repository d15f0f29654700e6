package imagegen

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/rosieluu/simple-notes-app/core"
)

// Error categories for fallback image styling.
const (
	ErrorTypeInsufficientCredits = "insufficient_credits"
	ErrorTypeModelUnavailable    = "model_unavailable"
	ErrorTypeUndefinedProperties = "undefined_properties"
	ErrorTypeGenericError        = "generic_error"
)

// PlaceholderURL is the last-resort image when even local SVG synthesis is
// unusable.
const PlaceholderURL = "https://via.placeholder.com/512x512/4F46E5/FFFFFF?text=Image+Preview"

// fallbackStyle styles the fallback panel per error category.
type fallbackStyle struct {
	panelColor string
	emoji      string
	label      string
}

var fallbackStyles = map[string]fallbackStyle{
	ErrorTypeInsufficientCredits: {panelColor: "#FF6B6B", emoji: "💳", label: "Credits Required"},
	ErrorTypeModelUnavailable:    {panelColor: "#4ECDC4", emoji: "🤖", label: "Model Offline"},
	ErrorTypeUndefinedProperties: {panelColor: "#45B7D1", emoji: "🛡️", label: "Code Error"},
	ErrorTypeGenericError:        {panelColor: "#96CEB4", emoji: "🔄", label: "Fallback Mode"},
}

// ClassifyError maps a provider error to a fallback error category.
func ClassifyError(err error) string {
	if err == nil {
		return ErrorTypeGenericError
	}

	switch core.GetErrorCode(err) {
	case core.ErrCodeInsufficientCredits:
		return ErrorTypeInsufficientCredits
	case core.ErrCodeProviderUnavailable:
		return ErrorTypeModelUnavailable
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "undefined") || strings.Contains(msg, "nil pointer") {
		return ErrorTypeUndefinedProperties
	}
	return ErrorTypeGenericError
}

var nonWordChars = regexp.MustCompile(`[^\w\s]`)

// promptKeywords extracts up to three display words from the prompt,
// skipping short filler words. Returns "Image" when nothing qualifies.
func promptKeywords(prompt string) string {
	cleaned := nonWordChars.ReplaceAllString(prompt, "")

	var keywords []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) > 3 {
			keywords = append(keywords, word)
			if len(keywords) == 3 {
				break
			}
		}
	}
	if len(keywords) == 0 {
		return "Image"
	}
	return strings.Join(keywords, " ")
}

// GenerateFallbackSVG synthesizes a 512x512 placeholder image for a failed
// generation and returns it as a base64 SVG data URL. Never errors; the
// caller can always store and display the result.
func GenerateFallbackSVG(prompt, errorType string) string {
	style, ok := fallbackStyles[errorType]
	if !ok {
		style = fallbackStyles[ErrorTypeGenericError]
	}

	keywords := escapeXML(promptKeywords(prompt))

	svg := fmt.Sprintf(`<svg width="512" height="512" xmlns="http://www.w3.org/2000/svg">
  <rect width="100%%" height="100%%" fill="#4F46E5"/>
  <rect x="56" y="156" width="400" height="200" rx="16" fill="%s"/>
  <text x="50%%" y="42%%" font-family="Arial, sans-serif" font-size="48" text-anchor="middle">%s</text>
  <text x="50%%" y="52%%" font-family="Arial, sans-serif" font-size="26" fill="#FFFFFF" text-anchor="middle" font-weight="bold">%s</text>
  <text x="50%%" y="62%%" font-family="Arial, sans-serif" font-size="18" fill="#FFFFFF" text-anchor="middle">%s</text>
</svg>`, style.panelColor, style.emoji, escapeXML(style.label), keywords)

	encoded := base64.StdEncoding.EncodeToString([]byte(svg))
	return "data:image/svg+xml;base64," + encoded
}

// FallbackPrompt marks a prompt as having gone through the fallback path.
func FallbackPrompt(prompt, errorType string) string {
	return fmt.Sprintf("[Fallback: %s] %s", errorType, prompt)
}

func escapeXML(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return replacer.Replace(s)
}
