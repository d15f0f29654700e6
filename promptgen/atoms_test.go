package promptgen

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClassifyContentType(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		content string
		want    string
	}{
		{name: "meeting keyword", title: "Weekly meeting", content: "", want: "meeting"},
		{name: "agenda in content", title: "Monday", content: "agenda for the week", want: "meeting"},
		{name: "meeting beats concept", title: "Team meeting to brainstorm ideas", content: "", want: "meeting"},
		{name: "concept", title: "New idea", content: "", want: "concept"},
		{name: "task", title: "", content: "todo: buy milk", want: "task"},
		{name: "project", title: "Launch plan", content: "", want: "project"},
		{name: "personal", title: "Dear diary", content: "", want: "personal"},
		{name: "recipe", title: "Pasta recipe", content: "", want: "recipe"},
		{name: "travel", title: "Road trip", content: "", want: "travel"},
		{name: "technical", title: "", content: "refactor the programming exercise", want: "technical"},
		{name: "case insensitive", title: "MEETING", content: "", want: "meeting"},
		{name: "no match", title: "Sunset", content: "over the mountains", want: "general"},
		{name: "empty", title: "", content: "", want: "general"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyContentType(tt.title, tt.content); got != tt.want {
				t.Errorf("ClassifyContentType(%q, %q) = %q, want %q", tt.title, tt.content, got, tt.want)
			}
		})
	}
}

func TestAnalyzeMood(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "positive", content: "this is amazing news", want: "positive"},
		{name: "urgent", content: "deadline is tomorrow", want: "urgent"},
		{name: "calm", content: "morning meditation session", want: "calm"},
		{name: "creative", content: "design inspiration board", want: "creative"},
		{name: "serious", content: "we hit a difficult problem", want: "serious"},
		{name: "positive beats urgent", content: "great but urgent", want: "positive"},
		{name: "neutral", content: "grocery list", want: "neutral"},
		{name: "empty", content: "", want: "neutral"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AnalyzeMood(tt.content); got != tt.want {
				t.Errorf("AnalyzeMood(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestSuggestVisualElements(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		style       string
		want        string
	}{
		{
			name:        "meeting photorealistic",
			contentType: "meeting",
			style:       StylePhotorealistic,
			want:        "conference room, professional lighting, modern space",
		},
		{
			name:        "recipe artistic",
			contentType: "recipe",
			style:       StyleArtistic,
			want:        "illustrated ingredients, cookbook style, warm colors",
		},
		{
			name:        "travel minimalist",
			contentType: "travel",
			style:       StyleMinimalist,
			want:        "simple travel symbol, clean design, neutral tones",
		},
		{
			name:        "unknown content type",
			contentType: "general",
			style:       StylePhotorealistic,
			want:        "professional composition, good lighting, clear details",
		},
		{
			name:        "known type unknown style",
			contentType: "meeting",
			style:       StyleCartoon,
			want:        "professional composition, good lighting, clear details",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SuggestVisualElements(tt.contentType, tt.style); got != tt.want {
				t.Errorf("SuggestVisualElements(%q, %q) = %q, want %q", tt.contentType, tt.style, got, tt.want)
			}
		})
	}
}

func TestBuildBasicPrompt(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		content string
		style   string
		want    string
	}{
		{
			name:    "full note",
			title:   "Sunset",
			content: "over the mountains",
			style:   StylePhotorealistic,
			want:    "photorealistic, high quality, detailed, Sunset, over the mountains, professional lighting",
		},
		{
			name:  "empty note",
			title: "",
			style: StyleMinimalist,
			want:  "minimalist, clean, simple, abstract concept, creative interpretation, professional lighting",
		},
		{
			name:    "unknown style collapses to bare identifier",
			title:   "Sketch",
			content: "a cat",
			style:   "watercolor",
			want:    "photorealistic, Sketch, a cat, professional lighting",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildBasicPrompt(tt.title, tt.content, tt.style); got != tt.want {
				t.Errorf("BuildBasicPrompt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildBasicPrompt_Budget(t *testing.T) {
	long := strings.Repeat("x", 500)

	got := BuildBasicPrompt(long, long, StyleArtistic)
	if got == "" {
		t.Fatal("BuildBasicPrompt() returned empty prompt")
	}
	if len(got) > MaxPromptLength {
		t.Errorf("BuildBasicPrompt() length = %d, want <= %d", len(got), MaxPromptLength)
	}

	// Content contributes at most its first 40 characters
	if !strings.Contains(got, "artistic, creative, stylized") {
		t.Errorf("BuildBasicPrompt() = %q, missing style phrase", got)
	}
}

func TestDetermineAspectRatio(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		style  string
		want   string
	}{
		{name: "portrait", prompt: "portrait of a musician", style: StylePhotorealistic, want: "3:4"},
		{name: "person", prompt: "a person reading", style: StylePhotorealistic, want: "3:4"},
		{name: "landscape", prompt: "landscape panorama at dawn", style: StylePhotorealistic, want: "16:9"},
		{name: "skyline", prompt: "city skyline", style: StyleArtistic, want: "16:9"},
		{name: "product", prompt: "product shot of a watch", style: StylePhotorealistic, want: "1:1"},
		{name: "story", prompt: "mobile story graphic", style: StylePhotorealistic, want: "9:16"},
		{name: "subject beats style", prompt: "portrait sketch", style: StyleMinimalist, want: "3:4"},
		{name: "minimalist style", prompt: "a quiet scene", style: StyleMinimalist, want: "1:1"},
		{name: "artistic style", prompt: "a quiet scene", style: StyleArtistic, want: "1:1"},
		{name: "default", prompt: "a quiet scene", style: StylePhotorealistic, want: "1:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineAspectRatio(tt.prompt, tt.style); got != tt.want {
				t.Errorf("DetermineAspectRatio(%q, %q) = %q, want %q", tt.prompt, tt.style, got, tt.want)
			}
		})
	}
}

func TestTruncatePrompt(t *testing.T) {
	short := "a short prompt"
	if got := TruncatePrompt(short); got != short {
		t.Errorf("TruncatePrompt() modified a short prompt: %q", got)
	}

	long := strings.Repeat("y", 300)
	got := TruncatePrompt(long)
	if len(got) != MaxPromptLength {
		t.Errorf("TruncatePrompt() length = %d, want %d", len(got), MaxPromptLength)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("TruncatePrompt() = %q, want ellipsis suffix", got[len(got)-10:])
	}
}

func TestValidators(t *testing.T) {
	for _, style := range ValidStyles {
		if !IsValidStyle(style) {
			t.Errorf("IsValidStyle(%q) = false", style)
		}
	}
	if IsValidStyle("oil-painting") {
		t.Error("IsValidStyle(oil-painting) = true")
	}

	for _, ratio := range []string{"1:1", "3:4", "4:3", "16:9", "9:16"} {
		if !IsValidAspectRatio(ratio) {
			t.Errorf("IsValidAspectRatio(%q) = false", ratio)
		}
	}
	if IsValidAspectRatio("2:1") {
		t.Error("IsValidAspectRatio(2:1) = true")
	}
}

func TestTruncationKeepsValidUTF8(t *testing.T) {
	accented := strings.Repeat("é", 300)

	got := TruncatePrompt(accented)
	if !utf8.ValidString(got) {
		t.Errorf("TruncatePrompt() produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != MaxPromptLength {
		t.Errorf("TruncatePrompt() rune count = %d, want %d", n, MaxPromptLength)
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("TruncatePrompt() missing ellipsis suffix")
	}

	basic := BuildBasicPrompt("Café", strings.Repeat("û", 60), StylePhotorealistic)
	if !utf8.ValidString(basic) {
		t.Errorf("BuildBasicPrompt() produced invalid UTF-8: %q", basic)
	}
	if !strings.Contains(basic, strings.Repeat("û", 40)+",") {
		t.Errorf("BuildBasicPrompt() = %q, want content cut at 40 runes", basic)
	}
}
