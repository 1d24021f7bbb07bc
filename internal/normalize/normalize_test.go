package normalize

import (
	"testing"
	"time"

	"github.com/forgeline/artifact-gateway/internal/types"
)

func TestExtractContent_ChatShape(t *testing.T) {
	raw := &types.RawResponse{
		Shape: types.ShapeChat,
		Chat: &types.ChatPayload{
			Choices: []types.ChatChoice{
				{Message: types.ChatMessage{Role: "assistant", Content: "first choice"}},
				{Message: types.ChatMessage{Role: "assistant", Content: "second choice"}},
			},
		},
	}

	if got := ExtractContent(raw); got != "first choice" {
		t.Errorf("Expected first choice content, got %q", got)
	}
}

func TestExtractContent_PlainTextShape(t *testing.T) {
	raw := &types.RawResponse{
		Shape: types.ShapePlainText,
		Text:  &types.TextPayload{Text: "plain text content"},
	}

	if got := ExtractContent(raw); got != "plain text content" {
		t.Errorf("Expected plain text content, got %q", got)
	}
}

func TestExtractContent_PreExtractedPassesThrough(t *testing.T) {
	raw := types.PreExtracted("already flattened")

	if got := ExtractContent(raw); got != "already flattened" {
		t.Errorf("Expected pass-through content, got %q", got)
	}
}

func TestExtractContent_MissingContent(t *testing.T) {
	tests := []struct {
		name string
		raw  *types.RawResponse
	}{
		{"nil response", nil},
		{"chat with nil payload", &types.RawResponse{Shape: types.ShapeChat}},
		{"chat with empty choices", &types.RawResponse{Shape: types.ShapeChat, Chat: &types.ChatPayload{}}},
		{"plain text with nil payload", &types.RawResponse{Shape: types.ShapePlainText}},
		{"empty pre-extracted", types.PreExtracted("")},
		{"unknown shape", &types.RawResponse{Shape: "mystery"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Missing content always yields the empty string, never a panic.
			if got := ExtractContent(tt.raw); got != "" {
				t.Errorf("Expected empty content, got %q", got)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	raw := types.PreExtracted("generated artifact")

	result := Normalize(raw, "fast-inference", "llama-3.3-70b-versatile", 1500*time.Millisecond, true)

	if result.Content != "generated artifact" {
		t.Errorf("Unexpected content: %q", result.Content)
	}
	if result.Provider != "fast-inference" {
		t.Errorf("Unexpected provider: %s", result.Provider)
	}
	if result.Model != "llama-3.3-70b-versatile" {
		t.Errorf("Unexpected model: %s", result.Model)
	}
	if result.ResponseTimeMs != 1500 {
		t.Errorf("Expected 1500ms, got %d", result.ResponseTimeMs)
	}
	if !result.FallbackUsed {
		t.Error("Fallback flag should carry through")
	}
}
