// Package normalize converts heterogeneous adapter payloads into the flat
// RouteResult shape. Pure functions only: no I/O, no side effects.
package normalize

import (
	"time"

	"github.com/forgeline/artifact-gateway/internal/types"
)

// Normalize wraps a raw provider payload into a RouteResult. A payload with
// missing or empty content yields an empty content string, never an error;
// pre-extracted content passes through unchanged.
func Normalize(raw *types.RawResponse, provider, model string, elapsed time.Duration, fallbackUsed bool) *types.RouteResult {
	return &types.RouteResult{
		Content:        ExtractContent(raw),
		Provider:       provider,
		Model:          model,
		ResponseTimeMs: elapsed.Milliseconds(),
		FallbackUsed:   fallbackUsed,
	}
}

// ExtractContent pulls the generated text out of whichever shape the provider
// returned.
func ExtractContent(raw *types.RawResponse) string {
	if raw == nil {
		return ""
	}

	switch raw.Shape {
	case types.ShapeChat:
		if raw.Chat == nil || len(raw.Chat.Choices) == 0 {
			return ""
		}
		return raw.Chat.Choices[0].Message.Content
	case types.ShapePlainText:
		if raw.Text == nil {
			return ""
		}
		return raw.Text.Text
	case types.ShapePreExtracted:
		return raw.Extracted
	default:
		return ""
	}
}
