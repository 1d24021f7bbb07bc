package types

// ResponseShape tags the payload variant an adapter returned. Providers
// disagree on where generated text lives; the normalizer matches on the tag
// instead of probing optional fields.
type ResponseShape string

const (
	// ShapeChat is a chat-completion style payload: choices[0].message.content.
	ShapeChat ResponseShape = "chat"
	// ShapePlainText is a payload with a single top-level text field.
	ShapePlainText ResponseShape = "plain_text"
	// ShapePreExtracted is content the adapter already flattened to a string.
	ShapePreExtracted ResponseShape = "pre_extracted"
)

// RawResponse is the tagged union of provider response payloads. Exactly one
// of Chat, Text, or Extracted is meaningful, per Shape.
type RawResponse struct {
	Shape ResponseShape `json:"shape"`

	Chat      *ChatPayload `json:"chat,omitempty"`
	Text      *TextPayload `json:"text,omitempty"`
	Extracted string       `json:"extracted,omitempty"`
}

// ChatPayload mirrors the chat-completion response structure shared by the
// OpenAI-compatible providers.
type ChatPayload struct {
	Choices []ChatChoice `json:"choices"`
}

type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TextPayload is a provider response with the generated text at the top level.
type TextPayload struct {
	Text string `json:"text"`
}

// PreExtracted wraps already-flattened content in a RawResponse.
func PreExtracted(content string) *RawResponse {
	return &RawResponse{Shape: ShapePreExtracted, Extracted: content}
}
