package adapters

import (
	"fmt"

	"github.com/forgeline/artifact-gateway/internal/types"
)

// InstructionFor returns the system instruction for an artifact kind.
func InstructionFor(kind types.RequestKind) string {
	switch kind {
	case types.KindMindmap:
		return "You are a product analyst. Produce a hierarchical mindmap of the described project as an indented outline, one node per line."
	case types.KindPRD:
		return "You are a senior product manager. Write a product requirements document for the described project with sections for overview, goals, user stories, functional requirements and success metrics."
	case types.KindCode, types.KindNodeCode:
		return "You are a senior software engineer. Generate clean, runnable starter code for the described project. Respond with code only."
	default:
		return "You are a helpful assistant."
	}
}

// UserPrompt renders the request payload into the user-facing prompt text.
func UserPrompt(kind types.RequestKind, req *types.GenerateRequest) string {
	prompt := req.Prompt()
	if req.Description != "" && req.Subject != "" {
		prompt = fmt.Sprintf("%s\n\n%s", req.Subject, req.Description)
	}
	if (kind == types.KindCode || kind == types.KindNodeCode) && req.Language != "" {
		prompt = fmt.Sprintf("%s\n\nTarget language: %s", prompt, req.Language)
	}
	if kind == types.KindNodeCode {
		prompt = fmt.Sprintf("%s\n\nUse Node.js with Express.", prompt)
	}
	return prompt
}
