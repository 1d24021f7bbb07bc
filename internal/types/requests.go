package types

import (
	"time"
)

// RequestKind identifies the artifact a caller wants generated.
type RequestKind string

const (
	KindMindmap  RequestKind = "mindmap"
	KindCode     RequestKind = "code"
	KindNodeCode RequestKind = "node-code"
	KindPRD      RequestKind = "prd"
)

// Priority values recognized by the routing policy.
const (
	PrioritySpeed = "speed"
)

// Complexity values recognized by the routing policy.
const (
	ComplexityLow           = "low"
	ComplexityComprehensive = "comprehensive"
)

// GenerateRequest is the payload for a single artifact generation.
type GenerateRequest struct {
	ID          string `json:"id"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`

	// Routing hints
	Priority   string `json:"priority,omitempty"`   // e.g. "speed"
	Complexity string `json:"complexity,omitempty"` // e.g. "low", "comprehensive"
	Language   string `json:"language,omitempty"`   // target language for code artifacts

	// ProjectID links the generated artifact to a stored project record.
	ProjectID string `json:"project_id,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Prompt returns the subject text, falling back to the description. Callers
// validate that at least one is present before routing.
func (r *GenerateRequest) Prompt() string {
	if r.Subject != "" {
		return r.Subject
	}
	return r.Description
}
