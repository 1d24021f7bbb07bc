package adapters

import (
	"context"

	"github.com/forgeline/artifact-gateway/internal/types"
)

// ProviderAdapter wraps one external AI provider behind a uniform
// generate/health-check contract. The router is polymorphic over this
// interface, never over concrete adapter types.
type ProviderAdapter interface {
	// Name returns the stable registry name of the adapter.
	Name() string

	// Model returns the provider model the adapter generates with.
	Model() string

	// Generate produces the raw provider payload for an artifact request.
	Generate(ctx context.Context, kind types.RequestKind, req *types.GenerateRequest) (*types.RawResponse, error)

	// HealthCheck probes the upstream API. A returned error means the probe
	// itself failed; the monitor converts it to an unhealthy status.
	HealthCheck(ctx context.Context) (*types.HealthStatus, error)
}
