package types

import (
	"time"
)

// RouteResult is the normalized output of a routed generation request.
type RouteResult struct {
	Content            string   `json:"content"`
	Provider           string   `json:"provider"`
	Model              string   `json:"model"`
	ResponseTimeMs     int64    `json:"response_time_ms"`
	FallbackUsed       bool     `json:"fallback_used"`
	AttemptedProviders []string `json:"attempted_providers"`
}

// HealthStatus is the outcome of a single adapter health check.
type HealthStatus struct {
	Status         string    `json:"status"` // "healthy" or "unhealthy"
	ResponseTimeMs int64     `json:"response_time_ms,omitempty"`
	Error          string    `json:"error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Healthy reports whether the status marks the adapter as serviceable.
func (h *HealthStatus) Healthy() bool {
	return h != nil && h.Status == StatusHealthy
}

// AdapterStatus is one entry of the registry snapshot returned by the
// gateway status endpoint.
type AdapterStatus struct {
	Healthy           bool      `json:"healthy"`
	RequestCount      uint64    `json:"request_count"`
	AvgResponseTimeMs float64   `json:"avg_response_time_ms"`
	ErrorRatePercent  float64   `json:"error_rate_percent"`
	LastHealthCheckAt time.Time `json:"last_health_check_at"`
}

// GatewayStatus aggregates the registry snapshot for the status endpoint.
type GatewayStatus struct {
	Providers     map[string]AdapterStatus `json:"providers"`
	TotalRequests uint64                   `json:"total_requests"`
	Timestamp     time.Time                `json:"timestamp"`
}
