package routing

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forgeline/artifact-gateway/internal/normalize"
	"github.com/forgeline/artifact-gateway/internal/registry"
	"github.com/forgeline/artifact-gateway/internal/types"
)

// DefaultAttemptTimeout bounds a single adapter call. Without it a hung
// provider would stall the whole fallback chain.
const DefaultAttemptTimeout = 60 * time.Second

// Router decides which adapter serves a request, executes it, and recovers
// from failure by walking the kind's fallback order. Adapters are tried one
// at a time, in order; each call is a paid external request, so candidates
// are never raced.
type Router struct {
	registry       *registry.Registry
	policy         Policy
	attemptTimeout time.Duration
	logger         *logrus.Logger
}

// NewRouter creates a router over a registry. A non-positive attemptTimeout
// falls back to DefaultAttemptTimeout.
func NewRouter(reg *registry.Registry, policy Policy, attemptTimeout time.Duration, logger *logrus.Logger) *Router {
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	return &Router{
		registry:       reg,
		policy:         policy,
		attemptTimeout: attemptTimeout,
		logger:         logger,
	}
}

// Route selects candidates per the kind's policy and tries them sequentially.
// Every attempt, success or failure, is recorded against the specific adapter
// before the next candidate is tried. When all candidates fail the returned
// error is an *AllProvidersFailedError.
func (r *Router) Route(ctx context.Context, kind types.RequestKind, req *types.GenerateRequest) (*types.RouteResult, error) {
	candidates, err := r.policy.Candidates(kind, req, r.registry.IsHealthy)
	if err != nil {
		return nil, err
	}

	var attempted []string
	var firstErr error

	for _, name := range candidates {
		adapter, err := r.registry.Adapter(name)
		if err != nil {
			// Policy references a name missing from the registry; a
			// configuration error, surfaced as a failed attempt.
			r.logger.WithError(err).WithField("provider", name).Error("Policy references unregistered provider")
			attempted = append(attempted, name)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		attemptCtx, cancel := context.WithTimeout(ctx, r.attemptTimeout)
		start := time.Now()
		raw, err := adapter.Generate(attemptCtx, kind, req)
		elapsed := time.Since(start)
		cancel()

		r.registry.RecordAttempt(name, elapsed.Milliseconds(), err == nil)
		attempted = append(attempted, name)

		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			r.logger.WithError(err).WithFields(logrus.Fields{
				"provider":    name,
				"kind":        kind,
				"duration_ms": elapsed.Milliseconds(),
			}).Warn("Adapter attempt failed, trying next candidate")
			continue
		}

		fallbackUsed := len(attempted) > 1
		result := normalize.Normalize(raw, name, adapter.Model(), elapsed, fallbackUsed)
		result.AttemptedProviders = attempted

		r.logger.WithFields(logrus.Fields{
			"provider":      name,
			"kind":          kind,
			"fallback_used": fallbackUsed,
			"attempts":      len(attempted),
			"duration_ms":   elapsed.Milliseconds(),
		}).Info("Request routed")

		return result, nil
	}

	r.logger.WithFields(logrus.Fields{
		"kind":      kind,
		"attempted": attempted,
	}).Error("All providers failed")

	// The cause is the original failure, the one that started the fallback
	// walk, not whichever candidate happened to fail last.
	return nil, &AllProvidersFailedError{
		Kind:      string(kind),
		Attempted: attempted,
		Cause:     firstErr,
	}
}
