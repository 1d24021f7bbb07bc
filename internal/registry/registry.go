package registry

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forgeline/artifact-gateway/internal/adapters"
	"github.com/forgeline/artifact-gateway/internal/types"
)

var (
	// ErrDuplicateProvider is returned when a name is registered twice.
	ErrDuplicateProvider = errors.New("provider already registered")
	// ErrProviderNotFound is returned when a name has no registered adapter.
	ErrProviderNotFound = errors.New("provider not registered")
)

// Record is the per-adapter state owned by the registry. The health monitor
// mutates the health fields, the router mutates the counters; both go through
// registry methods that hold the lock.
type Record struct {
	Name              string
	Adapter           adapters.ProviderAdapter
	Healthy           bool
	LastHealthCheckAt time.Time
	LastStatus        *types.HealthStatus
	RequestCount      uint64
	ErrorCount        uint64
	AvgResponseTimeMs float64
}

// Registry holds the set of registered adapters plus live health and metric
// state. Safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	records map[string]*Record
	names   []string // registration order
	logger  *logrus.Logger
}

// New creates an empty registry.
func New(logger *logrus.Logger) *Registry {
	return &Registry{
		records: make(map[string]*Record),
		logger:  logger,
	}
}

// Register adds an adapter under a stable name. Adapters start healthy with
// zeroed counters; records live for the whole process lifetime.
func (r *Registry) Register(name string, adapter adapters.ProviderAdapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, name)
	}

	r.records[name] = &Record{
		Name:    name,
		Adapter: adapter,
		Healthy: true,
	}
	r.names = append(r.names, name)

	r.logger.WithField("provider", name).Info("Provider registered")
	return nil
}

// Get returns a copy of the record for a name.
func (r *Registry) Get(name string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.records[name]
	if !exists {
		return Record{}, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return *rec, nil
}

// Adapter returns the registered adapter for a name.
func (r *Registry) Adapter(name string) (adapters.ProviderAdapter, error) {
	rec, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return rec.Adapter, nil
}

// List returns the registered names in registration order.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// IsHealthy reports the last known health of a name. Unregistered names are
// unhealthy.
func (r *Registry) IsHealthy(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.records[name]
	return exists && rec.Healthy
}

// SetHealth stores the outcome of a health check.
func (r *Registry) SetHealth(name string, status *types.HealthStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.records[name]
	if !exists {
		return
	}

	rec.Healthy = status.Healthy()
	rec.LastStatus = status
	rec.LastHealthCheckAt = status.Timestamp
}

// RecordAttempt folds one adapter attempt into the record's metrics. The
// average uses the two-sample update avg = (avg + sample) / 2 for metric
// compatibility; see DESIGN.md before changing it.
func (r *Registry) RecordAttempt(name string, responseTimeMs int64, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.records[name]
	if !exists {
		return
	}

	rec.RequestCount++
	if !success {
		rec.ErrorCount++
	}
	rec.AvgResponseTimeMs = (rec.AvgResponseTimeMs + float64(responseTimeMs)) / 2
}

// Snapshot returns a read-only status report per adapter.
func (r *Registry) Snapshot() map[string]types.AdapterStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[string]types.AdapterStatus, len(r.records))
	for name, rec := range r.records {
		var errorRate float64
		if rec.RequestCount > 0 {
			errorRate = math.Round(float64(rec.ErrorCount)/float64(rec.RequestCount)*100*100) / 100
		}
		snapshot[name] = types.AdapterStatus{
			Healthy:           rec.Healthy,
			RequestCount:      rec.RequestCount,
			AvgResponseTimeMs: rec.AvgResponseTimeMs,
			ErrorRatePercent:  errorRate,
			LastHealthCheckAt: rec.LastHealthCheckAt,
		}
	}
	return snapshot
}

// TotalRequests returns the aggregate attempt count across all adapters.
func (r *Registry) TotalRequests() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total uint64
	for _, rec := range r.records {
		total += rec.RequestCount
	}
	return total
}
