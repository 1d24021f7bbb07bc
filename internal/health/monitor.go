package health

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forgeline/artifact-gateway/internal/registry"
	"github.com/forgeline/artifact-gateway/internal/types"
)

// DefaultInterval is the fixed tick interval between health check rounds.
const DefaultInterval = 30 * time.Second

// Monitor periodically health-checks every registered adapter and writes the
// outcome into the registry. It runs independently of request handling; the
// router only ever reads the last-known registry state.
type Monitor struct {
	registry *registry.Registry
	interval time.Duration
	logger   *logrus.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewMonitor creates a monitor. A non-positive interval falls back to
// DefaultInterval; the interval is fixed for the life of the monitor.
func NewMonitor(reg *registry.Registry, interval time.Duration, logger *logrus.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		registry: reg,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the background ticker. The first round runs immediately so
// the registry holds real health state before the first tick elapses.
func (m *Monitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)

		m.CheckAll(ctx)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.CheckAll(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	m.logger.WithField("interval", m.interval).Info("Health monitor started")
}

// Stop cancels the ticker and waits for the in-flight round to finish.
func (m *Monitor) Stop() {
	m.once.Do(func() {
		if m.cancel != nil {
			m.cancel()
			<-m.done
		}
		m.logger.Info("Health monitor stopped")
	})
}

// CheckAll runs one health check round over every registered adapter. The
// adapter call happens without holding the registry lock; only the result
// write takes it.
func (m *Monitor) CheckAll(ctx context.Context) {
	for _, name := range m.registry.List() {
		adapter, err := m.registry.Adapter(name)
		if err != nil {
			continue
		}

		start := time.Now()
		status, err := adapter.HealthCheck(ctx)
		if err != nil {
			// Synthesize an unhealthy status carrying the error message.
			status = &types.HealthStatus{
				Status:         types.StatusUnhealthy,
				ResponseTimeMs: time.Since(start).Milliseconds(),
				Error:          err.Error(),
				Timestamp:      time.Now(),
			}
			m.logger.WithError(err).Warnf("Health check failed for %s", name)
		} else {
			if status.Timestamp.IsZero() {
				status.Timestamp = time.Now()
			}
			m.logger.WithField("provider", name).Debug("Health check passed")
		}

		m.registry.SetHealth(name, status)
	}
}
