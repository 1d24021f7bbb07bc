package registry

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forgeline/artifact-gateway/internal/types"
)

type stubAdapter struct {
	name string
}

func (s *stubAdapter) Name() string  { return s.name }
func (s *stubAdapter) Model() string { return "stub-model" }

func (s *stubAdapter) Generate(ctx context.Context, kind types.RequestKind, req *types.GenerateRequest) (*types.RawResponse, error) {
	return types.PreExtracted("stub"), nil
}

func (s *stubAdapter) HealthCheck(ctx context.Context) (*types.HealthStatus, error) {
	return &types.HealthStatus{Status: types.StatusHealthy, Timestamp: time.Now()}, nil
}

func createTestRegistry() *Registry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(logger)
}

func TestRegistry_Register(t *testing.T) {
	reg := createTestRegistry()

	if err := reg.Register("alpha", &stubAdapter{name: "alpha"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	rec, err := reg.Get("alpha")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	// New records start healthy with zeroed counters.
	if !rec.Healthy {
		t.Error("New record should start healthy")
	}
	if rec.RequestCount != 0 || rec.ErrorCount != 0 {
		t.Errorf("New record should have zero counters, got %d/%d", rec.RequestCount, rec.ErrorCount)
	}
	if rec.AvgResponseTimeMs != 0 {
		t.Errorf("New record should have zero average, got %f", rec.AvgResponseTimeMs)
	}
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	reg := createTestRegistry()

	if err := reg.Register("alpha", &stubAdapter{name: "alpha"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	err := reg.Register("alpha", &stubAdapter{name: "alpha"})
	if !errors.Is(err, ErrDuplicateProvider) {
		t.Errorf("Expected ErrDuplicateProvider, got %v", err)
	}
}

func TestRegistry_Get_NotFound(t *testing.T) {
	reg := createTestRegistry()

	if _, err := reg.Get("missing"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("Expected ErrProviderNotFound, got %v", err)
	}
	if _, err := reg.Adapter("missing"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("Expected ErrProviderNotFound, got %v", err)
	}
}

func TestRegistry_List_RegistrationOrder(t *testing.T) {
	reg := createTestRegistry()

	for _, name := range []string{"charlie", "alpha", "bravo"} {
		if err := reg.Register(name, &stubAdapter{name: name}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	names := reg.List()
	expected := []string{"charlie", "alpha", "bravo"}
	if len(names) != len(expected) {
		t.Fatalf("Expected %d names, got %d", len(expected), len(names))
	}
	for i, name := range expected {
		if names[i] != name {
			t.Errorf("Expected names[%d] = %s, got %s", i, name, names[i])
		}
	}
}

func TestRegistry_SetHealth(t *testing.T) {
	reg := createTestRegistry()
	reg.Register("alpha", &stubAdapter{name: "alpha"})

	if !reg.IsHealthy("alpha") {
		t.Fatal("New record should report healthy")
	}

	reg.SetHealth("alpha", &types.HealthStatus{
		Status:    types.StatusUnhealthy,
		Error:     "connection refused",
		Timestamp: time.Now(),
	})

	if reg.IsHealthy("alpha") {
		t.Error("Record should report unhealthy after failed check")
	}

	rec, _ := reg.Get("alpha")
	if rec.LastStatus == nil || rec.LastStatus.Error != "connection refused" {
		t.Error("Last status should carry the health check error")
	}
	if rec.LastHealthCheckAt.IsZero() {
		t.Error("Last health check timestamp should be set")
	}
}

func TestRegistry_IsHealthy_Unregistered(t *testing.T) {
	reg := createTestRegistry()

	if reg.IsHealthy("missing") {
		t.Error("Unregistered names should report unhealthy")
	}
}

func TestRegistry_RecordAttempt_AverageFold(t *testing.T) {
	reg := createTestRegistry()
	reg.Register("alpha", &stubAdapter{name: "alpha"})

	// The average folds each sample against the running value:
	// avg = (avg + sample) / 2, seeded from zero.
	reg.RecordAttempt("alpha", 100, true)
	reg.RecordAttempt("alpha", 200, true)
	reg.RecordAttempt("alpha", 300, true)

	rec, _ := reg.Get("alpha")

	// ((0+100)/2 + 200)/2 = 125; (125 + 300)/2 = 212.5
	if rec.AvgResponseTimeMs != 212.5 {
		t.Errorf("Expected folded average 212.5, got %f", rec.AvgResponseTimeMs)
	}
	if rec.RequestCount != 3 {
		t.Errorf("Expected 3 requests, got %d", rec.RequestCount)
	}
}

func TestRegistry_RecordAttempt_CountsFailures(t *testing.T) {
	reg := createTestRegistry()
	reg.Register("alpha", &stubAdapter{name: "alpha"})

	reg.RecordAttempt("alpha", 100, true)
	reg.RecordAttempt("alpha", 100, false)
	reg.RecordAttempt("alpha", 100, false)

	rec, _ := reg.Get("alpha")
	if rec.RequestCount != 3 {
		t.Errorf("Expected 3 requests, got %d", rec.RequestCount)
	}
	if rec.ErrorCount != 2 {
		t.Errorf("Expected 2 errors, got %d", rec.ErrorCount)
	}
}

func TestRegistry_Snapshot_ErrorRate(t *testing.T) {
	reg := createTestRegistry()
	reg.Register("alpha", &stubAdapter{name: "alpha"})
	reg.Register("bravo", &stubAdapter{name: "bravo"})

	reg.RecordAttempt("alpha", 100, true)
	reg.RecordAttempt("alpha", 100, false)
	reg.RecordAttempt("alpha", 100, false)

	snapshot := reg.Snapshot()

	alpha, ok := snapshot["alpha"]
	if !ok {
		t.Fatal("Snapshot should include alpha")
	}
	// 2 of 3 attempts failed, rounded to two decimals.
	if alpha.ErrorRatePercent != 66.67 {
		t.Errorf("Expected error rate 66.67, got %f", alpha.ErrorRatePercent)
	}

	bravo := snapshot["bravo"]
	if bravo.ErrorRatePercent != 0 {
		t.Errorf("Idle adapter should have zero error rate, got %f", bravo.ErrorRatePercent)
	}
	if bravo.RequestCount != 0 {
		t.Errorf("Idle adapter should have zero requests, got %d", bravo.RequestCount)
	}
}

func TestRegistry_TotalRequests(t *testing.T) {
	reg := createTestRegistry()
	reg.Register("alpha", &stubAdapter{name: "alpha"})
	reg.Register("bravo", &stubAdapter{name: "bravo"})

	reg.RecordAttempt("alpha", 100, true)
	reg.RecordAttempt("alpha", 100, false)
	reg.RecordAttempt("bravo", 100, true)

	if total := reg.TotalRequests(); total != 3 {
		t.Errorf("Expected 3 total requests, got %d", total)
	}
}
