package health

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/fusedex/internal/sparse"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

type mockSnapshot struct {
	err error
}

func (m *mockSnapshot) Snapshot() (*sparse.Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &sparse.Snapshot{}, nil
}

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockChecker{}, &mockSnapshot{})

	report := svc.Check(context.Background())

	if report.Status != Healthy {
		t.Errorf("expected healthy, got %s", report.Status)
	}
	for name, r := range report.Checks {
		if r != CheckOK {
			t.Errorf("check %s: expected ok, got %s", name, r)
		}
	}
	if len(report.Checks) != 3 {
		t.Errorf("expected 3 checks, got %d", len(report.Checks))
	}
}

func TestCheck_DegradedOnDBFailure(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("connection refused")}, &mockChecker{}, &mockSnapshot{})

	report := svc.Check(context.Background())

	if report.Status != Degraded {
		t.Errorf("expected degraded, got %s", report.Status)
	}
	if report.Checks["database"] != CheckError {
		t.Error("database check should fail")
	}
	if report.Checks["embedding"] != CheckOK {
		t.Error("embedding check should pass")
	}
}

func TestCheck_DegradedOnMissingSnapshot(t *testing.T) {
	svc := New(&mockPinger{}, &mockChecker{}, &mockSnapshot{err: errors.New("unavailable")})

	report := svc.Check(context.Background())

	if report.Status != Degraded {
		t.Errorf("expected degraded, got %s", report.Status)
	}
	if report.Checks["sparse_index"] != CheckError {
		t.Error("sparse_index check should fail")
	}
}

func TestCheck_NilEmbeddingSkipped(t *testing.T) {
	svc := New(&mockPinger{}, nil, &mockSnapshot{})

	report := svc.Check(context.Background())

	if _, ok := report.Checks["embedding"]; ok {
		t.Error("embedding check should be skipped when nil")
	}
	if report.Status != Healthy {
		t.Errorf("expected healthy, got %s", report.Status)
	}
}
