package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterAndRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	// second Register is a no-op
	if err := Register(reg); err != nil {
		t.Fatalf("second Register: %v", err)
	}

	IncStart("backend")
	IncStart("backend")
	IncStop("backend")
	IncUnexpectedExit("frontend")
	IncProbeAttempt("http://localhost:3002/api/health", false)
	IncProbeAttempt("http://localhost:3002/api/health", true)
	ObserveProbeWait("http://localhost:3002/api/health", 2.5)

	if got := testutil.ToFloat64(serviceStarts.WithLabelValues("backend")); got != 2 {
		t.Fatalf("starts_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(serviceStops.WithLabelValues("backend")); got != 1 {
		t.Fatalf("stops_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(unexpectedExits.WithLabelValues("frontend")); got != 1 {
		t.Fatalf("unexpected_exits_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(probeAttempts.WithLabelValues("http://localhost:3002/api/health", "success")); got != 1 {
		t.Fatalf("probe success attempts = %v, want 1", got)
	}
}

func TestHandlerNotNil(t *testing.T) {
	if Handler() == nil {
		t.Fatalf("nil metrics handler")
	}
}
