package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	serviceStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devlaunch",
			Subsystem: "service",
			Name:      "starts_total",
			Help:      "Number of successful service starts.",
		}, []string{"name"},
	)
	serviceStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devlaunch",
			Subsystem: "service",
			Name:      "stops_total",
			Help:      "Number of stops (graceful or kill).",
		}, []string{"name"},
	)
	unexpectedExits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devlaunch",
			Subsystem: "service",
			Name:      "unexpected_exits_total",
			Help:      "Number of exits observed by the liveness monitor without a stop request.",
		}, []string{"name"},
	)
	probeAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devlaunch",
			Subsystem: "probe",
			Name:      "attempts_total",
			Help:      "Readiness probe attempts by target URL and outcome.",
		}, []string{"url", "outcome"},
	)
	probeWait = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "devlaunch",
			Subsystem: "probe",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for a service to become ready.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"url"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{serviceStarts, serviceStops, unexpectedExits, probeAttempts, probeWait}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler serving Prometheus metrics for the DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncStart(name string) {
	if regOK.Load() {
		serviceStarts.WithLabelValues(name).Inc()
	}
}

func IncStop(name string) {
	if regOK.Load() {
		serviceStops.WithLabelValues(name).Inc()
	}
}

func IncUnexpectedExit(name string) {
	if regOK.Load() {
		unexpectedExits.WithLabelValues(name).Inc()
	}
}

func IncProbeAttempt(url string, success bool) {
	if regOK.Load() {
		outcome := "failure"
		if success {
			outcome = "success"
		}
		probeAttempts.WithLabelValues(url, outcome).Inc()
	}
}

func ObserveProbeWait(url string, seconds float64) {
	if regOK.Load() {
		probeWait.WithLabelValues(url).Observe(seconds)
	}
}
