package devlaunch

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	cfg "github.com/loykin/devlaunch/internal/config"
	"github.com/loykin/devlaunch/internal/history"
	"github.com/loykin/devlaunch/internal/launcher"
	"github.com/loykin/devlaunch/internal/logger"
	"github.com/loykin/devlaunch/internal/metrics"
	"github.com/loykin/devlaunch/internal/process"
	iapi "github.com/loykin/devlaunch/internal/server"
	"github.com/loykin/devlaunch/internal/supervisor"
	"github.com/loykin/devlaunch/internal/toolcheck"
	"github.com/prometheus/client_golang/prometheus"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Spec = process.Spec

type Status = supervisor.Status

type Config = cfg.Config

type Service = cfg.Service

type Tool = toolcheck.Tool

type ServerConfig = cfg.Server

type HistoryConfig = cfg.History

type LogConfig = logger.Config

type HistoryRun = history.Run

type HistoryEvent = history.Event

// Launcher is a thin facade over internal/launcher.Launcher.
// It provides a stable public API for embedding.

type Launcher struct{ inner *launcher.Launcher }

func New(c *Config) *Launcher { return &Launcher{inner: launcher.New(c)} }

// Run executes the full launch sequence and blocks until ctx is cancelled.
func (l *Launcher) Run(ctx context.Context) error { return l.inner.Run(ctx) }

// Supervisor facade

type Supervisor struct{ inner *supervisor.Supervisor }

func NewSupervisor(log LogConfig) *Supervisor {
	return &Supervisor{inner: supervisor.New(supervisor.NewExecLauncher(log))}
}

func (s *Supervisor) Start(spec Spec, grace time.Duration) error {
	_, err := s.inner.Start(spec, grace)
	return err
}
func (s *Supervisor) IsAlive(name string) bool { return s.inner.IsAlive(name) }
func (s *Supervisor) Terminate(name string, grace time.Duration) {
	s.inner.Terminate(name, grace)
}
func (s *Supervisor) TerminateAll(grace time.Duration) { s.inner.TerminateAll(grace) }
func (s *Supervisor) Statuses() []Status               { return s.inner.Statuses() }
func (s *Supervisor) PreemptByName(ctx context.Context, names []string) []error {
	return s.inner.PreemptByName(ctx, names)
}

func DefaultConfig() *Config { return cfg.Default() }

func LoadConfig(path string) (*Config, error) {
	return cfg.Load(path)
}

// VerifyTools checks that every required tool responds to its version probe.
func VerifyTools(ctx context.Context, tools []Tool) error {
	_, err := toolcheck.Verify(ctx, tools)
	return err
}

// NewLogger builds the configured slog logger.
func NewLogger(c LogConfig) *slog.Logger { return c.NewSlogger() }

// OpenHistory opens the run-history database at path.
func OpenHistory(ctx context.Context, path string) (*history.Store, error) {
	return history.Open(ctx, path)
}

// NewHTTPServer starts an HTTP server exposing the status API using the given supervisor.
func NewHTTPServer(addr, basePath string, s *Supervisor) *http.Server {
	return iapi.NewServer(addr, basePath, s.inner)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the default registry.
// It returns any immediate listen error; otherwise it runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	http.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
