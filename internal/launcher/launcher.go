package launcher

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/loykin/devlaunch/internal/config"
	"github.com/loykin/devlaunch/internal/history"
	"github.com/loykin/devlaunch/internal/metrics"
	"github.com/loykin/devlaunch/internal/probe"
	"github.com/loykin/devlaunch/internal/server"
	"github.com/loykin/devlaunch/internal/supervisor"
	"github.com/loykin/devlaunch/internal/toolcheck"
	"github.com/prometheus/client_golang/prometheus"
)

// Launcher drives the full startup sequence: dependency check, preemption,
// env file, backend, readiness, frontend, readiness, liveness monitor,
// browser, idle wait. Every exit path (success, spawn failure, missing
// dependency, interrupt) converges on the same teardown routine, which runs
// exactly once.
type Launcher struct {
	cfg    *config.Config
	sup    *supervisor.Supervisor
	prb    *probe.Probe
	logger *slog.Logger

	hist  *history.Store
	runID int64

	mon *supervisor.Monitor
	srv *http.Server

	shutdownOnce sync.Once
}

// Option configures a Launcher; used by tests to inject collaborators.
type Option func(*Launcher)

func WithSupervisor(s *supervisor.Supervisor) Option { return func(l *Launcher) { l.sup = s } }
func WithProbe(p *probe.Probe) Option                { return func(l *Launcher) { l.prb = p } }
func WithHistory(h *history.Store) Option            { return func(l *Launcher) { l.hist = h } }
func WithLogger(lg *slog.Logger) Option              { return func(l *Launcher) { l.logger = lg } }

func New(cfg *config.Config, opts ...Option) *Launcher {
	l := &Launcher{cfg: cfg, logger: slog.Default()}
	for _, o := range opts {
		o(l)
	}
	if l.sup == nil {
		l.sup = supervisor.New(supervisor.NewExecLauncher(cfg.Log), supervisor.WithLogger(l.logger))
	}
	if l.prb == nil {
		l.prb = probe.New(nil)
	}
	l.prb.OnResult = func(r probe.Result) {
		metrics.IncProbeAttempt(r.URL, r.Success)
	}
	return l
}

// Run executes the launch sequence and blocks until ctx is cancelled (the
// operator interrupt) or a fatal error aborts startup. The returned error is
// nil for a normal interrupt-driven shutdown.
func (l *Launcher) Run(ctx context.Context) error {
	defer l.shutdown()

	// Step 1: required tools. Missing runtime aborts with actionable guidance.
	results, err := toolcheck.Verify(ctx, l.cfg.Tools)
	for _, r := range results {
		l.logger.Info("dependency found", "tool", r.Name, "version", r.Version)
	}
	if err != nil {
		return err
	}

	// Step 2: clear stale processes from previous runs. Best-effort.
	for _, warn := range l.sup.PreemptByName(ctx, l.cfg.PreemptNames) {
		l.logger.Warn("process cleanup", "warning", warn)
	}

	// Step 3: env file for the frontend, written once if absent.
	l.ensureEnvFile()

	l.beginHistory(ctx)

	// Step 4/5: backend, then wait for its health endpoint.
	if err := l.startService(ctx, l.cfg.Backend); err != nil {
		return err
	}
	l.waitReady(ctx, l.cfg.Backend)

	// Step 6: smoke-test the API endpoints. Informational only.
	l.testEndpoints(ctx)

	// Step 7/8: frontend, then wait for it to serve.
	if err := l.startService(ctx, l.cfg.Frontend); err != nil {
		return err
	}
	l.waitReady(ctx, l.cfg.Frontend)

	// Step 9: background liveness monitor.
	l.mon = supervisor.NewMonitor(l.sup, l.cfg.MonitorInterval)
	l.mon.OnExit = l.recordCrash
	l.mon.Start(ctx)

	// Optional local status API.
	if l.cfg.Server != nil && l.cfg.Server.Listen != "" {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			l.logger.Warn("metrics registration failed", "error", err)
		}
		l.srv = server.NewServer(l.cfg.Server.Listen, l.cfg.Server.BasePath, l.sup)
		l.logger.Info("status API listening", "addr", l.cfg.Server.Listen)
	}

	// Step 10/11: browser and summary.
	if l.cfg.OpenBrowser {
		if err := openBrowser(l.cfg.Frontend.URL); err != nil {
			l.logger.Warn("could not open browser", "error", err)
		}
	}
	l.printSummary()

	// Idle-wait until the operator interrupts; teardown happens in shutdown.
	<-ctx.Done()
	l.logger.Warn("shutdown requested")
	return nil
}

func (l *Launcher) startService(ctx context.Context, svc config.Service) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	l.logger.Info("starting service", "name", svc.Name, "url", svc.URL)
	m, err := l.sup.Start(svc.Spec(), l.cfg.Grace)
	if err != nil {
		return err
	}
	l.recordEvent(history.Event{Service: svc.Name, Kind: history.EventStart, PID: m.Proc.PID()})
	return nil
}

// waitReady polls the service's health endpoint. A timeout is surfaced as a
// warning and startup continues: the service may simply need more time.
func (l *Launcher) waitReady(ctx context.Context, svc config.Service) {
	l.logger.Info("waiting for service", "name", svc.Name, "url", svc.HealthURL)
	started := time.Now()
	ready := l.prb.WaitUntilReady(ctx, svc.HealthURL, svc.ProbeTimeout, l.cfg.ProbeInterval)
	metrics.ObserveProbeWait(svc.HealthURL, time.Since(started).Seconds())
	if ready {
		l.logger.Info("service is ready", "name", svc.Name)
		return
	}
	if ctx.Err() != nil {
		return
	}
	l.logger.Warn("service not ready within deadline, continuing",
		"name", svc.Name, "timeout", svc.ProbeTimeout)
}

func (l *Launcher) ensureEnvFile() {
	if l.cfg.EnvFile.Path == "" || len(l.cfg.EnvFile.Entries) == 0 {
		return
	}
	created, err := envfileEnsure(l.cfg.EnvFile)
	switch {
	case err != nil:
		l.logger.Warn("env file", "warning", err)
	case created:
		l.logger.Info("created environment file", "path", l.cfg.EnvFile.Path)
	default:
		l.logger.Info("environment file exists", "path", l.cfg.EnvFile.Path)
	}
}

func (l *Launcher) printSummary() {
	l.logger.Info("environment is running",
		"frontend", l.cfg.Frontend.URL,
		"backend", l.cfg.Backend.URL,
		"health", l.cfg.Backend.HealthURL)
	l.logger.Info("press Ctrl+C to stop all servers")
}

// shutdown is the single teardown routine. Monitor first (so a terminated
// service is not reported as a crash), then children in reverse start order,
// then the status server and history.
func (l *Launcher) shutdown() {
	l.shutdownOnce.Do(func() {
		l.logger.Info("shutting down")
		if l.mon != nil {
			l.mon.Stop()
		}
		for _, st := range l.sup.Statuses() {
			if st.Running {
				l.recordEvent(history.Event{Service: st.Name, Kind: history.EventStop, PID: st.PID})
			}
		}
		l.sup.TerminateAll(l.cfg.Grace)
		if l.srv != nil {
			_ = l.srv.Close()
		}
		l.endHistory()
		l.logger.Info("cleanup completed")
	})
}

// --- history wiring (optional) ---

func (l *Launcher) beginHistory(ctx context.Context) {
	if l.hist == nil && l.cfg.History != nil && l.cfg.History.Enabled {
		h, err := history.Open(ctx, l.cfg.History.Path)
		if err != nil {
			l.logger.Warn("history disabled", "error", err)
			return
		}
		l.hist = h
	}
	if l.hist == nil {
		return
	}
	id, err := l.hist.BeginRun(ctx)
	if err != nil {
		l.logger.Warn("history disabled", "error", err)
		l.hist = nil
		return
	}
	l.runID = id
}

func (l *Launcher) recordEvent(e history.Event) {
	if l.hist == nil {
		return
	}
	if err := l.hist.RecordEvent(context.Background(), l.runID, e); err != nil {
		l.logger.Warn("history write failed", "error", err)
	}
}

func (l *Launcher) recordCrash(st supervisor.Status) {
	e := history.Event{Service: st.Name, Kind: history.EventCrash, PID: st.PID}
	if st.ExitCode != nil {
		e.ExitCode = sql.NullInt64{Int64: int64(*st.ExitCode), Valid: true}
	}
	l.recordEvent(e)
}

func (l *Launcher) endHistory() {
	if l.hist == nil {
		return
	}
	_ = l.hist.EndRun(context.Background(), l.runID)
	_ = l.hist.Close()
	l.hist = nil
}
