package supervisor

import (
	"context"
	"time"

	"github.com/loykin/devlaunch/internal/metrics"
)

// Monitor periodically checks liveness of every managed process and reports
// unexpected exits. Detection only; it never restarts anything.
type Monitor struct {
	sup      *Supervisor
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
	// OnExit, when set, observes each unexpected exit once (history recording).
	OnExit func(Status)

	reported map[string]bool
}

func NewMonitor(sup *Supervisor, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Monitor{sup: sup, interval: interval, reported: make(map[string]bool)}
}

// Start launches the monitoring loop. It runs until Stop or ctx cancellation.
func (m *Monitor) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(cctx)
}

// Stop cancels the loop and joins it, so no observer outlives its processes.
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)
	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.checkOnce()
		}
	}
}

func (m *Monitor) checkOnce() {
	for _, mp := range m.sup.managed() {
		if mp.Proc.Alive() || mp.StopRequested() || m.reported[mp.Name] {
			continue
		}
		m.reported[mp.Name] = true
		code, _ := mp.Proc.ExitCode()
		m.sup.logger.Warn("service exited unexpectedly", "name", mp.Name, "pid", mp.Proc.PID(), "exit_code", code)
		metrics.IncUnexpectedExit(mp.Name)
		if m.OnExit != nil {
			st := Status{Name: mp.Name, Running: false, PID: mp.Proc.PID(), StartedAt: mp.StartedAt, ExitCode: &code}
			m.OnExit(st)
		}
	}
}
