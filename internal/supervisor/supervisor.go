package supervisor

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/loykin/devlaunch/internal/metrics"
	"github.com/loykin/devlaunch/internal/process"
)

// OSProcess is the supervisor's view of one spawned child. The production
// implementation is process.Handle; tests inject doubles.
type OSProcess interface {
	PID() int
	Alive() bool
	Terminate() error
	Kill() error
	WaitExit(d time.Duration) bool
	ExitCode() (code int, ok bool)
}

// Launcher is the OS collaborator that spawns children.
type Launcher interface {
	Launch(spec process.Spec) (OSProcess, error)
}

// SpawnError reports that the OS refused or failed to create a process.
// Fatal to the affected service's startup, but not to running siblings.
type SpawnError struct {
	Name string
	Err  error
}

func (e *SpawnError) Error() string { return fmt.Sprintf("spawn %s: %v", e.Name, e.Err) }
func (e *SpawnError) Unwrap() error { return e.Err }

// Managed tracks one supervised child process.
type Managed struct {
	Name      string
	Spec      process.Spec
	Proc      OSProcess
	StartedAt time.Time

	mu            sync.Mutex
	stopRequested bool
}

// StopRequested reports whether Terminate has been requested for this child,
// so the monitor can tell an operator-initiated stop from a crash.
func (m *Managed) StopRequested() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopRequested
}

func (m *Managed) setStopRequested() {
	m.mu.Lock()
	m.stopRequested = true
	m.mu.Unlock()
}

// Status is an externally consumable snapshot of one managed process.
type Status struct {
	Name      string    `json:"name"`
	Running   bool      `json:"running"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	ExitCode  *int      `json:"exit_code,omitempty"`
}

// Supervisor owns the full lifecycle of zero or more child processes.
// The handle table is written only by the foreground launch sequence and read
// by the background monitor, so a RWMutex suffices.
type Supervisor struct {
	mu       sync.RWMutex
	launcher Launcher
	lister   Lister
	logger   *slog.Logger
	order    []string // start order; TerminateAll walks it in reverse
	procs    map[string]*Managed
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLister overrides the OS process lister used for preemption.
func WithLister(l Lister) Option { return func(s *Supervisor) { s.lister = l } }

// WithLogger overrides the default slog logger.
func WithLogger(lg *slog.Logger) Option { return func(s *Supervisor) { s.logger = lg } }

func New(l Launcher, opts ...Option) *Supervisor {
	s := &Supervisor{
		launcher: l,
		lister:   gopsLister{},
		logger:   slog.Default(),
		procs:    make(map[string]*Managed),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start spawns the spec's command. At most one live process exists per
// logical name: a still-running previous holder is terminated first.
func (s *Supervisor) Start(spec process.Spec, grace time.Duration) (*Managed, error) {
	if prev := s.get(spec.Name); prev != nil && prev.Proc.Alive() {
		s.logger.Warn("replacing live process", "name", spec.Name, "pid", prev.Proc.PID())
		s.terminateOne(prev, grace)
	}

	h, err := s.launcher.Launch(spec)
	if err != nil {
		return nil, &SpawnError{Name: spec.Name, Err: err}
	}
	m := &Managed{Name: spec.Name, Spec: spec, Proc: h, StartedAt: time.Now()}

	s.mu.Lock()
	if _, known := s.procs[spec.Name]; !known {
		s.order = append(s.order, spec.Name)
	}
	s.procs[spec.Name] = m
	s.mu.Unlock()

	metrics.IncStart(spec.Name)
	s.logger.Info("service started", "name", spec.Name, "pid", h.PID())
	return m, nil
}

// IsAlive reports whether the named process is still running. Non-blocking.
func (s *Supervisor) IsAlive(name string) bool {
	m := s.get(name)
	return m != nil && m.Proc.Alive()
}

// Terminate gracefully stops the named process: termination request, bounded
// wait up to grace, then forceful kill. Idempotent; terminating an unknown or
// already-exited process is a no-op.
func (s *Supervisor) Terminate(name string, grace time.Duration) {
	if m := s.get(name); m != nil {
		s.terminateOne(m, grace)
	}
}

// TerminateAll stops every managed process in reverse start order (frontend
// before backend). Each termination has its own bounded wait, so no single
// stuck child can block teardown indefinitely.
func (s *Supervisor) TerminateAll(grace time.Duration) {
	s.mu.RLock()
	names := make([]string, len(s.order))
	copy(names, s.order)
	s.mu.RUnlock()

	for i := len(names) - 1; i >= 0; i-- {
		s.Terminate(names[i], grace)
	}
}

func (s *Supervisor) terminateOne(m *Managed, grace time.Duration) {
	m.setStopRequested()
	if !m.Proc.Alive() {
		return
	}
	if err := m.Proc.Terminate(); err != nil {
		s.logger.Warn("termination request failed", "name", m.Name, "error", err)
	}
	if !m.Proc.WaitExit(grace) {
		s.logger.Warn("grace period elapsed, killing", "name", m.Name, "pid", m.Proc.PID())
		if err := m.Proc.Kill(); err != nil {
			s.logger.Warn("kill failed", "name", m.Name, "error", err)
		}
		m.Proc.WaitExit(200 * time.Millisecond)
	}
	metrics.IncStop(m.Name)
	s.logger.Info("service stopped", "name", m.Name)
}

// Statuses returns snapshots of all managed processes in start order.
func (s *Supervisor) Statuses() []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Status, 0, len(s.order))
	for _, name := range s.order {
		m := s.procs[name]
		st := Status{
			Name:      m.Name,
			Running:   m.Proc.Alive(),
			PID:       m.Proc.PID(),
			StartedAt: m.StartedAt,
		}
		if code, ok := m.Proc.ExitCode(); ok {
			c := code
			st.ExitCode = &c
		}
		out = append(out, st)
	}
	return out
}

func (s *Supervisor) get(name string) *Managed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.procs[name]
}

func (s *Supervisor) managed() []*Managed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Managed, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.procs[name])
	}
	return out
}
