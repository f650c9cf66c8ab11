package supervisor

import (
	"context"
	"fmt"
	"os"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// Target is one OS process found by name matching during preemption.
type Target interface {
	PID() int32
	Name() string
	Terminate() error
	Kill() error
}

// Lister finds OS processes by executable name. Matching by name rather than
// by tracked handles covers processes left over from a previous run.
type Lister interface {
	FindByName(ctx context.Context, names map[string]struct{}) ([]Target, error)
}

// PreemptByName requests termination of any OS process whose executable name
// is in names, regardless of whether this supervisor started it. This is
// inherently racy and platform-dependent: processes may exit or appear while
// scanning. Best-effort only; every failure is returned as a warning, never
// an error that stops the caller.
func (s *Supervisor) PreemptByName(ctx context.Context, names []string) []error {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	targets, err := s.lister.FindByName(ctx, set)
	if err != nil {
		return []error{fmt.Errorf("process scan: %w", err)}
	}
	var warnings []error
	for _, t := range targets {
		s.logger.Debug("preempting stale process", "name", t.Name(), "pid", t.PID())
		if err := t.Terminate(); err != nil {
			if kerr := t.Kill(); kerr != nil {
				warnings = append(warnings, fmt.Errorf("preempt %s (pid %d): %w", t.Name(), t.PID(), err))
			}
		}
	}
	return warnings
}

// gopsLister is the production Lister backed by gopsutil.
type gopsLister struct{}

func (gopsLister) FindByName(ctx context.Context, names map[string]struct{}) ([]Target, error) {
	procs, err := gopsproc.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	self := int32(os.Getpid())
	var out []Target
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue // gone or unreadable; expected mid-scan
		}
		if _, match := names[name]; match {
			out = append(out, gopsTarget{p: p, name: name})
		}
	}
	return out, nil
}

type gopsTarget struct {
	p    *gopsproc.Process
	name string
}

func (t gopsTarget) PID() int32       { return t.p.Pid }
func (t gopsTarget) Name() string     { return t.name }
func (t gopsTarget) Terminate() error { return t.p.Terminate() }
func (t gopsTarget) Kill() error      { return t.p.Kill() }
