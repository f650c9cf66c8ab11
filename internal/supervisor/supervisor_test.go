package supervisor

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/loykin/devlaunch/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProc is a test double OSProcess with scriptable termination behavior.
type fakeProc struct {
	mu          sync.Mutex
	pid         int
	alive       bool
	exitCode    int
	ignoreTerm  bool // survives Terminate; only Kill stops it
	termCalls   int
	killCalls   int
	exitSignal  chan struct{}
	signalOnce  sync.Once
}

func newFakeProc(pid int) *fakeProc {
	return &fakeProc{pid: pid, alive: true, exitSignal: make(chan struct{})}
}

func (f *fakeProc) markExited(code int) {
	f.mu.Lock()
	f.alive = false
	f.exitCode = code
	f.mu.Unlock()
	f.signalOnce.Do(func() { close(f.exitSignal) })
}

func (f *fakeProc) PID() int { return f.pid }

func (f *fakeProc) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive
}

func (f *fakeProc) Terminate() error {
	f.mu.Lock()
	f.termCalls++
	ignore := f.ignoreTerm
	f.mu.Unlock()
	if !ignore {
		f.markExited(0)
	}
	return nil
}

func (f *fakeProc) Kill() error {
	f.mu.Lock()
	f.killCalls++
	f.mu.Unlock()
	f.markExited(-1)
	return nil
}

func (f *fakeProc) WaitExit(d time.Duration) bool {
	select {
	case <-f.exitSignal:
		return true
	case <-time.After(d):
		return false
	}
}

func (f *fakeProc) ExitCode() (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.alive {
		return 0, false
	}
	return f.exitCode, true
}

// fakeLauncher hands out fakeProcs, or fails for names in failFor.
type fakeLauncher struct {
	mu      sync.Mutex
	nextPID int
	failFor map[string]bool
	spawned map[string]*fakeProc
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{nextPID: 1000, failFor: make(map[string]bool), spawned: make(map[string]*fakeProc)}
}

func (l *fakeLauncher) Launch(spec process.Spec) (OSProcess, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failFor[spec.Name] {
		return nil, errors.New("executable not found")
	}
	l.nextPID++
	p := newFakeProc(l.nextPID)
	l.spawned[spec.Name] = p
	return p, nil
}

func TestTerminate_NeverStartedIsNoop(t *testing.T) {
	sup := New(newFakeLauncher())
	sup.Terminate("backend", time.Second) // must not panic or block
	sup.TerminateAll(time.Second)
	assert.Empty(t, sup.Statuses())
}

func TestStartThenTerminate(t *testing.T) {
	l := newFakeLauncher()
	sup := New(l)
	_, err := sup.Start(process.Spec{Name: "backend", Command: "node working-server.js"}, time.Second)
	require.NoError(t, err)
	require.True(t, sup.IsAlive("backend"))

	sup.Terminate("backend", time.Second)
	assert.False(t, sup.IsAlive("backend"))
	assert.Equal(t, 1, l.spawned["backend"].termCalls)
	assert.Equal(t, 0, l.spawned["backend"].killCalls)
}

func TestTerminate_EscalatesToKill(t *testing.T) {
	l := newFakeLauncher()
	sup := New(l)
	_, err := sup.Start(process.Spec{Name: "frontend", Command: "npm run dev"}, time.Second)
	require.NoError(t, err)
	l.spawned["frontend"].ignoreTerm = true

	sup.Terminate("frontend", 50*time.Millisecond)
	p := l.spawned["frontend"]
	assert.Equal(t, 1, p.termCalls)
	assert.Equal(t, 1, p.killCalls)
	assert.False(t, p.Alive())
}

func TestTerminateAll_ReverseStartOrder(t *testing.T) {
	l := newFakeLauncher()
	sup := New(l)
	_, err := sup.Start(process.Spec{Name: "backend"}, time.Second)
	require.NoError(t, err)
	_, err = sup.Start(process.Spec{Name: "frontend"}, time.Second)
	require.NoError(t, err)

	var order []string
	var mu sync.Mutex
	for name, p := range l.spawned {
		name := name
		p := p
		go func() {
			<-p.exitSignal
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}()
	}

	sup.TerminateAll(time.Second)
	// give the observer goroutines a moment
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"frontend", "backend"}, order)
}

func TestStart_SpawnError(t *testing.T) {
	l := newFakeLauncher()
	l.failFor["backend"] = true
	sup := New(l)
	_, err := sup.Start(process.Spec{Name: "backend"}, time.Second)
	require.Error(t, err)
	var se *SpawnError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "backend", se.Name)
}

func TestStart_SpawnErrorLeavesSiblingsRunning(t *testing.T) {
	l := newFakeLauncher()
	sup := New(l)
	_, err := sup.Start(process.Spec{Name: "backend"}, time.Second)
	require.NoError(t, err)

	l.failFor["frontend"] = true
	_, err = sup.Start(process.Spec{Name: "frontend"}, time.Second)
	require.Error(t, err)
	assert.True(t, sup.IsAlive("backend"), "spawn failure must not affect running siblings")
}

func TestStart_ReplacesLiveProcessWithSameName(t *testing.T) {
	l := newFakeLauncher()
	sup := New(l)
	_, err := sup.Start(process.Spec{Name: "backend"}, time.Second)
	require.NoError(t, err)
	first := l.spawned["backend"]

	_, err = sup.Start(process.Spec{Name: "backend"}, time.Second)
	require.NoError(t, err)
	assert.False(t, first.Alive(), "previous holder of the name must be terminated")
	assert.True(t, sup.IsAlive("backend"))

	sts := sup.Statuses()
	require.Len(t, sts, 1, "at most one managed process per logical name")
}

func TestStatuses(t *testing.T) {
	l := newFakeLauncher()
	sup := New(l)
	_, err := sup.Start(process.Spec{Name: "backend"}, time.Second)
	require.NoError(t, err)
	l.spawned["backend"].markExited(2)

	sts := sup.Statuses()
	require.Len(t, sts, 1)
	assert.Equal(t, "backend", sts[0].Name)
	assert.False(t, sts[0].Running)
	require.NotNil(t, sts[0].ExitCode)
	assert.Equal(t, 2, *sts[0].ExitCode)
}
