package process

import (
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/loykin/devlaunch/internal/logger"
)

// Handle owns one spawned child process. Exactly one reaper goroutine calls
// cmd.Wait per Handle, so Alive and WaitExit never race with os/exec internals.
type Handle struct {
	mu       sync.Mutex
	name     string
	cmd      *exec.Cmd
	pid      int
	waitDone chan struct{} // closed by the reaper when cmd.Wait returns
	exitErr  error
	closers  []io.WriteCloser
}

// Start spawns the spec's command with stdout/stderr redirected away from the
// controlling terminal: to rotating capture files when log.File.Dir is set,
// discarded otherwise.
func Start(spec Spec, log logger.Config) (*Handle, error) {
	cmd := spec.BuildCommand()
	if spec.WorkDir != "" {
		cmd.Dir = spec.WorkDir
	}
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	setSysProcAttr(cmd)

	h := &Handle{name: spec.Name, waitDone: make(chan struct{})}

	outW, errW, err := log.ServiceWriters(spec.Name)
	if err != nil {
		return nil, err
	}
	if outW != nil {
		cmd.Stdout = outW
		h.closers = append(h.closers, outW)
	} else {
		cmd.Stdout, _ = os.OpenFile(os.DevNull, os.O_RDWR, 0)
	}
	if errW != nil {
		cmd.Stderr = errW
		h.closers = append(h.closers, errW)
	} else {
		cmd.Stderr, _ = os.OpenFile(os.DevNull, os.O_RDWR, 0)
	}

	if err := cmd.Start(); err != nil {
		h.closeWriters()
		return nil, err
	}
	h.cmd = cmd
	h.pid = cmd.Process.Pid
	go h.reap()
	return h, nil
}

func (h *Handle) reap() {
	err := h.cmd.Wait()
	h.mu.Lock()
	h.exitErr = err
	h.mu.Unlock()
	h.closeWriters()
	close(h.waitDone)
}

func (h *Handle) closeWriters() {
	h.mu.Lock()
	cs := h.closers
	h.closers = nil
	h.mu.Unlock()
	for _, c := range cs {
		_ = c.Close()
	}
}

// Name returns the logical service name.
func (h *Handle) Name() string { return h.name }

// PID returns the OS process id recorded at start.
func (h *Handle) PID() int { return h.pid }

// Alive reports whether the child is still running. Non-blocking.
func (h *Handle) Alive() bool {
	select {
	case <-h.waitDone:
		return false
	default:
		return true
	}
}

// WaitExit blocks until the child has been reaped or d elapses.
// Returns true when the child exited within the window.
func (h *Handle) WaitExit(d time.Duration) bool {
	select {
	case <-h.waitDone:
		return true
	case <-time.After(d):
		return false
	}
}

// Terminate sends a graceful termination request (SIGTERM to the process
// group on Unix). No-op once the child has exited.
func (h *Handle) Terminate() error {
	if !h.Alive() {
		return nil
	}
	return terminateProcess(h.pid)
}

// Kill forcefully kills the child (SIGKILL to the process group on Unix).
func (h *Handle) Kill() error {
	if !h.Alive() {
		return nil
	}
	return killProcess(h.pid)
}

// ExitCode returns the child's exit code once reaped. ok is false while the
// child is still running.
func (h *Handle) ExitCode() (code int, ok bool) {
	select {
	case <-h.waitDone:
	default:
		return 0, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if ee, isExit := h.exitErr.(*exec.ExitError); isExit {
		return ee.ExitCode(), true
	}
	if h.exitErr != nil {
		return -1, true
	}
	return 0, true
}
