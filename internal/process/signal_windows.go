//go:build windows

package process

import (
	"os"
	"os/exec"
)

func setSysProcAttr(_ *exec.Cmd) {}

// Windows has no SIGTERM; graceful termination degrades to Kill.
func terminateProcess(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

func killProcess(pid int) error {
	return terminateProcess(pid)
}
