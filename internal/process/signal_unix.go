//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// setSysProcAttr places the child in its own process group so termination
// signals reach grandchildren (npm spawns the actual dev server).
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminateProcess sends SIGTERM to the whole process group.
func terminateProcess(pid int) error {
	return syscall.Kill(-pid, syscall.SIGTERM)
}

// killProcess sends SIGKILL to the whole process group.
func killProcess(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}
