package supervisor

import (
	"github.com/loykin/devlaunch/internal/logger"
	"github.com/loykin/devlaunch/internal/process"
)

// execLauncher is the production Launcher backed by os/exec via the process
// package. Service output goes to capture files when configured, /dev/null
// otherwise.
type execLauncher struct {
	log logger.Config
}

func NewExecLauncher(log logger.Config) Launcher {
	return execLauncher{log: log}
}

func (l execLauncher) Launch(spec process.Spec) (OSProcess, error) {
	return process.Start(spec, l.log)
}
