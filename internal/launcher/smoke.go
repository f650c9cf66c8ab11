package launcher

import (
	"context"
	"time"

	"github.com/loykin/devlaunch/internal/config"
	"github.com/loykin/devlaunch/internal/envfile"
)

const endpointCheckTimeout = 5 * time.Second

// testEndpoints performs one GET per configured endpoint after the backend is
// up. Outcomes are logged and never affect the launch sequence.
func (l *Launcher) testEndpoints(ctx context.Context) {
	for _, ep := range l.cfg.Endpoints {
		if ctx.Err() != nil {
			return
		}
		res := l.prb.CheckOnce(ctx, ep.URL, endpointCheckTimeout)
		switch {
		case res.Success:
			l.logger.Info("endpoint is working", "name", ep.Name, "url", ep.URL)
		case res.ErrKind == "status":
			l.logger.Warn("endpoint returned unexpected status",
				"name", ep.Name, "url", ep.URL, "status", res.StatusCode)
		default:
			l.logger.Warn("endpoint is not responding", "name", ep.Name, "url", ep.URL)
		}
	}
}

func envfileEnsure(ef config.EnvFile) (bool, error) {
	return envfile.EnsureFile(ef.Path, envfile.FromMap(ef.Entries))
}
