package preflight

import (
	"context"
	"strings"

	"filemonitor/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Checker bundles the probes so tests can replace the ones that need a
// desktop session or network.
type Checker struct {
	Desktop func(ctx context.Context) error
	Ntfy    func(ctx context.Context, endpoint string) Result
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	return Checker{}.RunAll(ctx, cfg)
}

// RunAll executes the checks using c's probes, falling back to the real ones.
func (c Checker) RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Runtime directory", cfg.Paths.RuntimeDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	if cfg.Notifications.Desktop {
		probe := c.Desktop
		if probe == nil {
			probe = defaultDesktopProbe
		}
		results = append(results, CheckDesktop(ctx, probe))
	}

	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		probe := c.Ntfy
		if probe == nil {
			probe = CheckNtfy
		}
		results = append(results, probe(ctx, topic))
	}

	return results
}
