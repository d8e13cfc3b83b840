// Package testsupport builds isolated configs and files for tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"filemonitor/internal/config"
)

// ConfigOption adjusts the config returned by NewConfig.
type ConfigOption func(*config.Config)

// NewConfig returns a config whose directories live under per-test temp
// directories. Desktop notifications and log retention are off so tests never
// reach a session bus or prune anything.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.RuntimeDir = shortTempDir(t)
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.Notifications.Desktop = false
	cfg.Logging.RetentionDays = 0
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// shortTempDir is used for the runtime directory because a unix socket path
// must fit in sun_path, and t.TempDir embeds the full test name.
func shortTempDir(t testing.TB) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "fm")
	if err != nil {
		t.Fatalf("create runtime dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// BaseDir is the temp directory that holds cfg's log directory. Tests put
// their own files there.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}

func WithDefaultPeriod(period string) ConfigOption {
	return func(c *config.Config) { c.Scheduler.DefaultPeriod = period }
}

// WithNtfyTopic enables the ntfy sink with the given topic URL.
func WithNtfyTopic(url string) ConfigOption {
	return func(c *config.Config) { c.Notifications.NtfyTopic = url }
}

// WithAPIBind enables the HTTP status endpoint on bind.
func WithAPIBind(bind string) ConfigOption {
	return func(c *config.Config) { c.API.Bind = bind }
}
