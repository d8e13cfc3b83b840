package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"filemonitor/internal/duration"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains runtime and log directory configuration.
type Paths struct {
	RuntimeDir string `toml:"runtime_dir"`
	LogDir     string `toml:"log_dir"`
}

// Scheduler contains the polling configuration.
type Scheduler struct {
	// DefaultPeriod is a duration specification such as "15m" or "1h30m".
	DefaultPeriod string `toml:"default_period"`
}

// Notifications configures where stale-file notifications are delivered.
type Notifications struct {
	Desktop         bool   `toml:"desktop"`
	AppName         string `toml:"app_name"`
	ExpireTimeoutMS int    `toml:"expire_timeout_ms"`
	NtfyTopic       string `toml:"ntfy_topic"`
	RequestTimeout  int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// API configures the optional read-only HTTP status endpoint.
type API struct {
	// Bind is a loopback host:port; empty disables the endpoint.
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Config encapsulates all configuration values for filemonitor.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Scheduler     Scheduler     `toml:"scheduler"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	API           API           `toml:"api"`
}

const (
	userConfigPath    = "~/.config/filemonitor/config.toml"
	projectConfigName = "filemonitor.toml"
)

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	return ExpandPath(userConfigPath)
}

// Load reads the config at path, or searches the per-user location and then
// ./filemonitor.toml when path is empty. Defaults fill anything the file does
// not set. It returns the config, the path that was consulted and whether a
// file was actually read there.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func locate(explicit string) (string, bool, error) {
	if explicit != "" {
		expanded, err := ExpandPath(explicit)
		if err != nil {
			return "", false, err
		}
		found, err := isConfigFile(expanded)
		return expanded, found, err
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, projectPath} {
		if found, _ := isConfigFile(candidate); found {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func isConfigFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	case info.IsDir():
		return false, fmt.Errorf("config path %q is a directory", path)
	}
	return true, nil
}

// EnsureDirectories creates the runtime directory (0700, it holds the socket
// and lock) and the log directory.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []struct {
		path string
		perm os.FileMode
		name string
	}{
		{c.Paths.RuntimeDir, 0o700, "runtime"},
		{c.Paths.LogDir, 0o755, "log"},
	} {
		if err := os.MkdirAll(dir.path, dir.perm); err != nil {
			return fmt.Errorf("create %s directory %q: %w", dir.name, dir.path, err)
		}
	}
	return nil
}

// SocketPath is where the daemon listens for CLI requests.
func (c *Config) SocketPath() string { return c.runtimeFile("filemonitor.sock") }

// LockPath is the file whose lock marks the single running daemon.
func (c *Config) LockPath() string { return c.runtimeFile("filemonitor.lock") }

// PIDPath is the pid file written by the running daemon.
func (c *Config) PIDPath() string { return c.runtimeFile("filemonitor.pid") }

func (c *Config) runtimeFile(name string) string {
	return filepath.Join(c.Paths.RuntimeDir, name)
}

// DefaultPeriodSeconds returns scheduler.default_period in seconds, or 900 when
// the value does not parse.
func (c *Config) DefaultPeriodSeconds() int64 {
	if seconds, err := duration.ParsePositive(c.Scheduler.DefaultPeriod); err == nil {
		return seconds
	}
	return defaultPeriodSeconds
}

// ExpandPath resolves a leading ~ to the home directory and makes the result
// absolute. Empty input is returned unchanged.
func ExpandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if value == "~" || strings.HasPrefix(value, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		value = home + strings.TrimPrefix(value, "~")
	}
	absolute, err := filepath.Abs(value)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	return absolute, nil
}

// CreateSample writes the commented sample config to path, creating parent
// directories. Unless overwrite is set an existing file is left alone and the
// returned error wraps fs.ErrExist.
func CreateSample(path string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	if _, err := file.WriteString(sampleConfig); err != nil {
		file.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return file.Close()
}
