package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	defaultLogDir             = "~/.local/state/filemonitor/logs"
	defaultPeriod             = "15m"
	defaultPeriodSeconds      = 900
	defaultAppName            = "filemonitor"
	defaultExpireTimeoutMS    = 9000
	defaultNtfyRequestTimeout = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
	runtimeDirName            = "filemonitor"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RuntimeDir: defaultRuntimeDir(),
			LogDir:     defaultLogDir,
		},
		Scheduler: Scheduler{
			DefaultPeriod: defaultPeriod,
		},
		Notifications: Notifications{
			Desktop:         true,
			AppName:         defaultAppName,
			ExpireTimeoutMS: defaultExpireTimeoutMS,
			RequestTimeout:  defaultNtfyRequestTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

// defaultRuntimeDir places the socket in the per-session runtime directory so
// there is one daemon per user session.
func defaultRuntimeDir() string {
	if base, ok := os.LookupEnv("XDG_RUNTIME_DIR"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, runtimeDirName)
	}
	return filepath.Join(os.TempDir(), runtimeDirName+"-"+strconv.Itoa(unix.Getuid()))
}
