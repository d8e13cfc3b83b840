package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"filemonitor/internal/config"
	"filemonitor/internal/daemon"
	"filemonitor/internal/ipc"
	"filemonitor/internal/logging"
	"filemonitor/internal/notifications"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides logging.level when set.
	LogLevel string
	// SocketPath overrides the socket location derived from the config.
	SocketPath string
	// DaemonOptions are passed to daemon.New; tests use them to inject clocks.
	DaemonOptions []daemon.Option
	// Ready, when set, is called once the socket accepts connections.
	Ready func()
}

// Run acquires the session lock, serves IPC and runs the daemon loop until a
// stop request or SIGINT/SIGTERM. It returns daemon.ErrAlreadyRunning or
// daemon.ErrTransportUnavailable when the daemon cannot start.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("%w: %v", daemon.ErrTransportUnavailable, err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	sessionID := uuid.NewString()
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("filemonitor-%s.log", runID))

	logCfg := *cfg
	if opts.LogLevel != "" {
		logCfg.Logging.Level = opts.LogLevel
	}
	logger, err := logging.NewFromConfig(&logCfg, logPath, sessionID)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	sink := notifications.NewService(cfg, logger)
	daemonOpts := append([]daemon.Option{daemon.WithSessionID(sessionID)}, opts.DaemonOptions...)
	d, err := daemon.New(cfg, logger, sink, daemonOpts...)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	// The lock comes first: a second instance must not touch the socket or
	// pid file of the running one.
	if err := d.Acquire(); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			logger.Info("another daemon holds the session lock", logging.String("lock", cfg.LockPath()))
		}
		return err
	}
	defer d.Release()

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update filemonitor.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "filemonitor-*.log", Exclude: []string{logPath}},
	)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	socketPath := opts.SocketPath
	if socketPath == "" {
		socketPath = cfg.SocketPath()
	}
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger, ipc.WithLogPath(logPath))
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	logger.Info("filemonitor daemon ready",
		logging.String("socket", socketPath),
		logging.String("log_path", logPath),
		logging.Bool("desktop_notifications", cfg.Notifications.Desktop),
		logging.Bool("ntfy_enabled", cfg.Notifications.NtfyTopic != ""),
		logging.String(logging.FieldEventType, "daemon_ready"),
	)
	if opts.Ready != nil {
		opts.Ready()
	}

	if err := d.Run(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon loop failed", "daemon_run_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check scheduler.default_period in the config"),
		)
		return err
	}
	logger.Info("filemonitor daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "filemonitor.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
