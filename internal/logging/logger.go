package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"filemonitor/internal/config"
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn or error. Empty means info.
	Level string
	// Format is console (the default) or json.
	Format string
	// Console receives every record when set.
	Console io.Writer
	// FilePath names a log file that records are appended to. Parent
	// directories are created on demand.
	FilePath string
	// AddSource forces caller information. Debug level always adds it.
	AddSource bool
	// SessionID, when set, is attached to every record as session_id.
	SessionID string
}

type handlerBuilder func(w io.Writer, level slog.Leveler, addSource bool) slog.Handler

var handlerBuilders = map[string]handlerBuilder{
	"console": newPrettyHandler,
	"json":    newJSONHandler,
}

// New builds a logger that writes to the console writer, the log file, or both.
// With neither configured, records go to stdout.
func New(opts Options) (*slog.Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}
	build, ok := handlerBuilders[format]
	if !ok {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	out, err := destination(opts.Console, opts.FilePath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(build(out, level, opts.AddSource || level <= slog.LevelDebug))
	if id := strings.TrimSpace(opts.SessionID); id != "" {
		logger = logger.With(String(FieldSessionID, id))
	}
	return logger, nil
}

// NewFromConfig returns the daemon logger: console output on stdout plus the
// run log at logPath, using the configured level and format.
func NewFromConfig(cfg *config.Config, logPath, sessionID string) (*slog.Logger, error) {
	opts := Options{
		Console:   os.Stdout,
		FilePath:  strings.TrimSpace(logPath),
		SessionID: sessionID,
	}
	if cfg != nil {
		opts.Level = cfg.Logging.Level
		opts.Format = cfg.Logging.Format
	}
	return New(opts)
}

func parseLevel(text string) (slog.Level, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(text)); err != nil {
		return 0, fmt.Errorf("log level: unsupported value %q", text)
	}
	return level, nil
}

func destination(console io.Writer, path string) (io.Writer, error) {
	if path == "" {
		if console == nil {
			return os.Stdout, nil
		}
		return console, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	if console == nil {
		return file, nil
	}
	return io.MultiWriter(console, file), nil
}
