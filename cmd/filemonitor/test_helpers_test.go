package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"filemonitor/internal/config"
	"filemonitor/internal/daemonrun"
	"filemonitor/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	socketPath string
	configPath string
	baseDir    string
	done       chan struct{}
	runErr     error
}

// setupCLITestEnv writes a config file and starts a daemon from it in-process.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	env := newCLITestConfig(t, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	env.done = make(chan struct{})
	go func() {
		defer close(env.done)
		env.runErr = daemonrun.Run(ctx, env.cfg, daemonrun.Options{
			SocketPath: env.socketPath,
			Ready:      func() { close(ready) },
		})
	}()

	select {
	case <-ready:
	case <-env.done:
		cancel()
		t.Fatalf("daemon exited before ready: %v", env.runErr)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("daemon did not become ready")
	}

	t.Cleanup(func() {
		cancel()
		select {
		case <-env.done:
		case <-time.After(5 * time.Second):
			t.Error("daemon did not exit")
		}
	})
	return env
}

// newCLITestConfig writes a config file without starting a daemon.
func newCLITestConfig(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	cfg.Logging.Level = "error"
	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		socketPath: cfg.SocketPath(),
		configPath: configPath,
		baseDir:    base,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, text, substr string) {
	t.Helper()
	if !strings.Contains(text, substr) {
		t.Fatalf("expected %q in output:\n%s", substr, text)
	}
}

func (e *cliTestEnv) waitForExit(t *testing.T) error {
	t.Helper()
	select {
	case <-e.done:
		return e.runErr
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not exit")
		return nil
	}
}

// syncBuffer is a thread-safe wrapper around bytes.Buffer for use in tests.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
