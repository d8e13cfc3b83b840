package daemonrun

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"filemonitor/internal/daemon"
	"filemonitor/internal/ipc"
	"filemonitor/internal/testsupport"
)

func TestRunServesUntilStopped(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Logging.Level = "error"
	ready := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(context.Background(), cfg, Options{Ready: func() { close(ready) }})
	}()

	select {
	case <-ready:
	case err := <-errCh:
		t.Fatalf("Run exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not become ready")
	}

	data, err := os.ReadFile(cfg.PIDPath())
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	if strings.TrimSpace(string(data)) != strconv.Itoa(os.Getpid()) {
		t.Fatalf("unexpected pid file content %q", data)
	}
	if _, err := os.Lstat(filepath.Join(cfg.Paths.LogDir, "filemonitor.log")); err != nil {
		t.Fatalf("expected current log pointer: %v", err)
	}

	// A second instance in the same session is refused.
	if err := Run(context.Background(), cfg, Options{}); !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("second Run = %v, want ErrAlreadyRunning", err)
	}

	client, err := ipc.Dial(cfg.SocketPath())
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.SessionID == "" || !strings.HasPrefix(filepath.Base(status.LogPath), "filemonitor-") {
		t.Fatalf("unexpected status %#v", status)
	}
	if _, err := client.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	client.Close()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after stop")
	}
	if _, err := os.Stat(cfg.SocketPath()); !os.IsNotExist(err) {
		t.Fatalf("socket should be removed, stat err=%v", err)
	}
	if _, err := os.Stat(cfg.PIDPath()); !os.IsNotExist(err) {
		t.Fatalf("pid file should be removed, stat err=%v", err)
	}
}

func TestRunReportsTransportUnavailable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg.Paths.RuntimeDir = filepath.Join(blocker, "run")

	if err := Run(context.Background(), cfg, Options{}); !errors.Is(err, daemon.ErrTransportUnavailable) {
		t.Fatalf("Run = %v, want ErrTransportUnavailable", err)
	}
}

func TestEnsureCurrentLogPointer(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "filemonitor-a.log")
	second := filepath.Join(dir, "filemonitor-b.log")
	for _, p := range []string{first, second} {
		if err := os.WriteFile(p, []byte(filepath.Base(p)), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := ensureCurrentLogPointer(dir, first); err != nil {
		t.Fatalf("first pointer: %v", err)
	}
	if err := ensureCurrentLogPointer(dir, second); err != nil {
		t.Fatalf("second pointer: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "filemonitor.log"))
	if err != nil {
		t.Fatalf("read pointer: %v", err)
	}
	if string(data) != "filemonitor-b.log" {
		t.Fatalf("pointer resolves to %q", data)
	}
}
