package main

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"filemonitor/internal/daemon"
	"filemonitor/internal/daemonctl"
	"filemonitor/internal/duration"
	"filemonitor/internal/testsupport"
)

func TestCLIAddListRemove(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "watched", "report.txt")
	testsupport.TouchFile(t, target, time.Now())
	canonical, err := filepath.EvalSymlinks(target)
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}

	out, _, err := runCLI(t, []string{"list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	requireContains(t, out, "No monitored files")

	out, _, err = runCLI(t, []string{"add", target, "1h30m", "Report stale", "Report older than %x", "dialog-warning"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "Monitoring "+canonical+" (timeout 1h30m)")

	out, _, err = runCLI(t, []string{"list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, canonical)
	requireContains(t, out, "1h30m")
	requireContains(t, out, "Report stale")

	out, _, err = runCLI(t, []string{"list", "--plain"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("list --plain: %v", err)
	}
	want := strings.Join([]string{canonical, "5400", "Report stale", "Report older than %x", "dialog-warning"}, "\t") + "\n"
	if out != want {
		t.Fatalf("plain list mismatch\n got: %q\nwant: %q", out, want)
	}

	out, _, err = runCLI(t, []string{"remove", target, filepath.Join(env.baseDir, "never-added")}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	requireContains(t, out, "Removed "+canonical)
	requireContains(t, out, "Not monitored: ")

	out, _, err = runCLI(t, []string{"list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("list after remove: %v", err)
	}
	requireContains(t, out, "No monitored files")

	out, errOut, err := runCLI(t, []string{"list", "--plain"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("empty list --plain: %v", err)
	}
	if out != "" {
		t.Fatalf("empty plain list should print nothing on stdout, got %q", out)
	}
	requireContains(t, errOut, "No monitored files")
}

func TestCLIAddDefaultMessageKeepsTypedPath(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := filepath.Join(env.baseDir, "work")
	testsupport.TouchFile(t, filepath.Join(dir, "50%done.txt"), time.Now())
	t.Chdir(dir)

	if _, _, err := runCLI(t, []string{"add", "50%done.txt", "1d", "Stalled"}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("add: %v", err)
	}
	out, _, err := runCLI(t, []string{"list", "--plain"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	fields := strings.Split(strings.TrimSuffix(out, "\n"), "\t")
	if len(fields) != 5 {
		t.Fatalf("expected 5 fields, got %q", out)
	}
	if !filepath.IsAbs(fields[0]) || filepath.Base(fields[0]) != "50%done.txt" {
		t.Fatalf("expected canonical absolute path, got %q", fields[0])
	}
	if fields[1] != "86400" {
		t.Fatalf("timeout = %q, want 86400", fields[1])
	}
	if fields[3] != "File 50%%done.txt untouched since %x %X" {
		t.Fatalf("default message = %q", fields[3])
	}
	if fields[4] != "" {
		t.Fatalf("icon = %q, want empty", fields[4])
	}
}

func TestCLIAddValidation(t *testing.T) {
	env := newCLITestConfig(t)
	existing := filepath.Join(env.baseDir, "exists.txt")
	testsupport.TouchFile(t, existing, time.Now())

	tests := []struct {
		name string
		args []string
		want string
		is   error
	}{
		{name: "missing file", args: []string{"add", filepath.Join(env.baseDir, "missing.txt"), "1h", "s"}, want: "File not found"},
		{name: "zero timeout", args: []string{"add", existing, "0s", "s"}, is: duration.ErrNonPositiveDuration},
		{name: "malformed timeout", args: []string{"add", existing, "ten minutes", "s"}, is: duration.ErrMalformedDuration},
		{name: "timeout too long", args: []string{"add", existing, "106752d", "s"}, is: duration.ErrDurationTooLong},
		{name: "too few args", args: []string{"add", existing, "1h"}, want: "accepts between 3 and 5 arg(s)"},
		{name: "too many args", args: []string{"add", existing, "1h", "s", "m", "i", "extra"}, want: "accepts between 3 and 5 arg(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args, env.socketPath, env.configPath)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Fatalf("error = %v, want %v", err, tt.is)
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestCLITimer(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"timer", "90s"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("timer: %v", err)
	}
	requireContains(t, out, "Checking every 1m30s")

	out, _, err = runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "[INFO] 1m30s")

	if _, _, err := runCLI(t, []string{"timer", "0s"}, env.socketPath, env.configPath); !errors.Is(err, duration.ErrNonPositiveDuration) {
		t.Fatalf("timer 0s error = %v, want ErrNonPositiveDuration", err)
	}
	if _, _, err := runCLI(t, []string{"timer", "soon"}, env.socketPath, env.configPath); !errors.Is(err, duration.ErrMalformedDuration) {
		t.Fatalf("timer soon error = %v, want ErrMalformedDuration", err)
	}
	if _, _, err := runCLI(t, []string{"timer", "9223372037s"}, env.socketPath, env.configPath); !errors.Is(err, duration.ErrDurationTooLong) {
		t.Fatalf("timer 9223372037s error = %v, want ErrDurationTooLong", err)
	}
}

func TestCLICheckAndStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	stale := filepath.Join(env.baseDir, "stale.log")
	testsupport.TouchFile(t, stale, time.Now().Add(-2*time.Hour))

	if _, _, err := runCLI(t, []string{"add", stale, "1h", "Stale log"}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Daemon ==")
	requireContains(t, out, "Running (pid")
	requireContains(t, out, "No check has run yet")

	out, _, err = runCLI(t, []string{"check"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	requireContains(t, out, "Checked 1 files: 1 stale, 0 unreadable")

	out, _, err = runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status after check: %v", err)
	}
	requireContains(t, out, "== Last Check ==")
	requireContains(t, out, "[WARN] Checked 1 files")
}

func TestCLITestNotifyUsesNtfy(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(data))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	env := setupCLITestEnv(t, testsupport.WithNtfyTopic(srv.URL+"/filemonitor"))
	out, _, err := runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 1 {
		t.Fatalf("expected one ntfy publish, got %d", len(bodies))
	}
}

func TestCLITestNotifyReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	env := setupCLITestEnv(t, testsupport.WithNtfyTopic(srv.URL+"/filemonitor"))
	if _, _, err := runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected test-notify to fail when the sink rejects the message")
	}
}

func TestCLIServerNotRunning(t *testing.T) {
	env := newCLITestConfig(t)
	for _, args := range [][]string{{"list"}, {"stop"}, {"timer", "5m"}, {"remove", "/tmp/x"}, {"status"}} {
		_, _, err := runCLI(t, args, env.socketPath, env.configPath)
		if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
			t.Fatalf("%v: error = %v, want ErrDaemonNotRunning", args, err)
		}
	}
}

func TestCLIStartRefusesSecondDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	for _, args := range [][]string{{"start"}, {"start", "--detach"}} {
		_, _, err := runCLI(t, args, env.socketPath, env.configPath)
		if !errors.Is(err, daemon.ErrAlreadyRunning) {
			t.Fatalf("%v: error = %v, want ErrAlreadyRunning", args, err)
		}
	}
}

func TestCLIStop(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"stop"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon stopped")
	if err := env.waitForExit(t); err != nil {
		t.Fatalf("daemon exit: %v", err)
	}
	if _, err := os.Stat(env.socketPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("socket should be removed, stat err = %v", err)
	}

	_, _, err = runCLI(t, []string{"stop"}, env.socketPath, env.configPath)
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("second stop error = %v, want ErrDaemonNotRunning", err)
	}
}

func TestCLIStartForeground(t *testing.T) {
	env := newCLITestConfig(t)

	cmd := newRootCommand()
	stdout := &syncBuffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--socket", env.socketPath, "--config", env.configPath, "start"})
	done := make(chan error, 1)
	go func() { done <- cmd.Execute() }()

	client, err := daemonctl.WaitForClient(env.socketPath, 5*time.Second)
	if err != nil {
		t.Fatalf("daemon did not come up: %v", err)
	}
	_ = client.Close()

	if _, _, err := runCLI(t, []string{"stop"}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("stop: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("foreground start did not return after stop")
	}
	requireContains(t, stdout.String(), "Daemon running in the foreground")
}
