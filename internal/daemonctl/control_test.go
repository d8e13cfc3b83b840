package daemonctl

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"filemonitor/internal/testsupport"
)

func TestIsDaemonUnavailable(t *testing.T) {
	dir := t.TempDir()

	_, missingErr := net.Dial("unix", filepath.Join(dir, "missing.sock"))
	if !IsDaemonUnavailable(missingErr) {
		t.Fatalf("missing socket should be unavailable: %v", missingErr)
	}

	stale := filepath.Join(dir, "stale.sock")
	ln, err := net.Listen("unix", stale)
	if err != nil {
		t.Skipf("unix sockets unavailable: %v", err)
	}
	ln.(*net.UnixListener).SetUnlinkOnClose(false)
	ln.Close()
	_, refusedErr := net.Dial("unix", stale)
	if !IsDaemonUnavailable(refusedErr) {
		t.Fatalf("stale socket should be unavailable: %v", refusedErr)
	}

	if IsDaemonUnavailable(errors.New("permission denied")) {
		t.Fatal("unrelated errors must not be treated as not running")
	}
}

func TestStopAndWaitWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := StopAndWait(cfg.SocketPath(), cfg, time.Second)
	if !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("StopAndWait = %v, want ErrDaemonNotRunning", err)
	}
	if ErrDaemonNotRunning.Error() != "server not running" {
		t.Fatalf("unexpected message %q", ErrDaemonNotRunning)
	}
}

func TestWaitForShutdownReturnsWhenSocketMissing(t *testing.T) {
	if err := WaitForShutdown(filepath.Join(t.TempDir(), "fm.sock"), time.Second); err != nil {
		t.Fatalf("WaitForShutdown: %v", err)
	}
}

func TestWaitForClientTimesOut(t *testing.T) {
	_, err := WaitForClient(filepath.Join(t.TempDir(), "fm.sock"), 150*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestForceKillProcessRefusesSelf(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "filemonitor.pid")
	if err := os.WriteFile(pidPath, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if _, err := ForceKillProcess(pidPath, 0); err == nil {
		t.Fatal("expected refusal to kill the current process")
	}
}

func TestForceKillProcessNeedsPID(t *testing.T) {
	if _, err := ForceKillProcess(filepath.Join(t.TempDir(), "none.pid"), 0); err == nil {
		t.Fatal("expected error without pid")
	}
}

func TestLaunchRejectsEmptyExecutable(t *testing.T) {
	if err := Launch("  ", LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty executable path")
	}
}

func TestReadPIDFile(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]struct {
		content string
		want    int
	}{
		"valid":   {"4242\n", 4242},
		"garbage": {"not a pid", 0},
	}
	for name, tc := range cases {
		path := filepath.Join(dir, name+".pid")
		if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
			t.Fatalf("write pid: %v", err)
		}
		got, err := readPIDFile(path)
		if err != nil || got != tc.want {
			t.Errorf("%s: readPIDFile = %d, %v; want %d", name, got, err, tc.want)
		}
	}
	if got, err := readPIDFile(filepath.Join(dir, "absent.pid")); err != nil || got != 0 {
		t.Errorf("absent pid file: got %d, %v", got, err)
	}
}

func TestLaunchOptionsArgs(t *testing.T) {
	got := LaunchOptions{SocketPath: " /run/fm.sock ", ConfigPath: "/etc/fm.toml"}.args()
	want := []string{"daemon", "--socket", "/run/fm.sock", "--config", "/etc/fm.toml"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("args = %v, want %v", got, want)
	}
	if got := (LaunchOptions{}).args(); len(got) != 1 {
		t.Fatalf("empty options args = %v", got)
	}
}
