package daemonctl

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"filemonitor/internal/config"
	"filemonitor/internal/ipc"
)

// StopResult reports how the daemon went away.
type StopResult struct {
	// StopAcknowledged is set when the daemon accepted the stop request.
	StopAcknowledged bool
	// ForcedKill is set when the daemon had to be killed after the grace period.
	ForcedKill bool
	PID        int
}

// WaitForShutdown waits until nothing answers on socketPath.
func WaitForShutdown(socketPath string, timeout time.Duration) error {
	gone := poll(timeout, func() bool {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			client.Close()
			return false
		}
		return IsDaemonUnavailable(err)
	})
	if !gone {
		return fmt.Errorf("daemon did not stop within %s", timeout)
	}
	return nil
}

// StopAndWait sends StopServer and waits gracePeriod for the socket to go
// away. A daemon that is still answering after that is killed through the pid
// file in the runtime directory.
func StopAndWait(socketPath string, cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	client, err := ipc.Dial(socketPath)
	if IsDaemonUnavailable(err) {
		return StopResult{}, ErrDaemonNotRunning
	}
	if err != nil {
		return StopResult{}, err
	}
	result := StopResult{PID: daemonPID(client)}
	resp, err := client.Stop()
	client.Close()
	if err != nil {
		return StopResult{}, err
	}
	result.StopAcknowledged = resp.Stopping

	if WaitForShutdown(socketPath, gracePeriod) == nil {
		return result, nil
	}
	if cfg == nil {
		return result, errors.New("daemon ignored the stop request and its pid file location is unknown")
	}
	pid, err := ForceKillProcess(cfg.PIDPath(), result.PID)
	if err != nil {
		return result, fmt.Errorf("force stop daemon: %w", err)
	}
	os.Remove(socketPath)
	result.ForcedKill = true
	result.PID = pid
	return result, nil
}

// ForceKillProcess sends SIGKILL to the pid recorded in pidPath, or to
// fallbackPID when the file is missing, and removes the pid file. The kernel
// drops the daemon's lock when the process dies.
func ForceKillProcess(pidPath string, fallbackPID int) (int, error) {
	pid, err := readPIDFile(pidPath)
	if err != nil {
		return 0, err
	}
	if pid == 0 {
		pid = fallbackPID
	}
	switch {
	case pid <= 0:
		return 0, fmt.Errorf("no daemon pid known (pid file %s)", pidPath)
	case pid == os.Getpid():
		return 0, fmt.Errorf("refusing to kill current process (pid %d)", pid)
	}
	if err := unix.Kill(pid, unix.SIGKILL); err != nil {
		return 0, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return pid, fmt.Errorf("remove pid file: %w", err)
	}
	return pid, nil
}

// readPIDFile returns 0 when the file is absent or does not hold a pid.
func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read pid file %s: %w", path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid < 0 {
		return 0, nil
	}
	return pid, nil
}
