package daemonctl

import (
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"filemonitor/internal/ipc"
)

// LaunchOptions are forwarded to the spawned daemon as flags.
type LaunchOptions struct {
	SocketPath string
	ConfigPath string
}

func (o LaunchOptions) args() []string {
	args := []string{"daemon"}
	if v := strings.TrimSpace(o.SocketPath); v != "" {
		args = append(args, "--socket", v)
	}
	if v := strings.TrimSpace(o.ConfigPath); v != "" {
		args = append(args, "--config", v)
	}
	return args
}

// StartState describes the outcome of EnsureStarted.
type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult reports what EnsureStarted did and the daemon pid when known.
type StartResult struct {
	State StartState
	PID   int
}

// Launch runs the hidden "daemon" subcommand of executablePath in a new
// session so it outlives the terminal that started it.
func Launch(executablePath string, opts LaunchOptions) error {
	executablePath = strings.TrimSpace(executablePath)
	if executablePath == "" {
		return fmt.Errorf("launch daemon: executable path is empty")
	}
	cmd := exec.Command(executablePath, opts.args()...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return cmd.Process.Release()
}

// WaitForClient dials socketPath until it answers or timeout elapses.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	var (
		client  *ipc.Client
		lastErr error
	)
	ok := poll(timeout, func() bool {
		client, lastErr = ipc.Dial(socketPath)
		return lastErr == nil
	})
	if !ok {
		return nil, fmt.Errorf("daemon did not answer within %s: %w", timeout, lastErr)
	}
	return client, nil
}

// EnsureStarted launches a detached daemon unless one already answers on
// socketPath, then waits up to waitTimeout for the new one to come up.
func EnsureStarted(socketPath, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	result := StartResult{State: StartStateAlreadyRunning}
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if err := Launch(executablePath, opts); err != nil {
			return StartResult{}, err
		}
		if client, err = WaitForClient(socketPath, waitTimeout); err != nil {
			return StartResult{}, err
		}
		result.State = StartStateStarted
	}
	defer client.Close()
	result.PID = daemonPID(client)
	return result, nil
}
