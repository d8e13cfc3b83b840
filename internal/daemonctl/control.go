// Package daemonctl starts and stops the filemonitor daemon on behalf of the
// CLI: launching a detached process, waiting for its socket and falling back
// to SIGKILL when a stop request is ignored.
package daemonctl

import (
	"errors"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"filemonitor/internal/ipc"
)

// ErrDaemonNotRunning indicates no daemon answers on the session socket.
var ErrDaemonNotRunning = errors.New("server not running")

const pollInterval = 100 * time.Millisecond

// IsDaemonUnavailable reports whether a dial error means nobody is listening.
// A missing socket file and a refused connection on a stale one both count;
// anything else is a real transport failure.
func IsDaemonUnavailable(err error) bool {
	for _, target := range []error{os.ErrNotExist, unix.ENOENT, unix.ECONNREFUSED} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// poll calls probe every pollInterval until it reports done or timeout
// elapses. It reports whether probe finished in time.
func poll(timeout time.Duration, probe func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if probe() {
			return true
		}
		if time.Now().Add(pollInterval).After(deadline) {
			return false
		}
		time.Sleep(pollInterval)
	}
}

func daemonPID(client *ipc.Client) int {
	status, err := client.Status()
	if err != nil || status == nil {
		return 0
	}
	return status.PID
}
