package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"filemonitor/internal/daemonctl"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
		case errors.Is(err, daemonctl.ErrDaemonNotRunning):
			fmt.Fprintln(os.Stderr, "Server not running")
		default:
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
