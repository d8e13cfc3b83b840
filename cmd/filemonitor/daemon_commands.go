package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"filemonitor/internal/daemon"
	"filemonitor/internal/daemonctl"
	"filemonitor/internal/daemonrun"
	"filemonitor/internal/ipc"
	"filemonitor/internal/preflight"
)

const (
	startWaitTimeout = 10 * time.Second
	stopGracePeriod  = 5 * time.Second
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var detach bool
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the filemonitor daemon (foreground unless --detach)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			socket := ctx.socketPath()
			if detach {
				return startDetached(ctx, cmd, socket)
			}

			if client, err := ipc.Dial(socket); err == nil {
				_ = client.Close()
				return daemon.ErrAlreadyRunning
			}
			return daemonrun.Run(cmd.Context(), ctx.configValue(), daemonrun.Options{
				SocketPath: ctx.socketOverride(),
				Ready: func() {
					fmt.Fprintf(stdout, "Daemon running in the foreground (pid %d); stop it with `filemonitor stop`\n", os.Getpid())
				},
			})
		},
	}
	startCmd.Flags().BoolVarP(&detach, "detach", "d", false, "Run the daemon in the background and return once it is ready")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the filemonitor daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndWait(ctx.socketPath(), ctx.configValue(), stopGracePeriod)
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and environment checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			var resp *ipc.StatusResponse
			statusErr := ctx.withClient(func(client *ipc.Client) error {
				var err error
				resp, err = client.Status()
				if err != nil {
					return fmt.Errorf("status: %w", err)
				}
				return nil
			})
			if statusErr != nil && !errors.Is(statusErr, daemonctl.ErrDaemonNotRunning) {
				return statusErr
			}
			for _, line := range statusLines(resp, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)
			for _, line := range preflightLines(preflight.RunAll(cmd.Context(), ctx.configValue()), colorize) {
				fmt.Fprintln(stdout, line)
			}
			return statusErr
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Run an evaluation pass now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.CheckNow()
				if err != nil {
					return fmt.Errorf("check: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), passSummaryText(resp.PassSummary))
				return nil
			})
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd, checkCmd}
}

func startDetached(ctx *commandContext, cmd *cobra.Command, socket string) error {
	exe, err := daemonExecutable()
	if err != nil {
		return err
	}
	result, err := daemonctl.EnsureStarted(socket, exe, daemonLaunchOptions(ctx), startWaitTimeout)
	if err != nil {
		return err
	}
	if result.State == daemonctl.StartStateAlreadyRunning {
		return daemon.ErrAlreadyRunning
	}
	if result.PID > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Daemon started (pid %d)\n", result.PID)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Daemon started")
	return nil
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	return daemonctl.LaunchOptions{
		SocketPath: ctx.socketOverride(),
		ConfigPath: ctx.configPath(),
	}
}

func passSummaryText(p ipc.PassSummary) string {
	return fmt.Sprintf("Checked %d files: %d stale, %d unreadable, %d notified", p.Checked, p.Stale, p.Failed, p.Notified)
}
