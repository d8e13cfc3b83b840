package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"filemonitor/internal/duration"
	"filemonitor/internal/ipc"
)

func newTimerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "timer <duration>",
		Short: "Change how often monitored files are checked",
		Long:  "Change how often monitored files are checked.\n\nThe duration is " + duration.Grammar + ".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := duration.ParsePositive(args[0])
			if err != nil {
				return fmt.Errorf("invalid period: %w", err)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.SetTimer(seconds); err != nil {
					return fmt.Errorf("timer: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Checking every %s\n", duration.Format(seconds))
				return nil
			})
		},
	}
}
