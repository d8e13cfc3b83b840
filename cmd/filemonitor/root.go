package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	root := &cobra.Command{
		Use:   "filemonitor",
		Short: "Notify when watched files go stale",
		Long: "filemonitor keeps a per-session daemon that checks registered files on a timer\n" +
			"and sends a notification for every file not modified within its timeout.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipsConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&ctx.socketFlag, "socket", "", "Path to the filemonitor daemon socket")
	flags.StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")

	root.AddCommand(newDaemonCommands(ctx)...)
	root.AddCommand(newFileCommands(ctx)...)
	root.AddCommand(
		newTimerCommand(ctx),
		newDaemonRunCommand(ctx),
		newTestNotifyCommand(ctx),
		newLogsCommand(ctx),
		newConfigCommand(),
	)
	return root
}
