package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"filemonitor/internal/duration"
	"filemonitor/internal/ipc"
	"filemonitor/internal/monitor"
)

func newFileCommands(ctx *commandContext) []*cobra.Command {
	addCmd := &cobra.Command{
		Use:   "add <path> <duration> <summary> [<message> [<icon>]]",
		Short: "Monitor a file and notify when it is older than <duration>",
		Long: "Monitor a file and notify when it is older than <duration>.\n\n" +
			"The duration is " + duration.Grammar + ".\n" +
			"The message may contain strftime placeholders such as %x and %X, which are\n" +
			"filled with the file's modification time; the default is\n" +
			"\"File <path> untouched since %x %X\".",
		Args: cobra.RangeArgs(3, 5),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildAddRequest(args)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.AddFile(req); err != nil {
					return fmt.Errorf("add: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Monitoring %s (timeout %s)\n", req.Path, duration.Format(req.TimeoutSeconds))
				return nil
			})
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <path>...",
		Short: "Stop monitoring one or more files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := make([]string, 0, len(args))
			for _, arg := range args {
				path, err := resolveRegisteredPath(arg)
				if err != nil {
					return err
				}
				paths = append(paths, path)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				out := cmd.OutOrStdout()
				for _, path := range paths {
					resp, err := client.RemoveFile(path)
					if err != nil {
						return fmt.Errorf("remove %s: %w", path, err)
					}
					if resp.Found {
						fmt.Fprintf(out, "Removed %s\n", path)
					} else {
						fmt.Fprintf(out, "Not monitored: %s\n", path)
					}
				}
				return nil
			})
		},
	}

	var plain bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List monitored files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ListFiles()
				if err != nil {
					return fmt.Errorf("list: %w", err)
				}
				out := cmd.OutOrStdout()
				if plain {
					if len(resp.Files) == 0 {
						fmt.Fprintln(cmd.ErrOrStderr(), "No monitored files")
					}
					writePlainList(out, resp.Files)
					return nil
				}
				if len(resp.Files) == 0 {
					fmt.Fprintln(out, "No monitored files")
					return nil
				}
				fmt.Fprint(out, renderFileTable(resp.Files))
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&plain, "plain", false, "Tab-separated output on stdout: path, timeout seconds, summary, message, icon")

	return []*cobra.Command{addCmd, removeCmd, listCmd}
}

func buildAddRequest(args []string) (ipc.AddFileRequest, error) {
	typed := args[0]
	path, err := canonicalExistingPath(typed)
	if err != nil {
		return ipc.AddFileRequest{}, err
	}
	timeout, err := duration.ParsePositive(args[1])
	if err != nil {
		return ipc.AddFileRequest{}, fmt.Errorf("invalid timeout: %w", err)
	}
	req := ipc.AddFileRequest{
		Path:           path,
		TimeoutSeconds: timeout,
		Summary:        args[2],
		Message:        monitor.DefaultMessageTemplate(typed),
	}
	if len(args) > 3 {
		req.Message = args[3]
	}
	if len(args) > 4 {
		req.Icon = args[4]
	}
	return req, nil
}

// canonicalExistingPath resolves typed to an absolute, symlink-free path and
// fails when the file does not exist.
func canonicalExistingPath(typed string) (string, error) {
	if strings.TrimSpace(typed) == "" {
		return "", errors.New("path is required")
	}
	abs, err := filepath.Abs(typed)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", typed, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("File not found: %s", typed) //nolint:staticcheck
		}
		return "", fmt.Errorf("resolve %s: %w", typed, err)
	}
	return resolved, nil
}

// resolveRegisteredPath canonicalizes like add, but tolerates files that
// were deleted after being registered.
func resolveRegisteredPath(typed string) (string, error) {
	path, err := canonicalExistingPath(typed)
	if err == nil {
		return path, nil
	}
	abs, absErr := filepath.Abs(typed)
	if absErr != nil || strings.TrimSpace(typed) == "" {
		return "", err
	}
	return abs, nil
}

func writePlainList(out io.Writer, files []ipc.FileEntry) {
	for _, f := range files {
		fields := []string{f.Path, strconv.FormatInt(f.TimeoutSeconds, 10), f.Summary, f.Message, f.Icon}
		fmt.Fprintln(out, strings.Join(fields, "\t"))
	}
}

func renderFileTable(files []ipc.FileEntry) string {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{f.Path, duration.Format(f.TimeoutSeconds), f.Summary, f.Message, f.Icon})
	}
	return renderTable(
		[]string{"Path", "Timeout", "Summary", "Message", "Icon"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
	)
}
