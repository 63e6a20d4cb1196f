package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

const runLongDescription = `Run shell commands from a script, one per line, and stop at the first
failure. Without a script, or with "-", commands are read from stdin.
Blank lines and lines starting with # are skipped.

When the script ends the edits still active are reported and reverted, so
a script that wants to observe an edit should call it before finishing.`

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [script]",
		Short: "Run shell commands from a script",
		Long:  runLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := openScript(cmd, args)
			if err != nil {
				return err
			}
			defer script.Close()

			session, ui := newSession(cmd)
			defer session.Close(context.WithoutCancel(cmd.Context()))

			sh := newShell(cmd, session, ui)
			sh.keepGoing = false

			return sh.loop(cmd.Context(), script)
		},
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func openScript(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}

	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}

	return f, nil
}
