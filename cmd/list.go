package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the editable units of this program",
		Long: `List every function and method slot the program registered, with its
type, source location and whether its source can be found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, ui := newSession(cmd)
			defer session.Close(context.WithoutCancel(cmd.Context()))

			units, err := session.Units(cmd.Context())
			if err != nil {
				return err
			}

			return ui.DisplayUnits(cmd.Context(), units)
		},
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
