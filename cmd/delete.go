package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCmd(app *app) *cobra.Command {
	var skipConfirm bool

	cmd := &cobra.Command{
		Use:   "delete <account>",
		Short: "Delete a saved account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if !skipConfirm {
				confirmed, err := confirmPrompt(cmd, fmt.Sprintf("Delete account %q?", name))
				if err != nil {
					return err
				}
				if !confirmed {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return err
				}
			}

			if err := app.service.DeleteAccount(cmd.Context(), name); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted account %q\n", name)
			return err
		},
	}

	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
