package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSwitchCmd(app *app) *cobra.Command {
	var skipConfirm bool

	cmd := &cobra.Command{
		Use:   "switch <account>",
		Short: "Make a saved account the active Codex credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if !skipConfirm {
				confirmed, err := confirmPrompt(cmd, fmt.Sprintf("Switch the active credential to %q?", name))
				if err != nil {
					return err
				}
				if !confirmed {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return err
				}
			}

			account, err := app.service.SwitchToAccount(cmd.Context(), name)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Switched to account %q (%s). Restart Codex to pick up the new credential.\n", account.Name, account.Email)
			return err
		},
	}

	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
