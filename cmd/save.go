package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSaveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Back up the active Codex credential as a named account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := app.service.SaveCurrentAsAccount(cmd.Context())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved account %q (%s)\n", account.Name, account.Email)
			return err
		},
	}
}
