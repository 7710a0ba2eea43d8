package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	accountsrender "github.com/bnema/codex-accounts-cli/internal/adapters/render/accounts"
	"github.com/bnema/codex-accounts-cli/internal/application"
)

// listItem is the JSON shape of one account row. Credential material never
// leaves the repository through this path.
type listItem struct {
	Name      string                    `json:"name"`
	Email     string                    `json:"email"`
	Plan      string                    `json:"plan"`
	SavedAt   string                    `json:"saved_at"`
	IsCurrent bool                      `json:"is_current"`
	Usage     *application.DisplayUsage `json:"usage,omitempty"`
}

func newListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved accounts with usage",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts, err := app.service.LoadAccounts(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([]accountsrender.Row, 0, len(accounts))
			for _, account := range accounts {
				usage, err := app.service.ResolveDisplayUsage(cmd.Context(), account)
				if err != nil {
					return err
				}
				rows = append(rows, accountsrender.Row{Account: account, Usage: usage})
			}

			if asJSON {
				items := make([]listItem, 0, len(rows))
				for _, row := range rows {
					item := listItem{
						Name:      row.Account.Name,
						Email:     row.Account.Email,
						Plan:      row.Account.Plan,
						SavedAt:   row.Account.SavedAt,
						IsCurrent: row.Account.IsCurrent,
					}
					if row.Usage.HasData {
						usage := row.Usage
						item.Usage = &usage
					}
					items = append(items, item)
				}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}

			rendered, err := app.renderer(rows, accountsrender.RenderOptions{Now: app.now()})
			if err != nil {
				return fmt.Errorf("render account list: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
