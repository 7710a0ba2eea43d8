package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	accountsrender "github.com/bnema/codex-accounts-cli/internal/adapters/render/accounts"
	"github.com/bnema/codex-accounts-cli/internal/application"
	"github.com/bnema/codex-accounts-cli/internal/domain"
)

func newUsageCmd(app *app) *cobra.Command {
	var accountName string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show usage limits for an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUsage(cmd, app, accountName, asJSON)
		},
	}

	cmd.Flags().StringVar(&accountName, "account", "", "Account name (default: the active account)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func runUsage(cmd *cobra.Command, app *app, accountName string, asJSON bool) error {
	target, err := resolveUsageTarget(cmd.Context(), app, accountName)
	if err != nil {
		return err
	}

	var usage application.DisplayUsage
	if target.IsCurrent {
		usage, err = refreshActiveUsage(cmd, app, target, asJSON)
		if err != nil {
			return err
		}
	} else {
		// Session logs only describe the signed-in account, so everything
		// else is served from the cache.
		usage, err = app.service.ResolveDisplayUsage(cmd.Context(), target)
		if err != nil {
			return err
		}
		if !usage.HasData {
			return fmt.Errorf("no cached usage for %q; only the active account can be refreshed", target.Name)
		}
	}

	row := accountsrender.Row{Account: target, Usage: usage}

	if asJSON {
		item := listItem{
			Name:      target.Name,
			Email:     target.Email,
			Plan:      target.Plan,
			SavedAt:   target.SavedAt,
			IsCurrent: target.IsCurrent,
			Usage:     &usage,
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(item)
	}

	rendered, err := app.renderer([]accountsrender.Row{row}, accountsrender.RenderOptions{Now: app.now()})
	if err != nil {
		return fmt.Errorf("render usage: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func resolveUsageTarget(ctx context.Context, app *app, accountName string) (domain.Account, error) {
	accounts, err := app.service.LoadAccounts(ctx)
	if err != nil {
		return domain.Account{}, err
	}

	if accountName != "" {
		for _, account := range accounts {
			if account.Name == accountName {
				return account, nil
			}
		}
		return domain.Account{}, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, accountName)
	}

	for _, account := range accounts {
		if account.IsCurrent {
			return account, nil
		}
	}

	return domain.Account{}, fmt.Errorf("no active account among saved accounts; run 'ca save' first")
}

func refreshActiveUsage(cmd *cobra.Command, app *app, target domain.Account, asJSON bool) (application.DisplayUsage, error) {
	var summary domain.UsageSummary
	refresh := func(ctx context.Context) error {
		var err error
		summary, err = app.service.RefreshUsage(ctx, target.Name)
		return err
	}

	var err error
	if asJSON {
		err = refresh(cmd.Context())
	} else {
		err = runScanSpinner(cmd.Context(), cmd.ErrOrStderr(), refresh)
	}
	if err != nil {
		return application.DisplayUsage{}, err
	}

	tokens := summary.TokenUsage
	return application.DisplayUsage{
		TokenUsage: &tokens,
		Primary:    summary.RateLimits.Primary,
		Secondary:  summary.RateLimits.Secondary,
		HasData:    true,
	}, nil
}
