package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "ca",
		Short:         "Codex Accounts CLI (ca): save and switch Codex credentials",
		Long:          "ca (Codex Accounts CLI) backs up the Codex CLI credential file as named accounts, switches between them, and shows per-account usage scraped from local session logs.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		if verbose {
			app.logLevel.Set(slog.LevelDebug)
		}
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newListCmd(app),
		newSaveCmd(app),
		newSwitchCmd(app),
		newDeleteCmd(app),
		newUsageCmd(app),
		newConfigCmd(app),
	)

	return rootCmd
}
