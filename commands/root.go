package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree around app.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rental-normalizer",
		Short:         "Normalize, enrich and report on rental listings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	rootCmd.AddCommand(
		IngestCmd(app),
		EnrichCmd(app),
		ReprocessCmd(app),
		FavoriteCmd(app),
		FavoritesCmd(app),
		ReportCmd(app),
		ExportCmd(app),
		ClearCmd(app),
	)
	return rootCmd
}
