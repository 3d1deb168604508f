package commands

import (
	"github.com/spf13/cobra"

	"rental-normalizer/services"
)

func ReportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print insights over the stored listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listings, err := app.Store.List(cmd.Context())
			if err != nil {
				return err
			}
			svc := services.NewInsightService(app.Logger)
			svc.Print(cmd.OutOrStdout(), svc.Generate(listings))
			return nil
		},
	}
}
