package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rental-normalizer/services"
)

func ReprocessCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reprocess",
		Short: "Re-run normalization over every stored listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			workers, _ := cmd.Flags().GetInt("workers")
			if workers <= 0 {
				workers = app.Config.ReprocessWorkers
			}

			report, err := services.NewReprocessor(app.normalizer, workers, app.Logger).
				Reprocess(cmd.Context(), app.Store)
			if err != nil {
				return fmt.Errorf("reprocess failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scanned %d: %d updated, %d unchanged, %d failed (%s)\n",
				report.Scanned, report.Updated, report.Unchanged, report.Failed, report.Duration.Round(time.Millisecond))
			for _, f := range report.Failures {
				fmt.Fprintf(out, "- %s: %v\n", f.ID, f.Err)
			}
			return nil
		},
	}
	cmd.Flags().Int("workers", 0, "concurrent records (default REPROCESS_WORKERS)")
	return cmd
}
