package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rental-normalizer/services"
)

func IngestCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file.csv>",
		Short: "Load a spreadsheet export into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			ing := services.NewIngestor(app.Store, app.normalizer, app.Logger)
			report, err := ing.IngestCSV(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("ingest failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Batch %s: %d rows, %d inserted, %d updated, %d skipped, %d malformed, %d failed, %d warnings\n",
				report.BatchID, report.Rows, report.Inserted, report.Updated,
				report.Skipped, report.Malformed, report.Failed, report.Warnings)
			return nil
		},
	}
}
