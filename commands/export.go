package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"rental-normalizer/storage"
)

func ExportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "export <out.csv|->",
		Short: "Write every stored listing to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listings, err := app.Store.List(cmd.Context())
			if err != nil {
				return err
			}

			var w storage.ListingWriter
			if args[0] == "-" {
				w, err = storage.NewCSVStreamWriter(cmd.OutOrStdout())
			} else {
				w, err = storage.NewCSVWriter(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to create CSV writer: %w", err)
			}

			if err := w.Write(listings); err != nil {
				_ = w.Close()
				return fmt.Errorf("CSV write failed: %w", err)
			}
			if err := w.Close(); err != nil {
				return err
			}
			app.Logger.Info("export complete", "listings", len(listings), "out", args[0])
			return nil
		},
	}
}
