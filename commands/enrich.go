package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"rental-normalizer/scrapeapi"
	"rental-normalizer/services"
)

func EnrichCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "enrich",
		Short: "Fetch scraped details for every listing with a link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config
			client := scrapeapi.NewClient(cfg.ScraperURL, cfg.ScraperTimeout(), cfg.MaxRetries, app.Logger)
			enricher := services.NewEnricher(app.Store, client, app.normalizer,
				cfg.MaxConcurrency, cfg.RateLimit(), app.Logger)

			report, err := enricher.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("enrich failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"%d listings, %d URLs: %d enriched, %d off market, %d failed\n",
				report.Listings, report.URLs, report.Enriched, report.OffMarket, report.Failed)
			return nil
		},
	}
}
