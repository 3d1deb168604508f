package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"rental-normalizer/models"
	"rental-normalizer/normalize"
	"rental-normalizer/scrapeapi"
	"rental-normalizer/storage"
	"rental-normalizer/utils"
)

// Fetcher returns the scraped payload for a listing page.
type Fetcher interface {
	Fetch(ctx context.Context, listingURL string) (map[string]any, error)
}

// EnrichReport tallies one enrichment run.
type EnrichReport struct {
	Listings  int
	URLs      int
	Enriched  int
	OffMarket int
	Failed    int
}

// Enricher pulls scraped details for every stored listing that has a
// listing link and folds them into the canonical record.
type Enricher struct {
	store      storage.ListingStore
	fetcher    Fetcher
	normalizer *normalize.Normalizer
	workers    int
	rateLimit  time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func NewEnricher(
	store storage.ListingStore,
	fetcher Fetcher,
	n *normalize.Normalizer,
	workers int,
	rateLimit time.Duration,
	logger *slog.Logger,
) *Enricher {
	return &Enricher{
		store:      store,
		fetcher:    fetcher,
		normalizer: n,
		workers:    workers,
		rateLimit:  rateLimit,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run fetches each distinct listing URL once and applies the result to
// every listing that links to it.
func (e *Enricher) Run(ctx context.Context) (*EnrichReport, error) {
	listings, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("enrich: list listings: %w", err)
	}

	seen := utils.NewURLSet()
	byURL := make(map[string][]string)
	var urls []string
	for _, l := range listings {
		link := l.Listing.ListingURL
		if link == "" {
			continue
		}
		if seen.Add(link) {
			urls = append(urls, link)
		}
		byURL[link] = append(byURL[link], l.ID)
	}

	report := &EnrichReport{Listings: len(listings), URLs: seen.Size()}
	e.logger.Info("[enrich] starting", "listings", len(listings), "urls", seen.Size(), "workers", e.workers)

	var mu sync.Mutex
	pool := utils.NewWorkerPool(e.workers, e.rateLimit)
	for _, link := range urls {
		ids := byURL[link]
		err := pool.Submit(ctx, func(ctx context.Context) {
			payload, fetchErr := e.fetcher.Fetch(ctx, link)
			for _, id := range ids {
				var err error
				switch {
				case errors.Is(fetchErr, scrapeapi.ErrNotFound):
					err = e.MarkOffMarket(ctx, id)
				case fetchErr != nil:
					err = fetchErr
				default:
					err = e.Apply(ctx, id, payload)
				}

				mu.Lock()
				switch {
				case err != nil:
					report.Failed++
					e.logger.Warn("[enrich] listing failed", "id", id, "url", link, "err", err)
				case fetchErr != nil:
					report.OffMarket++
				default:
					report.Enriched++
				}
				mu.Unlock()
			}
		})
		if err != nil {
			break
		}
	}
	pool.Wait()

	e.logger.Info("[enrich] done",
		"enriched", report.Enriched, "off_market", report.OffMarket, "failed", report.Failed)
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// Apply stores a scraped payload as the listing's scrape source and
// re-normalizes the merged record.
func (e *Enricher) Apply(ctx context.Context, id string, payload map[string]any) error {
	return e.store.Mutate(ctx, id, func(cur *models.StoredListing) (*models.StoredListing, error) {
		if cur == nil {
			return nil, storage.ErrNotFound
		}
		merged := cur.Clone()
		merged.Sources.Scrape = payload
		next, _, err := rebuild(e.normalizer, merged)
		if err != nil {
			return nil, err
		}
		next.Status = models.StatusAvailable
		next.LastSeen = e.now()
		return next, nil
	})
}

// MarkOffMarket flags a listing whose page no longer exists.
func (e *Enricher) MarkOffMarket(ctx context.Context, id string) error {
	return e.store.Mutate(ctx, id, func(cur *models.StoredListing) (*models.StoredListing, error) {
		if cur == nil {
			return nil, storage.ErrNotFound
		}
		if cur.Status == models.StatusOffMarket {
			return nil, nil
		}
		next := cur.Clone()
		next.Status = models.StatusOffMarket
		return next, nil
	})
}
