package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"rental-normalizer/models"
	"rental-normalizer/normalize"
	"rental-normalizer/storage"
)

// RecordFailure is one record the reprocessor could not rebuild.
type RecordFailure struct {
	ID  string
	Err error
}

// ReprocessReport tallies one reprocessing run.
type ReprocessReport struct {
	Scanned   int
	Updated   int
	Unchanged int
	Failed    int
	Warnings  int
	Failures  []RecordFailure
	Duration  time.Duration
}

// Reprocessor re-runs the current normalization rules over every stored
// listing and writes back only the records whose canonical form changed.
type Reprocessor struct {
	normalizer *normalize.Normalizer
	workers    int
	logger     *slog.Logger
}

func NewReprocessor(n *normalize.Normalizer, workers int, logger *slog.Logger) *Reprocessor {
	if workers < 1 {
		workers = 1
	}
	return &Reprocessor{normalizer: n, workers: workers, logger: logger}
}

// Reprocess rebuilds every listing in store. A failure on one record is
// recorded in the report and never stops the batch; the returned error is
// reserved for a failed ID scan or a cancelled ctx.
func (r *Reprocessor) Reprocess(ctx context.Context, store storage.ListingStore) (*ReprocessReport, error) {
	start := time.Now()
	ids, err := store.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("reprocess: list ids: %w", err)
	}

	report := &ReprocessReport{}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(r.workers)
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			changed, warnings, err := r.reprocessOne(ctx, store, id)

			mu.Lock()
			defer mu.Unlock()
			report.Scanned++
			report.Warnings += warnings
			switch {
			case err != nil:
				report.Failed++
				report.Failures = append(report.Failures, RecordFailure{ID: id, Err: err})
				r.logger.Warn("[reprocess] record failed", "id", id, "err", err)
			case changed:
				report.Updated++
			default:
				report.Unchanged++
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Failures, func(i, j int) bool { return report.Failures[i].ID < report.Failures[j].ID })
	report.Duration = time.Since(start)

	r.logger.Info("[reprocess] done",
		"scanned", report.Scanned, "updated", report.Updated, "unchanged", report.Unchanged,
		"failed", report.Failed, "warnings", report.Warnings, "took", report.Duration)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Reprocessor) reprocessOne(ctx context.Context, store storage.ListingStore, id string) (changed bool, warnings int, err error) {
	err = store.Mutate(ctx, id, func(cur *models.StoredListing) (*models.StoredListing, error) {
		if cur == nil {
			return nil, storage.ErrNotFound
		}
		next, res, err := rebuild(r.normalizer, cur)
		if err != nil {
			return nil, err
		}
		warnings = len(res.Warnings)
		if next.Listing.Equal(&cur.Listing) && cur.SchemaVersion == models.SchemaVersion {
			return nil, nil
		}
		changed = true
		return next, nil
	})
	return changed, warnings, err
}

// rebuild re-normalizes a stored listing from its raw sources. The
// user-owned favorite flag always survives.
func rebuild(n *normalize.Normalizer, cur *models.StoredListing) (*models.StoredListing, *normalize.Result, error) {
	res, err := n.Normalize(cur.Raw())
	if err != nil {
		return nil, nil, fmt.Errorf("normalize %s: %w", cur.ID, err)
	}
	next := cur.Clone()
	next.Listing = res.Listing
	next.Listing.Favorite = cur.Listing.Favorite
	next.SchemaVersion = models.SchemaVersion
	return next, res, nil
}
