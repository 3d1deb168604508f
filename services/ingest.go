package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rental-normalizer/models"
	"rental-normalizer/normalize"
	"rental-normalizer/storage"
)

// IngestReport tallies one spreadsheet upload.
type IngestReport struct {
	BatchID   string
	Rows      int
	Inserted  int
	Updated   int
	Skipped   int
	Malformed int
	Failed    int
	Warnings  int
}

// Ingestor loads spreadsheet rows into the store.
type Ingestor struct {
	store      storage.ListingStore
	normalizer *normalize.Normalizer
	logger     *slog.Logger
	now        func() time.Time
}

func NewIngestor(store storage.ListingStore, n *normalize.Normalizer, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		store:      store,
		normalizer: n,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// NewBatchID returns an upload batch identifier such as
// batch_20240501_120000_1a2b3c4d.
func NewBatchID(at time.Time) string {
	return fmt.Sprintf("batch_%s_%s", at.UTC().Format("20060102_150405"), uuid.NewString()[:8])
}

// IngestCSV reads a spreadsheet export and upserts every usable row.
func (i *Ingestor) IngestCSV(ctx context.Context, r io.Reader) (*IngestReport, error) {
	parsed, err := storage.ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	report, err := i.IngestRows(ctx, parsed.Rows)
	if report != nil {
		report.Malformed = parsed.Malformed
	}
	return report, err
}

// IngestRows upserts spreadsheet rows. Rows without an address or a valid
// zip code cannot be identified and are skipped. Existing listings keep
// their favorite flag, first-seen date and batch.
func (i *Ingestor) IngestRows(ctx context.Context, rows []map[string]string) (*IngestReport, error) {
	now := i.now()
	report := &IngestReport{BatchID: NewBatchID(now), Rows: len(rows)}

	for n, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		raw := models.NewSheetRecord(row)
		res, err := i.normalizer.Normalize(raw)
		if errors.Is(err, normalize.ErrUnparseable) {
			report.Failed++
			i.logger.Warn("[ingest] unparseable row", "row", n+1, "err", err)
			continue
		}
		if err != nil {
			return report, err
		}
		report.Warnings += len(res.Warnings)
		for _, w := range res.Warnings {
			i.logger.Debug("[ingest] field warning", "row", n+1, "warning", w.String())
		}

		l := res.Listing
		if l.Address == "" || l.ZipCode == nil {
			report.Skipped++
			i.logger.Debug("[ingest] row without address or zip skipped", "row", n+1)
			continue
		}

		id := models.UnitID(l.Address, l.Unit, l.ZipString())
		inserted := false
		err = i.store.Mutate(ctx, id, func(cur *models.StoredListing) (*models.StoredListing, error) {
			if cur == nil {
				inserted = true
				return &models.StoredListing{
					ID:            id,
					Listing:       l,
					Sources:       models.Sources{Sheet: raw.Fields},
					Status:        models.StatusAvailable,
					BatchID:       report.BatchID,
					FirstSeen:     now,
					LastSeen:      now,
					SchemaVersion: models.SchemaVersion,
				}, nil
			}

			merged := cur.Clone()
			merged.Sources.Sheet = models.MergeFields(cur.Sources.Sheet, raw.Fields)
			next, _, err := rebuild(i.normalizer, merged)
			if err != nil {
				return nil, err
			}
			next.Status = models.StatusAvailable
			next.LastSeen = now
			return next, nil
		})
		if err != nil {
			report.Failed++
			i.logger.Error("[ingest] store write failed", "id", id, "err", err)
			continue
		}
		if inserted {
			report.Inserted++
		} else {
			report.Updated++
		}
	}

	i.logger.Info("[ingest] upload complete",
		"batch", report.BatchID, "rows", report.Rows, "inserted", report.Inserted,
		"updated", report.Updated, "skipped", report.Skipped, "failed", report.Failed,
		"warnings", report.Warnings)
	return report, nil
}
