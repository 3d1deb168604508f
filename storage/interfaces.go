package storage

import (
	"context"
	"errors"

	"rental-normalizer/models"
)

// ErrNotFound is returned by Get when no listing has the requested ID.
var ErrNotFound = errors.New("listing not found")

// MutateFunc receives the current record, or nil when none exists, and
// returns the full record to write. Returning a nil record leaves the store
// untouched; returning an error aborts the write and is passed through.
type MutateFunc func(current *models.StoredListing) (*models.StoredListing, error)

// ListingStore is the interface any storage backend must satisfy. Every
// write goes through Mutate, which reads, applies fn and writes the whole
// record atomically with respect to other Mutate calls on the same ID.
type ListingStore interface {
	Get(ctx context.Context, id string) (*models.StoredListing, error)
	List(ctx context.Context) ([]*models.StoredListing, error)
	ListIDs(ctx context.Context) ([]string, error)
	Favorites(ctx context.Context) ([]*models.StoredListing, error)
	Mutate(ctx context.Context, id string, fn MutateFunc) error
	Clear(ctx context.Context) (int, error)
	Close() error
}

// ListingWriter is the interface for export sinks.
type ListingWriter interface {
	Write(listings []*models.StoredListing) error
	Close() error
}
