package services

import (
	"context"
	"log/slog"

	"rental-normalizer/models"
	"rental-normalizer/storage"
)

// FavoriteService flips the user-owned favorite flag. Writes go through
// Mutate so they never race a reprocess of the same listing.
type FavoriteService struct {
	store  storage.ListingStore
	logger *slog.Logger
}

func NewFavoriteService(store storage.ListingStore, logger *slog.Logger) *FavoriteService {
	return &FavoriteService{store: store, logger: logger}
}

// Set marks or unmarks a listing. It returns storage.ErrNotFound for an
// unknown id.
func (s *FavoriteService) Set(ctx context.Context, id string, on bool) error {
	err := s.store.Mutate(ctx, id, func(cur *models.StoredListing) (*models.StoredListing, error) {
		if cur == nil {
			return nil, storage.ErrNotFound
		}
		if cur.Listing.Favorite == on {
			return nil, nil
		}
		next := cur.Clone()
		next.Listing.Favorite = on
		return next, nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("[favorites] updated", "id", id, "favorite", on)
	return nil
}

// Toggle inverts the flag and returns its new value.
func (s *FavoriteService) Toggle(ctx context.Context, id string) (bool, error) {
	var state bool
	err := s.store.Mutate(ctx, id, func(cur *models.StoredListing) (*models.StoredListing, error) {
		if cur == nil {
			return nil, storage.ErrNotFound
		}
		next := cur.Clone()
		next.Listing.Favorite = !cur.Listing.Favorite
		state = next.Listing.Favorite
		return next, nil
	})
	if err != nil {
		return false, err
	}
	s.logger.Info("[favorites] toggled", "id", id, "favorite", state)
	return state, nil
}

func (s *FavoriteService) List(ctx context.Context) ([]*models.StoredListing, error) {
	return s.store.Favorites(ctx)
}
