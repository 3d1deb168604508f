package storage

import (
	"context"
	"sort"
	"sync"

	"rental-normalizer/models"
)

// MemoryStore keeps listings in process memory. It is safe for concurrent
// use; records are cloned on the way in and out.
type MemoryStore struct {
	mu       sync.Mutex
	listings map[string]*models.StoredListing
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{listings: make(map[string]*models.StoredListing)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.StoredListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return l.Clone(), nil
}

func (m *MemoryStore) List(ctx context.Context) ([]*models.StoredListing, error) {
	return m.filter(ctx, func(*models.StoredListing) bool { return true })
}

func (m *MemoryStore) Favorites(ctx context.Context) ([]*models.StoredListing, error) {
	return m.filter(ctx, func(l *models.StoredListing) bool { return l.Listing.Favorite })
}

func (m *MemoryStore) ListIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.listings))
	for id := range m.listings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStore) filter(ctx context.Context, keep func(*models.StoredListing) bool) ([]*models.StoredListing, error) {
	ids, _ := m.ListIDs(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.StoredListing, 0, len(ids))
	for _, id := range ids {
		l, ok := m.listings[id]
		if ok && keep(l) {
			out = append(out, l.Clone())
		}
	}
	return out, nil
}

// Mutate holds the store lock for the whole read-modify-write.
func (m *MemoryStore) Mutate(ctx context.Context, id string, fn MutateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var current *models.StoredListing
	if l, ok := m.listings[id]; ok {
		current = l.Clone()
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	stored := next.Clone()
	stored.ID = id
	m.listings[id] = stored
	return nil
}

// Clear deletes all listings and reports how many were removed.
func (m *MemoryStore) Clear(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.listings)
	m.listings = make(map[string]*models.StoredListing)
	return n, nil
}

func (m *MemoryStore) Close() error { return nil }
