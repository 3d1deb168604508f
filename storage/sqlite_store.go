package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"rental-normalizer/models"
)

// listingRecord is the gorm row for one stored listing.
type listingRecord struct {
	ID            string `gorm:"primaryKey"`
	ZipCode       *int   `gorm:"index"`
	Bedrooms      int    `gorm:"index"`
	Rent          int    `gorm:"index"`
	Area          string `gorm:"index"`
	Favorite      bool   `gorm:"index"`
	Status        string `gorm:"size:20"`
	BatchID       string
	FirstSeen     time.Time
	LastSeen      time.Time
	SchemaVersion int
	Listing       []byte
	Sources       []byte
}

func (listingRecord) TableName() string { return "listings" }

func toRecord(l *models.StoredListing) (*listingRecord, error) {
	listing, sources, err := encodeDocuments(l)
	if err != nil {
		return nil, err
	}
	return &listingRecord{
		ID:            l.ID,
		ZipCode:       l.Listing.ZipCode,
		Bedrooms:      l.Listing.Bedrooms,
		Rent:          l.Listing.Rent,
		Area:          l.Listing.Area,
		Favorite:      l.Listing.Favorite,
		Status:        l.Status,
		BatchID:       l.BatchID,
		FirstSeen:     l.FirstSeen,
		LastSeen:      l.LastSeen,
		SchemaVersion: l.SchemaVersion,
		Listing:       listing,
		Sources:       sources,
	}, nil
}

func (r *listingRecord) toStored() (*models.StoredListing, error) {
	l := &models.StoredListing{
		ID:            r.ID,
		Status:        r.Status,
		BatchID:       r.BatchID,
		FirstSeen:     r.FirstSeen,
		LastSeen:      r.LastSeen,
		SchemaVersion: r.SchemaVersion,
	}
	if err := decodeDocuments(l, r.Listing, r.Sources); err != nil {
		return nil, err
	}
	return l, nil
}

// SQLiteStore persists listings to a single SQLite file through gorm.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (or creates) the database at path and migrates the
// listings table. Use ":memory:" for a throwaway store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite: handle: %w", err)
	}
	// One connection serialises writers and keeps a :memory: database alive.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&listingRecord{}); err != nil {
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.StoredListing, error) {
	var rec listingRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get %s: %w", id, err)
	}
	return rec.toStored()
}

func (s *SQLiteStore) List(ctx context.Context) ([]*models.StoredListing, error) {
	return s.find(s.db.WithContext(ctx))
}

func (s *SQLiteStore) Favorites(ctx context.Context) ([]*models.StoredListing, error) {
	return s.find(s.db.WithContext(ctx).Where("favorite = ?", true))
}

func (s *SQLiteStore) find(q *gorm.DB) ([]*models.StoredListing, error) {
	var recs []listingRecord
	if err := q.Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("sqlite: query listings: %w", err)
	}
	out := make([]*models.StoredListing, 0, len(recs))
	for i := range recs {
		l, err := recs[i].toStored()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *SQLiteStore) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&listingRecord{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("sqlite: list ids: %w", err)
	}
	return ids, nil
}

// Mutate runs the read-modify-write inside one transaction.
func (s *SQLiteStore) Mutate(ctx context.Context, id string, fn MutateFunc) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current *models.StoredListing
		var rec listingRecord
		err := tx.First(&rec, "id = ?", id).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return fmt.Errorf("sqlite: read %s: %w", id, err)
		default:
			if current, err = rec.toStored(); err != nil {
				return err
			}
		}

		next, err := fn(current)
		if err != nil || next == nil {
			return err
		}
		next.ID = id

		row, err := toRecord(next)
		if err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error; err != nil {
			return fmt.Errorf("sqlite: write %s: %w", id, err)
		}
		return nil
	})
}

func (s *SQLiteStore) Clear(ctx context.Context) (int, error) {
	res := s.db.WithContext(ctx).Where("1 = 1").Delete(&listingRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("sqlite: clear: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
