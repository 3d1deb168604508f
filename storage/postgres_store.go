package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"rental-normalizer/models"
)

const selectColumns = `
	SELECT id, listing, sources, status, batch_id, first_seen, last_seen, schema_version
	FROM listings`

// PostgresStore persists listings to PostgreSQL. The canonical listing and
// its raw sources live in JSONB columns; the fields used for filtering are
// copied into indexed columns on every write.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, waits for it to accept
// connections, runs schema migrations, and returns a ready-to-use store.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	return NewPostgresStoreWithDB(ctx, db)
}

// NewPostgresStoreWithDB wraps an open handle and runs schema migrations.
func NewPostgresStoreWithDB(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	ps := &PostgresStore{db: db}
	if err := ps.migrate(ctx); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			id             TEXT        PRIMARY KEY,
			zip_code       INTEGER,
			bedrooms       INTEGER     NOT NULL DEFAULT 0,
			rent           INTEGER     NOT NULL DEFAULT 0,
			area           TEXT        NOT NULL DEFAULT '',
			favorite       BOOLEAN     NOT NULL DEFAULT FALSE,
			status         VARCHAR(20) NOT NULL DEFAULT 'available',
			batch_id       TEXT        NOT NULL DEFAULT '',
			first_seen     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_seen      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			schema_version INTEGER     NOT NULL DEFAULT 0,
			listing        JSONB       NOT NULL,
			sources        JSONB       NOT NULL DEFAULT '{}'
		);

		CREATE INDEX IF NOT EXISTS idx_listings_zip_code ON listings(zip_code);
		CREATE INDEX IF NOT EXISTS idx_listings_bedrooms ON listings(bedrooms);
		CREATE INDEX IF NOT EXISTS idx_listings_rent     ON listings(rent);
		CREATE INDEX IF NOT EXISTS idx_listings_area     ON listings(area);
		CREATE INDEX IF NOT EXISTS idx_listings_favorite ON listings(favorite);
	`)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*models.StoredListing, error) {
	l := &models.StoredListing{}
	var listing, sources []byte
	if err := row.Scan(
		&l.ID, &listing, &sources, &l.Status, &l.BatchID,
		&l.FirstSeen, &l.LastSeen, &l.SchemaVersion,
	); err != nil {
		return nil, err
	}
	if err := decodeDocuments(l, listing, sources); err != nil {
		return nil, err
	}
	return l, nil
}

func (ps *PostgresStore) Get(ctx context.Context, id string) (*models.StoredListing, error) {
	l, err := scanListing(ps.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get %s: %w", id, err)
	}
	return l, nil
}

// List retrieves all stored listings, ordered by ID.
func (ps *PostgresStore) List(ctx context.Context) ([]*models.StoredListing, error) {
	return ps.query(ctx, selectColumns+` ORDER BY id`)
}

func (ps *PostgresStore) Favorites(ctx context.Context) ([]*models.StoredListing, error) {
	return ps.query(ctx, selectColumns+` WHERE favorite ORDER BY id`)
}

func (ps *PostgresStore) query(ctx context.Context, q string) ([]*models.StoredListing, error) {
	rows, err := ps.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("postgres: query listings: %w", err)
	}
	defer rows.Close()

	var listings []*models.StoredListing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (ps *PostgresStore) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := ps.db.QueryContext(ctx, `SELECT id FROM listings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Mutate locks the row with SELECT ... FOR UPDATE, applies fn and upserts
// the full row in the same transaction.
func (ps *PostgresStore) Mutate(ctx context.Context, id string, fn MutateFunc) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanListing(tx.QueryRowContext(ctx, selectColumns+` WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		current = nil
	} else if err != nil {
		return fmt.Errorf("postgres: lock %s: %w", id, err)
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	next.ID = id

	if err := upsert(ctx, tx, next); err != nil {
		return fmt.Errorf("postgres: write %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit %s: %w", id, err)
	}
	return nil
}

func upsert(ctx context.Context, tx *sql.Tx, l *models.StoredListing) error {
	listing, sources, err := encodeDocuments(l)
	if err != nil {
		return err
	}
	var zip sql.NullInt64
	if l.Listing.ZipCode != nil {
		zip = sql.NullInt64{Int64: int64(*l.Listing.ZipCode), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO listings (id, zip_code, bedrooms, rent, area, favorite, status, batch_id,
			first_seen, last_seen, schema_version, listing, sources)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			zip_code = EXCLUDED.zip_code,
			bedrooms = EXCLUDED.bedrooms,
			rent = EXCLUDED.rent,
			area = EXCLUDED.area,
			favorite = EXCLUDED.favorite,
			status = EXCLUDED.status,
			batch_id = EXCLUDED.batch_id,
			first_seen = EXCLUDED.first_seen,
			last_seen = EXCLUDED.last_seen,
			schema_version = EXCLUDED.schema_version,
			listing = EXCLUDED.listing,
			sources = EXCLUDED.sources
	`,
		l.ID, zip, l.Listing.Bedrooms, l.Listing.Rent, l.Listing.Area, l.Listing.Favorite,
		l.Status, l.BatchID, l.FirstSeen, l.LastSeen, l.SchemaVersion, listing, sources,
	)
	return err
}

// Clear deletes all existing listings from the table.
func (ps *PostgresStore) Clear(ctx context.Context) (int, error) {
	res, err := ps.db.ExecContext(ctx, "DELETE FROM listings")
	if err != nil {
		return 0, fmt.Errorf("postgres: clear: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("postgres: clear: %w", err)
	}
	return int(n), nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
