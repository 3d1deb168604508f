package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"rental-normalizer/models"
)

var exportHeader = []string{
	"id", "property_address", "unit", "zip_code", "area",
	"bedrooms", "bathrooms", "square_feet", "rent", "parking",
	"available", "favorite", "status", "hacla", "bc",
	"utilities", "amenities", "photos", "listing_link",
	"first_seen_date", "last_seen_date",
}

// CSVWriter exports canonical listings as a flat CSV table.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	closer io.Closer
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	c, err := NewCSVStreamWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	c.closer = f
	return c, nil
}

// NewCSVStreamWriter writes to w, which is not closed by Close.
func NewCSVStreamWriter(w io.Writer) (*CSVWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	cw.Flush()
	return &CSVWriter{writer: cw}, cw.Error()
}

// Write appends one row per listing.
func (c *CSVWriter) Write(listings []*models.StoredListing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range listings {
		if err := c.writer.Write(exportRow(l)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

func exportRow(s *models.StoredListing) []string {
	l := &s.Listing

	sqft := ""
	if l.SquareFeet != nil {
		sqft = strconv.Itoa(*l.SquareFeet)
	}
	utilities := make([]string, 0, len(models.AllUtilities))
	for _, u := range models.AllUtilities {
		utilities = append(utilities, string(u)+"="+string(l.Utilities[u]))
	}

	return []string{
		s.ID,
		l.Address,
		l.Unit,
		l.ZipString(),
		l.Area,
		strconv.Itoa(l.Bedrooms),
		strconv.FormatFloat(l.Bathrooms, 'f', -1, 64),
		sqft,
		strconv.Itoa(l.Rent),
		strconv.Itoa(l.Parking),
		strconv.FormatBool(l.Available),
		strconv.FormatBool(l.Favorite),
		s.Status,
		strconv.FormatBool(l.Subsidy.HACLA),
		strconv.FormatBool(l.Subsidy.BC),
		strings.Join(utilities, ";"),
		strings.Join(l.AmenityNames(), ";"),
		strings.Join(l.Photos, " "),
		l.ListingURL,
		formatDate(s.FirstSeen),
		formatDate(s.LastSeen),
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writer.Flush()
	if c.closer == nil {
		return c.writer.Error()
	}
	return c.closer.Close()
}
