package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Listing status values.
const (
	StatusAvailable = "available"
	StatusOffMarket = "off_market"
)

// Sources keeps the raw inputs a listing was built from so it can be
// re-normalized when the rules change.
type Sources struct {
	Sheet  map[string]any `json:"sheet,omitempty"`
	Scrape map[string]any `json:"scrape,omitempty"`
}

// StoredListing is the unit persisted by a ListingStore.
type StoredListing struct {
	ID            string    `json:"id"`
	Listing       Listing   `json:"listing"`
	Sources       Sources   `json:"sources"`
	Status        string    `json:"status"`
	BatchID       string    `json:"batch_id"`
	FirstSeen     time.Time `json:"first_seen_date"`
	LastSeen      time.Time `json:"last_seen_date"`
	SchemaVersion int       `json:"schema_version"`
}

// Raw builds the normalizer input for a stored listing: sheet fields
// overlaid by scraped fields. Records stored before sources were kept fall
// back to their canonical form.
func (s *StoredListing) Raw() RawRecord {
	switch {
	case len(s.Sources.Sheet) > 0 && len(s.Sources.Scrape) > 0:
		return RawRecord{Kind: SourceMerged, Fields: MergeFields(s.Sources.Sheet, s.Sources.Scrape)}
	case len(s.Sources.Sheet) > 0:
		return RawRecord{Kind: SourceSheet, Fields: MergeFields(nil, s.Sources.Sheet)}
	case len(s.Sources.Scrape) > 0:
		return RawRecord{Kind: SourceScrape, Fields: MergeFields(nil, s.Sources.Scrape)}
	default:
		return RawFromListing(&s.Listing)
	}
}

// Clone returns a copy that shares no mutable state with s. Source values
// are treated as immutable once stored, so only the maps are copied.
func (s *StoredListing) Clone() *StoredListing {
	c := *s
	c.Listing = *s.Listing.Clone()
	if s.Sources.Sheet != nil {
		c.Sources.Sheet = MergeFields(nil, s.Sources.Sheet)
	}
	if s.Sources.Scrape != nil {
		c.Sources.Scrape = MergeFields(nil, s.Sources.Scrape)
	}
	return &c
}

var (
	unsafeIDChars = regexp.MustCompile(`[^\w\-]`)
	dashRuns      = regexp.MustCompile(`--+`)
)

const maxIDLength = 1500

// UnitID derives a URL-safe, store-safe identifier from a unit's address.
func UnitID(address, unit, zip string) string {
	raw := strings.ToLower(address + "_" + unit + "_" + zip)
	raw = strings.ReplaceAll(raw, " ", "-")
	id := unsafeIDChars.ReplaceAllString(raw, "")
	id = strings.Trim(dashRuns.ReplaceAllString(id, "-"), "-")
	if len(strings.Trim(id, "_-")) < 3 {
		return "unit_" + uuid.NewString()
	}
	if len(id) > maxIDLength {
		id = id[:maxIDLength]
	}
	return id
}
