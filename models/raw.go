package models

import (
	"sort"
	"strings"
)

// SourceKind tags where a raw record came from.
type SourceKind string

const (
	SourceSheet  SourceKind = "sheet"
	SourceScrape SourceKind = "scrape"
	SourceMerged SourceKind = "merged"
	SourceLegacy SourceKind = "legacy"
)

// IsValid reports whether k is a known source kind.
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceSheet, SourceScrape, SourceMerged, SourceLegacy:
		return true
	}
	return false
}

// RawRecord is a loosely-typed listing as received from an ingestion path
// or read back from storage. Values may be strings, bools, numbers,
// json.Number, nested maps or slices.
type RawRecord struct {
	Kind   SourceKind
	Fields map[string]any
}

// NewSheetRecord wraps a spreadsheet row.
func NewSheetRecord(row map[string]string) RawRecord {
	fields := make(map[string]any, len(row))
	for k, v := range row {
		fields[k] = v
	}
	return RawRecord{Kind: SourceSheet, Fields: fields}
}

// MergeFields overlays src onto a copy of dst. Keys match regardless of
// case and spacing, so "Bedrooms" in src replaces "bedrooms" in dst. Keys
// holding nil in src are ignored so a partial payload never erases earlier
// data. Keys of src that fold together are applied in sorted order, so the
// last one in that order wins.
func MergeFields(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := src[k]
		if v == nil {
			continue
		}
		fk := foldKey(k)
		for existing := range out {
			if existing != k && foldKey(existing) == fk {
				delete(out, existing)
			}
		}
		out[k] = v
	}
	return out
}

func foldKey(k string) string {
	return strings.Join(strings.Fields(strings.ToLower(k)), "_")
}

// RawFromListing renders a canonical listing back into raw form. Feeding
// the result to the normalizer yields the same listing.
func RawFromListing(l *Listing) RawRecord {
	fields := map[string]any{
		"property_address": l.Address,
		"unit":             l.Unit,
		"listing_link":     l.ListingURL,
		"bedrooms":         l.Bedrooms,
		"bathrooms":        l.Bathrooms,
		"area":             l.Area,
		"rent":             l.Rent,
		"parking":          l.Parking,
		"available":        l.Available,
		"favorite":         l.Favorite,
		"subsidy": map[string]any{
			"hacla": l.Subsidy.HACLA,
			"bc":    l.Subsidy.BC,
		},
	}
	if l.ZipCode != nil {
		fields["zip_code"] = l.ZipString()
	}
	if l.SquareFeet != nil {
		fields["square_feet"] = *l.SquareFeet
	}

	utilities := make(map[string]any, len(l.Utilities))
	for k, v := range l.Utilities {
		utilities[string(k)] = string(v)
	}
	fields["utilities"] = utilities

	amenities := make(map[string]any, len(l.Amenities))
	for cat, flags := range l.Amenities {
		m := make(map[string]any, len(flags))
		for name, on := range flags {
			m[name] = on
		}
		amenities[string(cat)] = m
	}
	fields["amenities"] = amenities

	photos := make([]any, 0, len(l.Photos))
	for _, p := range l.Photos {
		photos = append(photos, p)
	}
	fields["photos"] = photos

	return RawRecord{Kind: SourceLegacy, Fields: fields}
}

// SortedKeys returns the field names of r in lexical order.
func (r RawRecord) SortedKeys() []string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
