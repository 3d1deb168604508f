package models

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitID(t *testing.T) {
	tests := []struct {
		name               string
		address, unit, zip string
		want               string
	}{
		{"plain", "123 Main St", "4", "90012", "123-main-st_4_90012"},
		{"no unit", "500 Oak Ave", "", "90026", "500-oak-ave__90026"},
		{"unsafe characters dropped", "12 Elm St.", "Apt #4", "02134", "12-elm-st_apt-4_02134"},
		{"dash runs collapsed", "12  Elm -- St", "4", "02134", "12-elm-st_4_02134"},
		{"edge dashes trimmed", " 9 Pine Rd", "", "", "9-pine-rd__"},
		{"non-ascii letters dropped", "1 Café Ln", "", "90001", "1-caf-ln__90001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnitID(tt.address, tt.unit, tt.zip))
		})
	}
}

func TestUnitIDIsStable(t *testing.T) {
	assert.Equal(t, UnitID("123 Main St", "4", "90012"), UnitID("123 MAIN ST", "4", "90012"))
}

func TestUnitIDFallsBackToRandomID(t *testing.T) {
	for _, in := range [][3]string{{"", "", ""}, {"#", "", ""}, {"a", "", ""}, {"--", "", ""}} {
		id := UnitID(in[0], in[1], in[2])
		require.True(t, strings.HasPrefix(id, "unit_"), "%q -> %q", in, id)
		_, err := uuid.Parse(strings.TrimPrefix(id, "unit_"))
		assert.NoError(t, err, id)
	}
	assert.NotEqual(t, UnitID("", "", ""), UnitID("", "", ""))
}

func TestUnitIDIsCapped(t *testing.T) {
	id := UnitID(strings.Repeat("a", 2000), "1", "90012")
	assert.Len(t, id, 1500)
	assert.Equal(t, strings.Repeat("a", 1500), id)
}

func TestStoredListingRaw(t *testing.T) {
	sheet := map[string]any{"Rent": "$1,850", "Bedrooms": "2"}
	scrape := map[string]any{"rent": nil, "bedrooms": "3", "url": "https://x/1"}

	tests := []struct {
		name    string
		sources Sources
		kind    SourceKind
		want    map[string]any
	}{
		{
			name:    "scrape overlays sheet",
			sources: Sources{Sheet: sheet, Scrape: scrape},
			kind:    SourceMerged,
			want:    map[string]any{"Rent": "$1,850", "bedrooms": "3", "url": "https://x/1"},
		},
		{
			name:    "sheet only",
			sources: Sources{Sheet: sheet},
			kind:    SourceSheet,
			want:    sheet,
		},
		{
			name:    "scrape only",
			sources: Sources{Scrape: scrape},
			kind:    SourceScrape,
			want:    map[string]any{"bedrooms": "3", "url": "https://x/1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &StoredListing{ID: "x", Sources: tt.sources}
			raw := s.Raw()
			assert.Equal(t, tt.kind, raw.Kind)
			assert.Equal(t, tt.want, raw.Fields)
		})
	}
}

func TestStoredListingRawWithoutSources(t *testing.T) {
	s := &StoredListing{ID: "x", Listing: Listing{Address: "1 A St", Rent: 900}}
	raw := s.Raw()

	assert.Equal(t, SourceLegacy, raw.Kind)
	assert.Equal(t, "1 A St", raw.Fields["property_address"])
	assert.Equal(t, 900, raw.Fields["rent"])
}

func TestStoredListingClone(t *testing.T) {
	zip := 90012
	orig := &StoredListing{
		ID: "x",
		Listing: Listing{
			ZipCode:   &zip,
			Utilities: NewUtilities(),
			Amenities: Amenities{Kitchen: {"oven": true}},
			Photos:    []string{"a"},
		},
		Sources: Sources{Sheet: map[string]any{"Rent": "1"}},
	}

	c := orig.Clone()
	*c.Listing.ZipCode = 1
	c.Listing.Utilities[Water] = PayerOwner
	c.Listing.Amenities[Kitchen]["oven"] = false
	c.Listing.Photos[0] = "b"
	c.Sources.Sheet["Rent"] = "2"

	assert.Equal(t, 90012, *orig.Listing.ZipCode)
	assert.Equal(t, PayerUnknown, orig.Listing.Utilities[Water])
	assert.True(t, orig.Listing.Amenities[Kitchen]["oven"])
	assert.Equal(t, []string{"a"}, orig.Listing.Photos)
	assert.Equal(t, "1", orig.Sources.Sheet["Rent"])
	assert.Nil(t, c.Sources.Scrape)
}
