package normalize

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-normalizer/models"
)

func sheet(fields map[string]string) models.RawRecord {
	return models.NewSheetRecord(fields)
}

func TestNormalizeFromDescription(t *testing.T) {
	n := New(nil)

	res, err := n.Normalize(sheet(map[string]string{
		"Title":            "Spacious 2BR/1.5BA, 950 sq ft, rent $1,850/mo, HACLA accepted",
		"Property Address": "123 Main St",
		"Zip Code":         "90012",
	}))
	require.NoError(t, err)

	l := res.Listing
	assert.Equal(t, "123 Main St", l.Address)
	assert.Equal(t, 2, l.Bedrooms)
	assert.Equal(t, 1.5, l.Bathrooms)
	require.NotNil(t, l.SquareFeet)
	assert.Equal(t, 950, *l.SquareFeet)
	assert.Equal(t, 1850, l.Rent)
	assert.Equal(t, models.Subsidy{HACLA: true}, l.Subsidy)
	require.NotNil(t, l.ZipCode)
	assert.Equal(t, "90012", l.ZipString())
	assert.Empty(t, res.Warnings)
}

func TestNormalizeStudio(t *testing.T) {
	res, err := New(nil).Normalize(sheet(map[string]string{"Description": "Studio, 400sf"}))
	require.NoError(t, err)

	assert.Equal(t, 0, res.Listing.Bedrooms)
	require.NotNil(t, res.Listing.SquareFeet)
	assert.Equal(t, 400, *res.Listing.SquareFeet)
}

func TestNormalizeBadZipIsFieldLocal(t *testing.T) {
	res, err := New(nil).Normalize(sheet(map[string]string{
		"zip":  "9021",
		"rent": "$1,500",
	}))
	require.NoError(t, err)

	assert.Nil(t, res.Listing.ZipCode)
	assert.Equal(t, 1500, res.Listing.Rent)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, FieldZipCode, res.Warnings[0].Field)
	assert.Equal(t, WarnCoercion, res.Warnings[0].Kind)
}

func TestNormalizeZipPlus4(t *testing.T) {
	res, err := New(nil).Normalize(sheet(map[string]string{"Postal Code": "90026-4410"}))
	require.NoError(t, err)
	assert.Equal(t, "90026", res.Listing.ZipString())
}

func TestNormalizeDropsUnknownAmenity(t *testing.T) {
	res, err := New(nil).Normalize(sheet(map[string]string{"Amenities": "Pool, Rooftop Deck"}))
	require.NoError(t, err)

	assert.True(t, res.Listing.Amenities[models.Community]["pool"])
	assert.Equal(t, []string{"Rooftop Deck"}, res.Dropped)
	for _, flags := range res.Listing.Amenities {
		assert.NotContains(t, flags, "rooftop_deck")
	}
}

func TestNormalizeShapeIsComplete(t *testing.T) {
	res, err := New(nil).Normalize(sheet(map[string]string{"Area": " Echo Park "}))
	require.NoError(t, err)

	l := res.Listing
	assert.Equal(t, "Echo Park", l.Area)
	assert.Len(t, l.Utilities, len(models.AllUtilities))
	for _, u := range models.AllUtilities {
		assert.Equal(t, models.PayerUnknown, l.Utilities[u])
	}
	assert.Len(t, l.Amenities, len(models.AllCategories))
	assert.NotNil(t, l.Photos)
	assert.Nil(t, l.ZipCode)
	assert.Nil(t, l.SquareFeet)
	assert.Zero(t, l.Bedrooms)
	assert.Zero(t, l.Rent)
	assert.Zero(t, l.Parking)
}

func TestNormalizeStructuredBeatsText(t *testing.T) {
	res, err := New(nil).Normalize(sheet(map[string]string{
		"Bedrooms":    "1",
		"Description": "Huge 2BR, rent $2,400",
		"Rent":        "$2,100",
	}))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Listing.Bedrooms)
	assert.Equal(t, 2100, res.Listing.Rent)
}

func TestNormalizeInvalidStructuredFallsBackToText(t *testing.T) {
	res, err := New(nil).Normalize(sheet(map[string]string{
		"Beds":        "two",
		"Description": "3 bed house",
	}))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Listing.Bedrooms)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, FieldBedrooms, res.Warnings[0].Field)
}

func TestNormalizeLooseNumericColumns(t *testing.T) {
	res, err := New(nil).Normalize(sheet(map[string]string{
		"Bedrooms":    "2 BR",
		"Bathrooms":   "1.5 baths",
		"Square Feet": "850 sq ft",
		"Parking":     "No parking",
	}))
	require.NoError(t, err)

	l := res.Listing
	assert.Equal(t, 2, l.Bedrooms)
	assert.Equal(t, 1.5, l.Bathrooms)
	require.NotNil(t, l.SquareFeet)
	assert.Equal(t, 850, *l.SquareFeet)
	assert.Equal(t, 0, l.Parking)
	assert.Empty(t, res.Warnings)
}

func TestNormalizeParking(t *testing.T) {
	tests := map[string]int{
		"2":          2,
		"1 space":    1,
		"none":       0,
		"N/A":        0,
		"no parking": 0,
	}
	for in, want := range tests {
		res, err := New(nil).Normalize(sheet(map[string]string{"parking": in}))
		require.NoError(t, err, in)
		assert.Equal(t, want, res.Listing.Parking, in)
	}
}

func TestNormalizeRejectsNegativeAndFractional(t *testing.T) {
	res, err := New(nil).Normalize(sheet(map[string]string{
		"Bedrooms":  "-2",
		"Bathrooms": "1.3",
		"Rent":      "1850",
	}))
	require.NoError(t, err)

	assert.Equal(t, 0, res.Listing.Bedrooms)
	assert.Equal(t, 0.0, res.Listing.Bathrooms)
	assert.Equal(t, 1850, res.Listing.Rent)
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, FieldBedrooms, res.Warnings[0].Field)
	assert.Equal(t, FieldBathrooms, res.Warnings[1].Field)
}

func TestNormalizeRentDropsCents(t *testing.T) {
	for _, in := range []string{"1850.75", "$1,850.75", "rent $1,850.75/mo"} {
		res, err := New(nil).Normalize(sheet(map[string]string{"Rent": in}))
		require.NoError(t, err, in)
		assert.Equal(t, 1850, res.Listing.Rent, in)
		assert.Empty(t, res.Warnings, in)
	}
}

func TestNormalizeOutOfRangeIsFieldLocal(t *testing.T) {
	res, err := New(nil).Normalize(sheet(map[string]string{
		"Description": "rent $3,000,000,000/mo, 3000000000 sq ft, 2BR",
		"Zip Code":    "90012",
	}))
	require.NoError(t, err)

	l := res.Listing
	assert.Equal(t, 0, l.Rent)
	assert.Nil(t, l.SquareFeet)
	assert.Equal(t, 2, l.Bedrooms)
	assert.Equal(t, "90012", l.ZipString())
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, FieldSquareFeet, res.Warnings[0].Field)
	assert.Equal(t, FieldRent, res.Warnings[1].Field)
}

func TestNormalizeSubsidyColumn(t *testing.T) {
	res, err := New(nil).Normalize(sheet(map[string]string{"Subsidy Accepted": "HACLA, Section 8"}))
	require.NoError(t, err)
	assert.Equal(t, models.Subsidy{HACLA: true, BC: true}, res.Listing.Subsidy)

	res, err = New(nil).Normalize(models.RawRecord{
		Kind:   models.SourceScrape,
		Fields: map[string]any{"subsidy": map[string]any{"hacla": "yes", "bc": false}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.Subsidy{HACLA: true}, res.Listing.Subsidy)
}

func TestNormalizeScrapePayload(t *testing.T) {
	res, err := New(nil).Normalize(models.RawRecord{
		Kind: models.SourceScrape,
		Fields: map[string]any{
			"url":          "https://example.com/unit/4",
			"availability": true,
			"bedrooms":     json.Number("2"),
			"bathrooms":    json.Number("1"),
			"square_feet":  json.Number("780"),
			"rent":         json.Number("2250"),
			"subsidy":      map[string]any{"hacla": false, "bc": true},
			"utilities":    map[string]any{"water": "owner", "electricity": "tenant"},
			"amenities":    map[string]any{"kitchen": map[string]any{"dishwasher": true}},
			"photos":       []any{"https://img/b.jpg", "https://img/a.jpg", "https://img/b.jpg"},
		},
	})
	require.NoError(t, err)

	l := res.Listing
	assert.Equal(t, "https://example.com/unit/4", l.ListingURL)
	assert.True(t, l.Available)
	assert.Equal(t, 2, l.Bedrooms)
	assert.Equal(t, 1.0, l.Bathrooms)
	require.NotNil(t, l.SquareFeet)
	assert.Equal(t, 780, *l.SquareFeet)
	assert.Equal(t, 2250, l.Rent)
	assert.Equal(t, models.Subsidy{BC: true}, l.Subsidy)
	assert.Equal(t, models.PayerOwner, l.Utilities[models.Water])
	assert.Equal(t, models.PayerTenant, l.Utilities[models.Electricity])
	assert.Equal(t, models.PayerUnknown, l.Utilities[models.Gas])
	assert.True(t, l.Amenities[models.Kitchen]["dishwasher"])
	assert.Equal(t, []string{"https://img/a.jpg", "https://img/b.jpg"}, l.Photos)
	assert.Empty(t, res.Warnings)
}

func TestNormalizeUnparseable(t *testing.T) {
	n := New(nil)

	cases := []models.RawRecord{
		{Kind: models.SourceSheet},
		{Kind: models.SourceSheet, Fields: map[string]any{"rent": "  ", "zip": nil}},
		{Kind: "fax", Fields: map[string]any{"rent": "1200"}},
	}
	for _, raw := range cases {
		res, err := n.Normalize(raw)
		assert.Nil(t, res)
		assert.True(t, errors.Is(err, ErrUnparseable), "%+v", raw)
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	n := New(nil)
	raw := sheet(map[string]string{
		"Title":     "2BR, $1,950/mo, Section 8 OK",
		"Utilities": "water included; tenant: electric, gas",
		"Amenities": "Gym, Helipad, Pool, Sky Bridge",
		"zip":       "1234",
		"Zip Code":  "90012",
	})

	first, err := n.Normalize(raw)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := n.Normalize(raw)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := New(nil)
	inputs := []models.RawRecord{
		sheet(map[string]string{
			"Title":            "Spacious 2BR/1.5BA, 950 sq ft, rent $1,850/mo, HACLA accepted",
			"Property Address": "12 Elm St",
			"Unit":             "4B",
			"Zip Code":         "02134",
			"Amenities":        "Pool, walk-in closet, dishwasher",
			"Utilities":        "owner: water, trash",
			"Parking":          "1",
			"Available":        "yes",
		}),
		sheet(map[string]string{"Description": "Studio, 400sf"}),
		sheet(map[string]string{"Description": "rent $3,000,000,000/mo, 3000000000 sq ft"}),
		sheet(map[string]string{"Description": "Loft, 2,147,483,647 sq ft, rent $2,147,483,647/mo"}),
		sheet(map[string]string{"Rent": "$1,850.75", "Square Feet": "2147483647"}),
		{Kind: models.SourceScrape, Fields: map[string]any{
			"bathrooms": json.Number("2"),
			"photos":    []any{"https://img/1.jpg"},
			"subsidy":   map[string]any{"bc": true},
		}},
	}

	for _, raw := range inputs {
		first, err := n.Normalize(raw)
		require.NoError(t, err)

		second, err := n.Normalize(models.RawFromListing(&first.Listing))
		require.NoError(t, err)

		assert.True(t, first.Listing.Equal(&second.Listing), "not idempotent:\n%+v\n%+v", first.Listing, second.Listing)
		assert.Empty(t, second.Warnings)
		assert.Empty(t, second.Dropped)
	}
}
