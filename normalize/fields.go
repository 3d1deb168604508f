package normalize

import (
	"math"
	"regexp"
	"strings"
)

// Canonical field names.
const (
	FieldAddress    = "property_address"
	FieldUnit       = "unit"
	FieldListingURL = "listing_link"
	FieldZipCode    = "zip_code"
	FieldBedrooms   = "bedrooms"
	FieldBathrooms  = "bathrooms"
	FieldSquareFeet = "square_feet"
	FieldArea       = "area"
	FieldRent       = "rent"
	FieldParking    = "parking"
	FieldAvailable  = "available"
	FieldFavorite   = "favorite"
	FieldSubsidy    = "subsidy"
	FieldUtilities  = "utilities"
	FieldAmenities  = "amenities"
	FieldPhotos     = "photos"
)

// fieldAliases lists, per canonical field, the raw column names it may
// arrive under, in priority order.
var fieldAliases = map[string][]string{
	FieldAddress:    {"property_address", "address", "street_address"},
	FieldUnit:       {"unit", "unit_number", "apt"},
	FieldListingURL: {"listing_link", "listing_url", "url", "link"},
	FieldZipCode:    {"zip_code", "zipcode", "postal_code", "zip"},
	FieldBedrooms:   {"bedrooms", "beds", "bedroom", "br"},
	FieldBathrooms:  {"bathrooms", "baths", "bathroom", "ba"},
	FieldSquareFeet: {"square_feet", "sqft", "sq_ft", "size"},
	FieldArea:       {"area", "neighborhood", "location"},
	FieldRent:       {"rent", "monthly_rent", "price", "cost"},
	FieldParking:    {"parking", "parking_spots"},
	FieldAvailable:  {"available", "availability"},
	FieldFavorite:   {"favorite"},
	FieldSubsidy:    {"subsidy", "subsidies", "subsidy_accepted"},
	FieldUtilities:  {"utilities", "utility"},
	FieldAmenities:  {"amenities", "amenity"},
	FieldPhotos:     {"photos", "images"},
}

// textFields hold unstructured listing prose, joined in this order.
var textFields = []string{"title", "description", "details", "text"}

var (
	noParking     = regexp.MustCompile(`(?i)\b(?:no\s+parking|none|n/a|not\s+available)\b`)
	leadingNumber = regexp.MustCompile(`^\s*\$?\s*(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)`)
)

// canonicalKey lowercases a column name and joins words with underscores:
// "Zip Code" -> "zip_code".
func canonicalKey(k string) string {
	return strings.Join(strings.Fields(strings.ToLower(k)), "_")
}

// intField coerces an integer field, falling back to the field's text
// extractor and then to a leading number for loose strings like "2 BR".
func intField(field string, v any, extract func(string) (int, bool, error)) (int, error) {
	n, err := CoerceInt(field, v)
	if err == nil {
		return n, nil
	}
	s, ok := v.(string)
	if !ok || strings.HasPrefix(strings.TrimSpace(s), "-") {
		return 0, err
	}
	if extract != nil {
		if n, found, xerr := extract(s); xerr != nil {
			return 0, &CoercionError{Field: field, Value: v, Reason: xerr.Error()}
		} else if found {
			return n, nil
		}
	}
	if m := leadingNumber.FindStringSubmatch(s); m != nil {
		if n, lerr := CoerceInt(field, m[1]); lerr == nil {
			return n, nil
		}
	}
	return 0, err
}

func coerceBedrooms(v any) (int, error) {
	return intField(FieldBedrooms, v, ExtractBedrooms)
}

func coerceSquareFeet(v any) (int, error) {
	return intField(FieldSquareFeet, v, ExtractSquareFeet)
}

// coerceRent keeps whole dollars; cents are dropped the same way text
// extraction drops them.
func coerceRent(v any) (int, error) {
	f, err := CoerceFloat(FieldRent, v)
	if err != nil {
		return intField(FieldRent, v, ExtractRent)
	}
	if f > maxValue {
		return 0, &CoercionError{Field: FieldRent, Value: v, Reason: "out of range"}
	}
	return int(math.Trunc(f)), nil
}

func coerceParking(v any) (int, error) {
	if s, ok := v.(string); ok && noParking.MatchString(s) {
		return 0, nil
	}
	return intField(FieldParking, v, nil)
}

// coerceBathrooms accepts whole and half counts only.
func coerceBathrooms(v any) (float64, error) {
	f, err := CoerceFloat(FieldBathrooms, v)
	if err != nil {
		s, ok := v.(string)
		if !ok {
			return 0, err
		}
		x, found, xerr := ExtractBathrooms(s)
		if xerr != nil {
			return 0, &CoercionError{Field: FieldBathrooms, Value: v, Reason: xerr.Error()}
		}
		if !found {
			return 0, err
		}
		f = x
	}
	if !isHalfStep(f) {
		return 0, &CoercionError{Field: FieldBathrooms, Value: v, Reason: "must be a whole or half count"}
	}
	return f, nil
}
