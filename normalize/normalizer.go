// Package normalize turns loosely-typed listing records into canonical
// models.Listing values.
package normalize

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"rental-normalizer/models"
)

// Result is the best-effort canonical listing plus everything that went
// wrong along the way.
type Result struct {
	Listing  models.Listing
	Warnings []Warning
	// Dropped holds amenity and utility tokens outside the taxonomy.
	Dropped []string
}

// Normalizer orchestrates extraction, expansion and coercion. It holds no
// per-record state and is safe for concurrent use.
type Normalizer struct {
	taxonomy *Taxonomy
	logger   *slog.Logger
}

// New returns a Normalizer over the embedded taxonomy. A nil logger
// discards output.
func New(logger *slog.Logger) *Normalizer {
	return NewWithTaxonomy(DefaultTaxonomy(), logger)
}

// NewWithTaxonomy returns a Normalizer over a custom taxonomy.
func NewWithTaxonomy(t *Taxonomy, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Normalizer{taxonomy: t, logger: logger}
}

// Normalize converts raw into a canonical listing. Field problems are
// reported as warnings; only a record with no usable structure returns an
// error, wrapping ErrUnparseable. The same input always yields the same
// result.
func (n *Normalizer) Normalize(raw models.RawRecord) (*Result, error) {
	if !raw.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown source kind %q", ErrUnparseable, raw.Kind)
	}
	fields := canonicalFields(raw)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s record has no values", ErrUnparseable, raw.Kind)
	}

	res := &Result{}
	l := &res.Listing
	warn := func(field string, err error) {
		res.Warnings = append(res.Warnings, warningFor(field, err))
	}
	lookup := func(field string) (any, bool) {
		for _, alias := range fieldAliases[field] {
			if v, ok := fields[alias]; ok {
				return v, true
			}
		}
		return nil, false
	}

	var ex Extraction
	if text := joinText(fields); text != "" {
		ex = Extract(text)
		res.Warnings = append(res.Warnings, ex.Warnings...)
	}

	if v, ok := lookup(FieldAddress); ok {
		l.Address = CoerceString(v)
	}
	if v, ok := lookup(FieldUnit); ok {
		l.Unit = CoerceString(v)
	}
	if v, ok := lookup(FieldListingURL); ok {
		l.ListingURL = CoerceString(v)
	}
	if v, ok := lookup(FieldArea); ok {
		l.Area = CoerceString(v)
	}

	if v, ok := lookup(FieldZipCode); ok {
		if zip, err := CoerceZip(v); err != nil {
			warn(FieldZipCode, err)
		} else {
			l.ZipCode = &zip
		}
	}

	l.Bedrooms = intOrFallback(lookup, FieldBedrooms, coerceBedrooms, ex.Bedrooms, warn)
	l.Rent = intOrFallback(lookup, FieldRent, coerceRent, ex.Rent, warn)
	l.Parking = intOrFallback(lookup, FieldParking, coerceParking, nil, warn)

	if v, ok := lookup(FieldSquareFeet); ok {
		if sqft, err := coerceSquareFeet(v); err != nil {
			warn(FieldSquareFeet, err)
			l.SquareFeet = copyInt(ex.SquareFeet)
		} else {
			l.SquareFeet = &sqft
		}
	} else {
		l.SquareFeet = copyInt(ex.SquareFeet)
	}

	if v, ok := lookup(FieldBathrooms); ok {
		if baths, err := coerceBathrooms(v); err != nil {
			warn(FieldBathrooms, err)
			if ex.Bathrooms != nil {
				l.Bathrooms = *ex.Bathrooms
			}
		} else {
			l.Bathrooms = baths
		}
	} else if ex.Bathrooms != nil {
		l.Bathrooms = *ex.Bathrooms
	}

	if v, ok := lookup(FieldAvailable); ok {
		if b, err := CoerceBool(FieldAvailable, v); err != nil {
			warn(FieldAvailable, err)
		} else {
			l.Available = b
		}
	}
	if v, ok := lookup(FieldFavorite); ok {
		if b, err := CoerceBool(FieldFavorite, v); err != nil {
			warn(FieldFavorite, err)
		} else {
			l.Favorite = b
		}
	}

	l.Subsidy = ex.Subsidy
	if v, ok := lookup(FieldSubsidy); ok {
		s, w := coerceSubsidy(v)
		res.Warnings = append(res.Warnings, w...)
		l.Subsidy = s
	}

	amenities, dropped, w := n.taxonomy.ExpandAmenities(valueOrNil(lookup, FieldAmenities))
	l.Amenities = amenities
	res.Dropped = append(res.Dropped, dropped...)
	res.Warnings = append(res.Warnings, w...)

	utilities, dropped, w := n.taxonomy.ExpandUtilities(valueOrNil(lookup, FieldUtilities))
	l.Utilities = utilities
	res.Dropped = append(res.Dropped, dropped...)
	res.Warnings = append(res.Warnings, w...)

	photos, w := coercePhotos(valueOrNil(lookup, FieldPhotos))
	l.Photos = photos
	res.Warnings = append(res.Warnings, w...)

	if len(res.Dropped) > 0 {
		n.logger.Debug("[normalize] skipped unrecognised tokens", "count", len(res.Dropped), "tokens", res.Dropped)
	}
	return res, nil
}

// canonicalFields maps canonical column names to present values. When two
// raw keys collide the one sorting first wins.
func canonicalFields(raw models.RawRecord) map[string]any {
	fields := make(map[string]any, len(raw.Fields))
	for _, k := range raw.SortedKeys() {
		v := raw.Fields[k]
		if isAbsent(v) {
			continue
		}
		ck := canonicalKey(k)
		if _, taken := fields[ck]; !taken {
			fields[ck] = v
		}
	}
	return fields
}

func joinText(fields map[string]any) string {
	var parts []string
	for _, k := range textFields {
		if s, ok := fields[k].(string); ok && strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// intOrFallback applies the structured value when it coerces, otherwise the
// text-derived value, otherwise zero.
func intOrFallback(
	lookup func(string) (any, bool),
	field string,
	coerce func(any) (int, error),
	fallback *int,
	warn func(string, error),
) int {
	if v, ok := lookup(field); ok {
		n, err := coerce(v)
		if err == nil {
			return n
		}
		warn(field, err)
	}
	if fallback != nil {
		return *fallback
	}
	return 0
}

func valueOrNil(lookup func(string) (any, bool), field string) any {
	v, _ := lookup(field)
	return v
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// coerceSubsidy reads a structured {hacla, bc} object or a keyword list
// such as "HACLA, BC".
func coerceSubsidy(v any) (models.Subsidy, []Warning) {
	var s models.Subsidy
	var warns []Warning
	switch x := v.(type) {
	case string:
		return ExtractSubsidy(x), nil
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, CoerceString(item))
		}
		return ExtractSubsidy(strings.Join(parts, ", ")), nil
	case []string:
		return ExtractSubsidy(strings.Join(x, ", ")), nil
	case models.Subsidy:
		return x, nil
	}
	m, ok := asStringMap(v)
	if !ok {
		return s, []Warning{{Field: FieldSubsidy, Kind: WarnCoercion, Value: fmt.Sprint(v), Reason: "unsupported subsidy shape"}}
	}
	for _, k := range sortedKeys(m) {
		var target *bool
		switch fold(strings.TrimSpace(k)) {
		case "hacla":
			target = &s.HACLA
		case "bc":
			target = &s.BC
		default:
			continue
		}
		if isAbsent(m[k]) {
			continue
		}
		b, err := CoerceBool(FieldSubsidy+"."+k, m[k])
		if err != nil {
			warns = append(warns, warningFor(FieldSubsidy, err))
			continue
		}
		*target = b
	}
	return s, warns
}

var photoSplit = regexp.MustCompile(`[,\s]+`)

// coercePhotos returns a deduplicated, sorted, never-nil URL list.
func coercePhotos(v any) ([]string, []Warning) {
	var raw []string
	var warns []Warning
	switch x := v.(type) {
	case nil:
	case string:
		raw = photoSplit.Split(x, -1)
	case []string:
		raw = x
	case []any:
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				warns = append(warns, Warning{Field: FieldPhotos, Kind: WarnCoercion, Value: fmt.Sprint(item), Reason: "photo URL is not text"})
				continue
			}
			raw = append(raw, s)
		}
	default:
		warns = append(warns, Warning{Field: FieldPhotos, Kind: WarnCoercion, Value: fmt.Sprintf("%T", v), Reason: "unsupported photos shape"})
	}

	seen := make(map[string]struct{}, len(raw))
	photos := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		photos = append(photos, p)
	}
	sort.Strings(photos)
	return photos, warns
}
