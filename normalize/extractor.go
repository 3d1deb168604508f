package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"rental-normalizer/models"
)

// matcher is one phrasing of a field. Group 1 of re captures the value.
type matcher struct {
	name string
	re   *regexp.Regexp
}

const number = `(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)`

var squareFeetMatchers = []matcher{
	{"value-unit", regexp.MustCompile(`(?i)` + number + `\s*(?:sq\.?\s*ft\.?|sqft|sq\.?\s*feet|square\s*f(?:ee|oo)t|sf)\b`)},
	{"unit-value", regexp.MustCompile(`(?i)\b(?:sq\.?\s*ft\.?|sqft|square\s*feet|size)\s*[:=]?\s*` + number)},
}

var bedroomMatchers = []matcher{
	{"value-unit", regexp.MustCompile(`(?i)` + number + `\s*(?:br|bd|bds|beds?|bedrooms?)\b`)},
	{"unit-value", regexp.MustCompile(`(?i)\b(?:bedrooms?|beds?)\s*[:=]\s*` + number)},
}

// studioWord is only consulted when no bedroom count is present, so place
// names like "Studio City 2BR" keep their count.
var studioWord = regexp.MustCompile(`(?i)\bstudio\b`)

var bathroomMatchers = []matcher{
	{"value-unit", regexp.MustCompile(`(?i)` + number + `\s*(?:ba|baths?|bathrooms?)\b`)},
	{"unit-value", regexp.MustCompile(`(?i)\b(?:bathrooms?|baths?)\s*[:=]\s*` + number)},
}

var (
	// dollarAmount matches "$1,850", "$ 1850" and "$1,850.00". Cents are
	// matched so they are not mistaken for another amount, then dropped.
	dollarAmount = regexp.MustCompile(`\$\s*(\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{1,2})?`)
	// rentBefore and rentAfter decide whether an amount sits next to a rent keyword.
	rentBefore = regexp.MustCompile(`(?i)\brent(?:al)?\b[^$\d]{0,12}$`)
	rentAfter  = regexp.MustCompile(`(?i)^\s*(?:/\s*mo(?:nth)?\b|per\s+month|a\s+month|monthly)`)
)

var (
	haclaMatchers = []matcher{
		{"acronym", regexp.MustCompile(`(?i)\b(hacla)\b`)},
		{"housing-authority", regexp.MustCompile(`(?i)\b(housing\s+authority)\b`)},
	}
	bcMatchers = []matcher{
		{"housing-choice", regexp.MustCompile(`(?i)\b(housing\s+choice)\b`)},
		{"section-8", regexp.MustCompile(`(?i)\b(section\s*8)\b`)},
		{"voucher", regexp.MustCompile(`(?i)\b(vouchers?)\b`)},
		{"acronym", regexp.MustCompile(`(?i)\b(bc)\b`)},
	}
)

// Extraction is the partial, typed result of scanning listing text. Nil
// fields were not found.
type Extraction struct {
	SquareFeet *int
	Bedrooms   *int
	Bathrooms  *float64
	Rent       *int
	Subsidy    models.Subsidy
	Warnings   []Warning
}

// Extract pulls numeric and subsidy signals out of free listing text. Each
// field is independent: a miss leaves it nil, an invalid match is recorded
// as a warning and also left nil.
func Extract(text string) Extraction {
	text = norm.NFKC.String(text)
	var ex Extraction

	if v, ok, err := ExtractSquareFeet(text); err != nil {
		ex.Warnings = append(ex.Warnings, extractionWarning(FieldSquareFeet, err))
	} else if ok {
		ex.SquareFeet = &v
	}
	if v, ok, err := ExtractBedrooms(text); err != nil {
		ex.Warnings = append(ex.Warnings, extractionWarning(FieldBedrooms, err))
	} else if ok {
		ex.Bedrooms = &v
	}
	if v, ok, err := ExtractBathrooms(text); err != nil {
		ex.Warnings = append(ex.Warnings, extractionWarning(FieldBathrooms, err))
	} else if ok {
		ex.Bathrooms = &v
	}
	if v, ok, err := ExtractRent(text); err != nil {
		ex.Warnings = append(ex.Warnings, extractionWarning(FieldRent, err))
	} else if ok {
		ex.Rent = &v
	}
	ex.Subsidy = ExtractSubsidy(text)
	return ex
}

// ExtractSquareFeet returns the unit size from the earliest size phrase.
func ExtractSquareFeet(text string) (int, bool, error) {
	m, ok := earliest(text, squareFeetMatchers)
	if !ok {
		return 0, false, nil
	}
	v, err := parseWhole(m)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// ExtractBedrooms returns the bedroom count. Without a count, "studio"
// means 0. Fractional counts are rejected rather than rounded.
func ExtractBedrooms(text string) (int, bool, error) {
	m, ok := earliest(text, bedroomMatchers)
	if !ok {
		if studioWord.MatchString(text) {
			return 0, true, nil
		}
		return 0, false, nil
	}
	v, err := parseWhole(m)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// ExtractBathrooms returns the bathroom count in half steps.
func ExtractBathrooms(text string) (float64, bool, error) {
	m, ok := earliest(text, bathroomMatchers)
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, false, fmt.Errorf("%q is not a number", m)
	}
	if !isHalfStep(v) {
		return 0, false, fmt.Errorf("%q is not a whole or half bathroom count", m)
	}
	return v, true, nil
}

// ExtractRent returns the monthly rent in whole dollars. The first dollar
// amount next to a rent keyword wins; without one the first dollar amount
// is used. Cents are dropped.
func ExtractRent(text string) (int, bool, error) {
	locs := dollarAmount.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return 0, false, nil
	}
	chosen := locs[0]
	for _, loc := range locs {
		if rentBefore.MatchString(text[:loc[0]]) || rentAfter.MatchString(text[loc[1]:]) {
			chosen = loc
			break
		}
	}
	whole := strings.ReplaceAll(text[chosen[2]:chosen[3]], ",", "")
	v, err := strconv.Atoi(whole)
	if err != nil || v > maxValue {
		return 0, false, fmt.Errorf("%q is out of range", whole)
	}
	return v, true, nil
}

// ExtractSubsidy detects subsidy program keywords. A missing keyword means
// the program is not accepted.
func ExtractSubsidy(text string) models.Subsidy {
	_, hacla := earliest(text, haclaMatchers)
	_, bc := earliest(text, bcMatchers)
	return models.Subsidy{HACLA: hacla, BC: bc}
}

// earliest runs every matcher and returns the capture of the match that
// starts first in text. Ties go to the matcher listed first.
func earliest(text string, matchers []matcher) (string, bool) {
	best, bestAt := "", -1
	for _, m := range matchers {
		loc := m.re.FindStringSubmatchIndex(text)
		if loc == nil || loc[2] < 0 {
			continue
		}
		if bestAt < 0 || loc[0] < bestAt {
			best, bestAt = text[loc[2]:loc[3]], loc[0]
		}
	}
	return best, bestAt >= 0
}

// parseWhole parses a non-negative integer that may carry thousands
// separators. Fractional values are an error.
func parseWhole(s string) (int, error) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	if f > maxValue {
		return 0, fmt.Errorf("%q is out of range", s)
	}
	return int(f), nil
}

func isHalfStep(v float64) bool {
	return v*2 == math.Trunc(v*2)
}

func extractionWarning(field string, err error) Warning {
	return Warning{Field: field, Kind: WarnExtraction, Reason: err.Error()}
}
