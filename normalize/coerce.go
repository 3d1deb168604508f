package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	numericNoise = regexp.MustCompile(`[\s$,]`)
	nonDigits    = regexp.MustCompile(`\D`)
	zipPlus4     = regexp.MustCompile(`^(\d{5})-\d{4}$`)
)

// maxValue bounds every integer field, whether coerced or extracted, so a
// stored value always survives re-normalization.
const maxValue = math.MaxInt32

var boolWords = map[string]bool{
	"true": true, "yes": true, "1": true,
	"false": false, "no": false, "0": false,
}

// isAbsent reports whether a raw value carries no data at all.
func isAbsent(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

// toFloat converts native and JSON numbers. Strings are not numbers here.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

// CoerceFloat returns v as a non-negative float. Strings may carry a
// currency symbol, digit-group separators and surrounding whitespace.
func CoerceFloat(field string, v any) (float64, error) {
	f, ok := toFloat(v)
	if !ok {
		s, isString := v.(string)
		if !isString {
			return 0, &CoercionError{Field: field, Value: v, Reason: "not a number"}
		}
		parsed, err := strconv.ParseFloat(numericNoise.ReplaceAllString(s, ""), 64)
		if err != nil {
			return 0, &CoercionError{Field: field, Value: v, Reason: "not a number"}
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &CoercionError{Field: field, Value: v, Reason: "not a finite number"}
	}
	if f < 0 {
		return 0, &CoercionError{Field: field, Value: v, Reason: "must not be negative"}
	}
	return f, nil
}

// CoerceInt returns v as a non-negative integer. Fractional values fail
// rather than being rounded.
func CoerceInt(field string, v any) (int, error) {
	f, err := CoerceFloat(field, v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, &CoercionError{Field: field, Value: v, Reason: "must be a whole number"}
	}
	if f > maxValue {
		return 0, &CoercionError{Field: field, Value: v, Reason: "out of range"}
	}
	return int(f), nil
}

// CoerceBool accepts native bools, 0/1 numbers and the strings
// true/false, yes/no, 1/0 in any case.
func CoerceBool(field string, v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		if b, ok := boolWords[strings.ToLower(strings.TrimSpace(x))]; ok {
			return b, nil
		}
		return false, &CoercionError{Field: field, Value: v, Reason: "not a recognised boolean"}
	}
	if f, ok := toFloat(v); ok && (f == 0 || f == 1) {
		return f == 1, nil
	}
	return false, &CoercionError{Field: field, Value: v, Reason: "not a recognised boolean"}
}

// CoerceZip returns a 5-digit zip code. A ZIP+4 string keeps its base;
// otherwise exactly five digits must remain once non-digits are removed.
// Numbers lose leading zeros in spreadsheets, so 1..99999 is accepted and
// read as zero-padded.
func CoerceZip(v any) (int, error) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if m := zipPlus4.FindStringSubmatch(s); m != nil {
			s = m[1]
		}
		digits := nonDigits.ReplaceAllString(s, "")
		if len(digits) != 5 {
			return 0, &CoercionError{Field: FieldZipCode, Value: v, Reason: "must have exactly 5 digits"}
		}
		n, _ := strconv.Atoi(digits)
		return n, nil
	}
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || f < 1 || f > 99999 {
		return 0, &CoercionError{Field: FieldZipCode, Value: v, Reason: "must have exactly 5 digits"}
	}
	return int(f), nil
}

// CoerceString renders v as trimmed text. Numbers are formatted, never
// reinterpreted.
func CoerceString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	}
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}
