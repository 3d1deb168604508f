package normalize

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{"1,850", 1850},
		{"$2,000", 2000},
		{" 12 ", 12},
		{3, 3},
		{int64(7), 7},
		{4.0, 4},
		{json.Number("950"), 950},
	}

	for _, tt := range tests {
		got, err := CoerceInt("rent", tt.in)
		if err != nil {
			t.Errorf("CoerceInt(%v) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("CoerceInt(%v) = %d; want %d", tt.in, got, tt.want)
		}
	}
}

func TestCoerceIntRejects(t *testing.T) {
	for _, in := range []any{"abc", -1, "-5", 2.5, math.NaN(), true, float64(math.MaxInt32) + 1} {
		_, err := CoerceInt("rent", in)
		var ce *CoercionError
		if assert.Error(t, err, "%v", in) {
			assert.True(t, errors.As(err, &ce), "%v", in)
			assert.Equal(t, "rent", ce.Field)
		}
	}
}

func TestCoerceFloat(t *testing.T) {
	f, err := CoerceFloat("bathrooms", json.Number("1.5"))
	require.NoError(t, err)
	assert.Equal(t, 1.5, f)

	f, err = CoerceFloat("bathrooms", "2")
	require.NoError(t, err)
	assert.Equal(t, 2.0, f)

	_, err = CoerceFloat("bathrooms", math.Inf(1))
	assert.Error(t, err)
}

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{true, true},
		{"Yes", true},
		{"TRUE", true},
		{"1", true},
		{"no", false},
		{"False", false},
		{0, false},
		{1, true},
		{json.Number("1"), true},
	}

	for _, tt := range tests {
		got, err := CoerceBool("available", tt.in)
		if err != nil {
			t.Errorf("CoerceBool(%v) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("CoerceBool(%v) = %v; want %v", tt.in, got, tt.want)
		}
	}

	for _, in := range []any{"maybe", 2, []string{"yes"}} {
		_, err := CoerceBool("available", in)
		assert.Error(t, err, "%v", in)
	}
}

func TestCoerceZip(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{"90210", 90210},
		{" 90012 ", 90012},
		{"90210-1234", 90210},
		{"02134", 2134},
		{2134, 2134},
		{90012.0, 90012},
		{json.Number("91101"), 91101},
	}

	for _, tt := range tests {
		got, err := CoerceZip(tt.in)
		if err != nil {
			t.Errorf("CoerceZip(%v) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("CoerceZip(%v) = %d; want %d", tt.in, got, tt.want)
		}
	}

	for _, in := range []any{"9021", "902101", "abcde", 0, 100000, 9021.5, true} {
		_, err := CoerceZip(in)
		assert.Error(t, err, "%v", in)
	}
}

func TestCoerceString(t *testing.T) {
	assert.Equal(t, "Echo Park", CoerceString("  Echo Park "))
	assert.Equal(t, "12", CoerceString(12))
	assert.Equal(t, "1.5", CoerceString(1.5))
	assert.Equal(t, "3", CoerceString(json.Number("3")))
	assert.Equal(t, "true", CoerceString(true))
	assert.Equal(t, "", CoerceString(nil))
}

func TestCoercionErrorWarning(t *testing.T) {
	_, err := CoerceZip("9021")
	w := warningFor(FieldZipCode, err)

	assert.Equal(t, FieldZipCode, w.Field)
	assert.Equal(t, WarnCoercion, w.Kind)
	assert.Equal(t, "9021", w.Value)
	assert.Contains(t, w.String(), "zip_code")
}
