package normalize

import (
	"errors"
	"fmt"
)

// ErrUnparseable marks a record too malformed to yield any listing.
var ErrUnparseable = errors.New("unparseable record")

// WarningKind classifies a field-local problem.
type WarningKind string

const (
	// WarnCoercion: a present value could not be cast or broke an invariant.
	WarnCoercion WarningKind = "coercion"
	// WarnExtraction: text matched a pattern but the value was invalid.
	WarnExtraction WarningKind = "extraction"
	// WarnAmbiguous: a token carried conflicting signals.
	WarnAmbiguous WarningKind = "ambiguous"
)

// Warning is a field-local problem. It never invalidates the rest of the
// record.
type Warning struct {
	Field  string      `json:"field"`
	Kind   WarningKind `json:"kind"`
	Value  string      `json:"value,omitempty"`
	Reason string      `json:"reason"`
}

func (w Warning) String() string {
	if w.Value == "" {
		return fmt.Sprintf("%s: %s (%s)", w.Field, w.Reason, w.Kind)
	}
	return fmt.Sprintf("%s=%q: %s (%s)", w.Field, w.Value, w.Reason, w.Kind)
}

// CoercionError reports a value that cannot take its canonical type.
type CoercionError struct {
	Field  string
	Value  any
	Reason string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("%s: cannot use %v: %s", e.Field, e.Value, e.Reason)
}

func (e *CoercionError) warning() Warning {
	return Warning{Field: e.Field, Kind: WarnCoercion, Value: fmt.Sprint(e.Value), Reason: e.Reason}
}

// warningFor turns a coercion error into a warning; other errors are kept
// as their message.
func warningFor(field string, err error) Warning {
	var ce *CoercionError
	if errors.As(err, &ce) {
		return ce.warning()
	}
	return Warning{Field: field, Kind: WarnCoercion, Reason: err.Error()}
}
