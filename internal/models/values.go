package models

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"
)

// Number is a quantity as sent by the resource service.
// The service sends numbers, numeric strings, or null; anything that does not
// parse is kept as NaN so aggregation can flag it instead of failing the decode.
type Number struct {
	Value float64
	Valid bool
}

// N returns a present Number.
func N(v float64) Number {
	return Number{Value: v, Valid: true}
}

// Present reports whether the field was sent at all.
func (n Number) Present() bool {
	return n.Valid
}

// Quantity returns the value to aggregate and whether it had to be coerced.
// Missing values aggregate as zero without being coerced; negative, NaN, and
// infinite values aggregate as zero and are reported as coerced.
func (n Number) Quantity() (float64, bool) {
	if !n.Valid {
		return 0, false
	}
	if math.IsNaN(n.Value) || math.IsInf(n.Value, 0) || n.Value < 0 {
		return 0, true
	}
	return n.Value, false
}

// UnmarshalJSON accepts a number, a numeric string, or null.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = Number{}
		return nil
	}
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	if s == "" {
		*n = Number{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		v = math.NaN()
	}
	*n = Number{Value: v, Valid: true}
	return nil
}

// MarshalJSON writes null for missing or non-finite values.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid || math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, n.Value, 'f', -1, 64), nil
}

// Timestamp is a date or date-time as sent by the resource service.
// Unparseable and empty values decode to the zero time; Raw keeps the
// unparseable text so it can be reported.
type Timestamp struct {
	time.Time
	Raw string
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// At wraps a time.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// ParseTimestamp parses the layouts the resource service is known to send.
func ParseTimestamp(s string) (Timestamp, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, true
		}
	}
	return Timestamp{}, false
}

// UnmarshalJSON accepts RFC 3339 timestamps, plain dates, or null.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*t = Timestamp{}
		return nil
	}
	parsed, ok := ParseTimestamp(s)
	if !ok {
		parsed.Raw = s
	}
	*t = parsed
	return nil
}

// Invalid reports whether a value was sent but could not be parsed.
func (t Timestamp) Invalid() bool {
	return t.Raw != ""
}

// MarshalJSON writes null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.UTC().Format(time.RFC3339))), nil
}
