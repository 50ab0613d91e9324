package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Date is an export wrapper of the form {"$date": "<ISO string>"}.
type Date struct {
	Date string `json:"$date"`
}

// Time parses the wrapped value.
func (d Date) Time() (time.Time, error) {
	return parseTime(d.Date)
}

// optionalTime converts an optional wrapper; nil or empty means unset.
func optionalTime(d *Date) (*time.Time, error) {
	if d == nil || strings.TrimSpace(d.Date) == "" {
		return nil, nil
	}
	t, err := d.Time()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Long is an export wrapper of the form {"$numberLong": "<int64 string>"}.
type Long struct {
	NumberLong string `json:"$numberLong"`
}

// Int64 parses the wrapped value.
func (l Long) Int64() (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(l.NumberLong), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("$numberLong %q: %w", l.NumberLong, err)
	}
	return v, nil
}

// Section is an extraction wrapper {"value": T}. A nil *Section means the
// section is absent; a Section with a nil Value is present but empty.
type Section[T any] struct {
	Value *T `json:"value"`
}

// fields returns the wrapped value or the zero T when the wrapper is empty.
func (s *Section[T]) fields() T {
	var zero T
	if s == nil || s.Value == nil {
		return zero
	}
	return *s.Value
}

// Leaf is an extraction leaf {"value": <scalar>}. The scalar is kept raw so
// each consumer decides how to read it.
type Leaf struct {
	Value json.RawMessage `json:"value"`
}

// UnmarshalJSON reads the {"value": ...} wrapper. Anything other than an
// object carries no value and leaves the leaf unset.
func (l *Leaf) UnmarshalJSON(data []byte) error {
	l.Value = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	var w struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	l.Value = w.Value
	return nil
}

func (l *Leaf) raw() (json.RawMessage, bool) {
	if l == nil {
		return nil, false
	}
	v := bytes.TrimSpace(l.Value)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return nil, false
	}
	return v, true
}

// Text reads the leaf as text. Numbers are kept in their JSON form.
// Absent, null and empty values are unset.
func (l *Leaf) Text() (*string, error) {
	v, ok := l.raw()
	if !ok {
		return nil, nil
	}
	var s string
	switch v[0] {
	case '"':
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, err
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		s = string(v)
	default:
		return nil, fmt.Errorf("expected string value, got %s", kindOf(v))
	}
	if s == "" {
		return nil, nil
	}
	return &s, nil
}

// Decimal reads the leaf as a signed number. Numeric strings are accepted.
func (l *Leaf) Decimal() (decimal.NullDecimal, error) {
	v, ok := l.raw()
	if !ok {
		return decimal.NullDecimal{}, nil
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return decimal.NullDecimal{}, err
		}
		if strings.TrimSpace(s) == "" {
			return decimal.NullDecimal{}, nil
		}
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return decimal.NullDecimal{}, fmt.Errorf("expected numeric value: %w", err)
		}
		return decimal.NewNullDecimal(d), nil
	}
	if !isNumber(v) {
		return decimal.NullDecimal{}, fmt.Errorf("expected numeric value, got %s", kindOf(v))
	}
	d, err := decimal.NewFromString(string(v))
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// Int reads the leaf as a whole number, truncating any fraction.
func (l *Leaf) Int() (*int, error) {
	d, err := l.Decimal()
	if err != nil || !d.Valid {
		return nil, err
	}
	n := int(d.Decimal.IntPart())
	return &n, nil
}

// Time reads the leaf as a date or timestamp string.
func (l *Leaf) Time() (*time.Time, error) {
	s, err := l.Text()
	if err != nil || s == nil {
		return nil, err
	}
	t, err := parseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}

func isNumber(v json.RawMessage) bool {
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	return dec.Decode(&n) == nil
}

func kindOf(v json.RawMessage) string {
	switch v[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case '"':
		return "string"
	default:
		return "number"
	}
}
