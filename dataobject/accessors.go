package dataobject

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/n-r-w/zfcore/schema"
)

// ToDate returns property p's value as a time.Time, best-effort: a
// time.Time value is returned as is, and a string is parsed with the
// RFC 3339, "2006-01-02" and "2006-01-02 15:04:05" layouts. Any other
// value, including a number, or an unparseable string gives the zero
// time.
func (m *ModuleDataObject) ToDate(p schema.PropertyID) time.Time {
	v, err := m.container.Value(p, "")
	if err != nil || v == nil {
		return time.Time{}
	}
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05"} {
			if tm, err := time.Parse(layout, t); err == nil {
				return tm
			}
		}
	}
	return time.Time{}
}

// ToNumeric returns property p's value as a float64, best-effort.
func (m *ModuleDataObject) ToNumeric(p schema.PropertyID) float64 {
	v, err := m.container.Value(p, "")
	if err != nil || v == nil {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f
		}
	}
	return 0
}

// ToDouble is an alias for ToNumeric kept for parity with the source
// library's separate fixed-point/floating-point accessors; this core
// does not distinguish the two at the Go value level.
func (m *ModuleDataObject) ToDouble(p schema.PropertyID) float64 {
	return m.ToNumeric(p)
}

// ToUID parses property p's value as a UUID, best-effort. Returns the
// nil UUID if p holds nothing parseable.
func (m *ModuleDataObject) ToUID(p schema.PropertyID) uuid.UUID {
	v, err := m.container.Value(p, "")
	if err != nil || v == nil {
		return uuid.Nil
	}
	s, ok := v.(string)
	if !ok {
		return uuid.Nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// ToByteArray returns property p's value as a byte slice, best-effort.
func (m *ModuleDataObject) ToByteArray(p schema.PropertyID) []byte {
	v, err := m.container.Value(p, "")
	if err != nil || v == nil {
		return nil
	}
	switch t := v.(type) {
	case []byte:
		return t
	case string:
		return []byte(t)
	}
	return nil
}
