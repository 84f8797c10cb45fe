// Package rowid identifies the rows of a container's dataset slots and
// indexes them by their key columns. A row's identity is either a real
// key taken from the database, a locally generated placeholder for a row
// not yet persisted, or explicitly invalid.
package rowid

import (
	"fmt"
	"hash/fnv"
)

// Kind classifies how a RowID's value was obtained.
type Kind int

const (
	// Invalid marks a RowID that does not identify any row — the zero
	// value of RowID, returned by lookups that find nothing.
	Invalid Kind = iota
	// Real marks a RowID taken from the dataset's Id column (or, for a
	// dataset with no Id column, the database's own generated key once a
	// row round-trips through save).
	Real
	// Generated marks a RowID assigned locally by Generator for a row
	// that exists only in memory.
	Generated
)

func (k Kind) String() string {
	switch k {
	case Real:
		return "Real"
	case Generated:
		return "Generated"
	default:
		return "Invalid"
	}
}

// RowID is the identity of one row of a dataset. It compares equal by
// value: two RowIDs with the same Kind and Value identify the same row.
type RowID struct {
	kind  Kind
	value int64
}

// InvalidRowID is the zero-value RowID, returned by lookups that find no
// matching row.
var InvalidRowID = RowID{}

// NewReal wraps a key value read from (or destined for) the database.
func NewReal(value int64) RowID { return RowID{kind: Real, value: value} }

// Kind reports whether id is Real, Generated, or Invalid.
func (id RowID) Kind() Kind { return id.kind }

// Value returns the underlying integer. For a Generated id this is a
// value from Generator's private sequence, never a database key.
func (id RowID) Value() int64 { return id.value }

// IsValid reports whether id identifies a row at all.
func (id RowID) IsValid() bool { return id.kind != Invalid }

// IsGenerated reports whether id was assigned by a Generator rather than
// read from a real key column.
func (id RowID) IsGenerated() bool { return id.kind == Generated }

func (id RowID) String() string {
	if id.kind == Invalid {
		return "RowID(invalid)"
	}
	return fmt.Sprintf("RowID(%s:%d)", id.kind, id.value)
}

// RealFromValue derives the Real RowID a dataset's Id column produces
// for v, per spec.md §4.2 step 1: a non-null value coercible to integer
// or non-empty string yields a real key. Integers map directly; strings
// are folded through FNV-1a since RowID's value is a single int64 field.
// Returns false for nil, empty string, or any other type — the row
// keeps whatever RowID it already had.
func RealFromValue(v any) (RowID, bool) {
	switch t := v.(type) {
	case int64:
		return NewReal(t), true
	case int:
		return NewReal(int64(t)), true
	case string:
		if t == "" {
			return RowID{}, false
		}
		h := fnv.New64a()
		_, _ = h.Write([]byte(t))
		return NewReal(int64(h.Sum64())), true
	default:
		return RowID{}, false
	}
}

// Generator hands out Generated RowIDs for rows inserted into a dataset
// that has no real key yet. One Generator is owned per dataset slot.
//
// entering is a re-entrancy guard that is set only while Next runs: it
// catches a Next call made on this Generator while another Next call on
// it has not returned. Next calls out to nothing, and container
// listeners for an inserted row run after Next has returned, so a
// row-insert callback that inserts another row is not caught by it.
type Generator struct {
	next     int64
	entering bool
}

// NewGenerator returns a Generator whose first assigned id has value 1.
// Zero is reserved so a zero-valued Generator field never silently hands
// out a colliding id before first use.
func NewGenerator() *Generator {
	return &Generator{next: 1}
}

// Next returns a fresh Generated RowID. It panics if called while
// another Next call on the same Generator is still on the stack.
func (g *Generator) Next() RowID {
	if g.entering {
		panic("rowid: Generator.Next called re-entrantly")
	}
	g.entering = true
	defer func() { g.entering = false }()

	id := RowID{kind: Generated, value: g.next}
	g.next++
	return id
}
