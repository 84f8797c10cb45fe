// Package schema describes the immutable shape of an entity kind: its
// properties, their data types, the links between them, and the lookups
// that resolve their display values. A *DataStructure* is built once,
// validated, and then shared by every container and data-bound object
// constructed against that entity kind.
package schema

import "fmt"

// PropertyID is a small, dense, non-negative integer identifying a
// property within a DataStructure. IDs are dense enough that a
// DataStructure can address properties with a direct vector of size
// max(id)+1 instead of a map.
type PropertyID int

// PropertyKind classifies what a property represents.
type PropertyKind int

const (
	KindEntity PropertyKind = iota
	KindField
	KindDataset
	KindColumn
	KindRow
	KindCell
)

func (k PropertyKind) String() string {
	switch k {
	case KindEntity:
		return "Entity"
	case KindField:
		return "Field"
	case KindDataset:
		return "Dataset"
	case KindColumn:
		return "Column"
	case KindRow:
		return "Row"
	case KindCell:
		return "Cell"
	default:
		return fmt.Sprintf("PropertyKind(%d)", int(k))
	}
}

// DataType is the portable value-type family of a field or column.
type DataType int

const (
	DataTypeString DataType = iota
	DataTypeInt
	DataTypeUint
	DataTypeNumeric // fixed-point decimal
	DataTypeDouble
	DataTypeBool
	DataTypeDate
	DataTypeTime
	DataTypeDateTime
	DataTypeBytes
	DataTypeImage
	DataTypeVariant
)

func (t DataType) String() string {
	names := [...]string{"String", "Int", "Uint", "Numeric", "Double", "Bool", "Date", "Time", "DateTime", "Bytes", "Image", "Variant"}
	if int(t) < 0 || int(t) >= len(names) {
		return fmt.Sprintf("DataType(%d)", int(t))
	}
	return names[t]
}

// Options bundles the per-property boolean flags spec.md §3 lists
// alongside the data type.
type Options struct {
	// IsID marks the column of a Dataset whose value seeds the row key
	// (see rowid.Generator).
	IsID bool
	// Key marks a column that participates in a dataset's uniqueness
	// check (highlight.Processor's automatic key-collision diagnostic).
	// A dataset with no Key-tagged column falls back to its Id column.
	Key bool
	// MultiLanguage makes a Field's scalar slot a language -> value map
	// instead of a single value.
	MultiLanguage bool
	// SimpleDataset marks a Dataset that has no relational counterpart of
	// its own (e.g. a fixed enumeration table) for collaborators that
	// special-case persistence.
	SimpleDataset bool
	// DBReadIgnored excludes the property from load, and disables
	// invalidation tracking for it entirely.
	DBReadIgnored bool
	// DBWriteIgnored excludes the property from save's dirty-property set.
	DBWriteIgnored bool
	// ClientOnly marks a property that never round-trips through the
	// database collaborator at all (computed locally).
	ClientOnly bool
}

// DataProperty is one entry of a DataStructure: a field, a dataset, or
// (nested, by position) one of a dataset's columns.
type DataProperty struct {
	ID       PropertyID
	Kind     PropertyKind
	Name     string
	DataType DataType
	Options  Options

	// Columns holds a Dataset's ordered column properties. Columns are
	// referenced by position within this slice, never by ID, per
	// spec.md §3.
	Columns []DataProperty

	// Lookup is non-nil when this property's displayed value is resolved
	// through a catalog rather than shown raw.
	Lookup *PropertyLookup

	// Constraint is non-nil when the highlight engine's automatic checks
	// (spec.md §4.5, "driven by property constraints in the schema")
	// have something to enforce on this Field or Column beyond key
	// uniqueness.
	Constraint *Constraint

	// Default is the value newly inserted Dataset rows fill this column
	// with (spec.md §4.3); nil means no default (the cell starts nil).
	Default any
}

// Constraint declares the value rules the highlight engine checks
// automatically for a Field or Dataset column.
type Constraint struct {
	// Required flags an uninitialized Field, or a cell holding nil or an
	// empty string, with an Error-severity diagnostic.
	Required bool

	// Min and Max bound a numeric value, inclusive; a nil bound is
	// unconstrained on that side. Ignored for non-numeric data types.
	Min, Max *float64

	// Enum restricts a string value to one of these entries; empty means
	// no restriction. Matching is case-sensitive.
	Enum []string
}

// LookupKind selects how a PropertyLookup resolves a value to a display
// string.
type LookupKind int

const (
	// LookupList resolves inline from Names, no collaborator call.
	LookupList LookupKind = iota
	// LookupDataset resolves through the lookup collaborator's resolve()
	// contract (spec.md §6), against another entity's key/display columns.
	LookupDataset
)

// PropertyLookup configures how a property's raw value becomes a
// human-readable label.
type PropertyLookup struct {
	Kind LookupKind

	// Names holds the ordered display strings for a List lookup, indexed
	// by the property's raw integer value.
	Names []string

	// Entity, KeyColumn and DisplayColumn identify the target of a
	// Dataset lookup: SELECT DisplayColumn FROM Entity WHERE KeyColumn = ?.
	Entity        string
	KeyColumn     string
	DisplayColumn string

	// SQLTemplate is the restricted single-SELECT template the lookup
	// package parses and validates before ever substituting a key into it.
	SQLTemplate string
}

// SameGroup is a set of property IDs whose values are kept identical by
// same-property mirroring (spec.md §4.3).
type SameGroup struct {
	Properties []PropertyID
}

// DataSourcePriority names a target property recomputed from the first
// non-null value among an ordered list of source properties.
type DataSourcePriority struct {
	Target  PropertyID
	Sources []PropertyID
}

// DataStructure is the immutable schema of one entity kind. Build one
// with a Builder; once Build succeeds, every exported method is a pure
// function of its arguments — no I/O, no hidden state.
type DataStructure struct {
	entityCode string
	version    int

	byID    []*DataProperty // direct-addressed, index == PropertyID; nil hole where unused
	ordered []PropertyID    // declaration order, for enumeration

	sameGroups []SameGroup
	dsp        []DataSourcePriority
}

// EntityCode returns the unique code identifying this entity kind.
func (ds *DataStructure) EntityCode() string { return ds.entityCode }

// Version returns the schema version, bumped whenever the property set
// changes in a way the database collaborator must migrate for.
func (ds *DataStructure) Version() int { return ds.version }

// Property looks up a property by ID. Returns nil if id is out of range
// or was never declared — callers that treat this as a schema violation
// should wrap the nil check with zferr.ErrSchemaViolation.
func (ds *DataStructure) Property(id PropertyID) *DataProperty {
	if int(id) < 0 || int(id) >= len(ds.byID) {
		return nil
	}
	return ds.byID[id]
}

// Column returns the column at pos within the Dataset property id, or nil
// if id is not a Dataset or pos is out of range. Columns are addressed by
// position, never by ID, per spec.md §3.
func (ds *DataStructure) Column(id PropertyID, pos int) *DataProperty {
	p := ds.Property(id)
	if p == nil || p.Kind != KindDataset || pos < 0 || pos >= len(p.Columns) {
		return nil
	}
	return &p.Columns[pos]
}

// Properties enumerates main-level properties (Field and Dataset; not
// their nested Columns) in declaration order.
func (ds *DataStructure) Properties() []*DataProperty {
	out := make([]*DataProperty, 0, len(ds.ordered))
	for _, id := range ds.ordered {
		out = append(out, ds.byID[id])
	}
	return out
}

// ColumnsWithOption enumerates, across every column of the Dataset
// property id, those whose Options match pred — e.g. the Id column, or
// every column flagged ClientOnly.
func (ds *DataStructure) ColumnsWithOption(id PropertyID, pred func(Options) bool) []*DataProperty {
	p := ds.Property(id)
	if p == nil || p.Kind != KindDataset {
		return nil
	}
	var out []*DataProperty
	for i := range p.Columns {
		if pred(p.Columns[i].Options) {
			out = append(out, &p.Columns[i])
		}
	}
	return out
}

// IDColumn returns the dataset's Id-tagged column, or nil if it has none
// (in which case rows get a generated RowID, per spec.md §4.2).
func (ds *DataStructure) IDColumn(id PropertyID) *DataProperty {
	cols := ds.ColumnsWithOption(id, func(o Options) bool { return o.IsID })
	if len(cols) == 0 {
		return nil
	}
	return cols[0]
}

// KeyColumnPositions returns the positions, within dataset id's Columns
// slice, of the columns used by the automatic row-uniqueness check: the
// Key-tagged columns if any exist, otherwise the single Id column.
func (ds *DataStructure) KeyColumnPositions(id PropertyID) []int {
	p := ds.Property(id)
	if p == nil || p.Kind != KindDataset {
		return nil
	}
	var keyed []int
	for i := range p.Columns {
		if p.Columns[i].Options.Key {
			keyed = append(keyed, i)
		}
	}
	if len(keyed) > 0 {
		return keyed
	}
	for i := range p.Columns {
		if p.Columns[i].Options.IsID {
			return []int{i}
		}
	}
	return nil
}

// SameGroups enumerates the configured same-property mirroring groups.
func (ds *DataStructure) SameGroups() []SameGroup { return ds.sameGroups }

// DataSourcePriorities enumerates the configured DSP links.
func (ds *DataStructure) DataSourcePriorities() []DataSourcePriority { return ds.dsp }

// DSPFor returns the DataSourcePriority targeting property id, or nil.
func (ds *DataStructure) DSPFor(id PropertyID) *DataSourcePriority {
	for i := range ds.dsp {
		if ds.dsp[i].Target == id {
			return &ds.dsp[i]
		}
	}
	return nil
}

// SameGroupFor returns the SameGroup containing id, or nil.
func (ds *DataStructure) SameGroupFor(id PropertyID) *SameGroup {
	for i := range ds.sameGroups {
		for _, p := range ds.sameGroups[i].Properties {
			if p == id {
				return &ds.sameGroups[i]
			}
		}
	}
	return nil
}
