package schema

import "fmt"

// Builder accumulates properties and links, then validates and freezes
// them into a DataStructure. A Builder is single-use: call Build once and
// discard it.
type Builder struct {
	entityCode string
	version    int

	props []DataProperty

	sameGroups []SameGroup
	dsp        []DataSourcePriority

	err error
}

// NewBuilder starts a Builder for the entity kind identified by
// entityCode, at the given schema version.
func NewBuilder(entityCode string, version int) *Builder {
	return &Builder{entityCode: entityCode, version: version}
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) nextID() PropertyID {
	return PropertyID(len(b.props))
}

// AddField declares a scalar Field property and returns its assigned ID.
func (b *Builder) AddField(name string, dt DataType, opts Options) PropertyID {
	id := b.nextID()
	b.props = append(b.props, DataProperty{
		ID: id, Kind: KindField, Name: name, DataType: dt, Options: opts,
	})
	return id
}

// SetConstraint attaches a Constraint to an already-declared Field
// property (for a Dataset's column, set ColumnSpec.Constraint instead).
func (b *Builder) SetConstraint(id PropertyID, c Constraint) *Builder {
	if int(id) < 0 || int(id) >= len(b.props) {
		return b.fail(fmt.Errorf("SetConstraint: unknown property id %d", id))
	}
	b.props[id].Constraint = &c
	return b
}

// SetDefault attaches a default value to an already-declared Field
// property (for a Dataset's column, set ColumnSpec.Default instead); a
// newly inserted Dataset row fills each column with its Default.
func (b *Builder) SetDefault(id PropertyID, value any) *Builder {
	if int(id) < 0 || int(id) >= len(b.props) {
		return b.fail(fmt.Errorf("SetDefault: unknown property id %d", id))
	}
	b.props[id].Default = value
	return b
}

// AddEntityProperty declares the implicit Entity-kind property every
// DataStructure carries exactly one of (the entity's own identity slot).
func (b *Builder) AddEntityProperty(name string) PropertyID {
	id := b.nextID()
	b.props = append(b.props, DataProperty{ID: id, Kind: KindEntity, Name: name})
	return id
}

// ColumnSpec describes one column to be added to a dataset via AddDataset.
type ColumnSpec struct {
	Name       string
	DataType   DataType
	Options    Options
	Lookup     *PropertyLookup
	Constraint *Constraint
	// Default is the value a newly inserted row fills this column with;
	// nil means the cell starts nil.
	Default any
}

// AddDataset declares a Dataset property with the given ordered columns
// and returns the dataset's assigned ID. Exactly one column may set
// Options.IsID; if none does, rows of this dataset get a generated RowID.
func (b *Builder) AddDataset(name string, columns []ColumnSpec) PropertyID {
	id := b.nextID()
	cols := make([]DataProperty, len(columns))
	idCount := 0
	for i, c := range columns {
		cols[i] = DataProperty{
			ID: PropertyID(i), Kind: KindColumn, Name: c.Name,
			DataType: c.DataType, Options: c.Options, Lookup: c.Lookup,
			Constraint: c.Constraint, Default: c.Default,
		}
		if c.Options.IsID {
			idCount++
		}
	}
	if idCount > 1 {
		b.fail(fmt.Errorf("dataset %q: %d columns marked IsID, at most one allowed", name, idCount))
	}
	b.props = append(b.props, DataProperty{
		ID: id, Kind: KindDataset, Name: name, Columns: cols,
	})
	return id
}

// SetLookup attaches a PropertyLookup to an already-declared Field
// property (for a Dataset's column, set ColumnSpec.Lookup instead).
func (b *Builder) SetLookup(id PropertyID, lookup PropertyLookup) *Builder {
	if int(id) < 0 || int(id) >= len(b.props) {
		return b.fail(fmt.Errorf("SetLookup: unknown property id %d", id))
	}
	b.props[id].Lookup = &lookup
	return b
}

// AddSameGroup registers a same-property mirroring group (spec.md §4.3).
// Every member must be a previously-declared Field of the same DataType.
func (b *Builder) AddSameGroup(members ...PropertyID) *Builder {
	if len(members) < 2 {
		return b.fail(fmt.Errorf("same-property group needs at least 2 members, got %d", len(members)))
	}
	b.sameGroups = append(b.sameGroups, SameGroup{Properties: members})
	return b
}

// AddDSP registers a data-source-priority link: target is recomputed as
// the first non-null value among sources, in order (spec.md §4.3).
func (b *Builder) AddDSP(target PropertyID, sources ...PropertyID) *Builder {
	if len(sources) == 0 {
		return b.fail(fmt.Errorf("DSP target %d: at least one source required", target))
	}
	b.dsp = append(b.dsp, DataSourcePriority{Target: target, Sources: sources})
	return b
}

// Build validates every declared property and link and, on success,
// freezes them into a DataStructure. Once Build returns a non-nil
// DataStructure, it and everything reachable from it is safe to share
// across goroutines without synchronization — nothing mutates it again.
func (b *Builder) Build() (*DataStructure, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.validate(); err != nil {
		return nil, err
	}

	ds := &DataStructure{
		entityCode: b.entityCode,
		version:    b.version,
		byID:       make([]*DataProperty, len(b.props)),
		ordered:    make([]PropertyID, 0, len(b.props)),
		sameGroups: append([]SameGroup(nil), b.sameGroups...),
		dsp:        append([]DataSourcePriority(nil), b.dsp...),
	}
	for i := range b.props {
		p := b.props[i]
		ds.byID[p.ID] = &p
		ds.ordered = append(ds.ordered, p.ID)
	}
	return ds, nil
}
