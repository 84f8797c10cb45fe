// Package container implements the reactive, schema-typed value store
// every data-bound object and entity is built on: per-property scalar or
// tabular storage, nested blocking, same-property mirroring,
// data-source-priority propagation, proxy delegation to another
// container, and invalidation tracking.
//
// A Container is value-semantic with copy-on-write: Clone is cheap (it
// shares the underlying state), and the first mutating call after a
// Clone detaches by copying the shared state privately.
package container

import (
	"github.com/n-r-w/zfcore/rowid"
	"github.com/n-r-w/zfcore/schema"
)

// scalarSlot backs one Field (or Entity) property.
type scalarSlot struct {
	initialized bool
	invalidated bool
	changed     bool
	directlySet bool           // true once a caller has set this property itself, see propagateSameGroup
	values      map[string]any // language -> value; "" is the default language
}

func newScalarSlot() *scalarSlot {
	return &scalarSlot{values: make(map[string]any, 1)}
}

func (s *scalarSlot) clone() *scalarSlot {
	cp := &scalarSlot{initialized: s.initialized, invalidated: s.invalidated, changed: s.changed, directlySet: s.directlySet}
	cp.values = make(map[string]any, len(s.values))
	for k, v := range s.values {
		cp.values[k] = v
	}
	return cp
}

// row is one entry of a dataset slot.
type row struct {
	id          rowid.RowID
	cells       []any
	cellChanged []bool
}

func (r *row) clone() *row {
	cp := &row{id: r.id, cells: append([]any(nil), r.cells...), cellChanged: append([]bool(nil), r.cellChanged...)}
	return cp
}

// datasetSlot backs one Dataset property.
type datasetSlot struct {
	initialized bool
	invalidated bool
	rows        []*row
	rowIndex    map[rowid.RowID]int
	hash        *rowid.DataHashed // lazily built, nil until first lookup
	generator   *rowid.Generator
}

func newDatasetSlot() *datasetSlot {
	return &datasetSlot{rowIndex: make(map[rowid.RowID]int), generator: rowid.NewGenerator()}
}

func (d *datasetSlot) clone() *datasetSlot {
	cp := &datasetSlot{
		initialized: d.initialized,
		invalidated: d.invalidated,
		rows:        make([]*row, len(d.rows)),
		rowIndex:    make(map[rowid.RowID]int, len(d.rowIndex)),
		generator:   d.generator,
		// hash is rebuilt lazily; a clone starts without one so mutations
		// on one side of a copy-on-write split never corrupt the other.
	}
	for i, r := range d.rows {
		cp.rows[i] = r.clone()
	}
	for k, v := range d.rowIndex {
		cp.rowIndex[k] = v
	}
	return cp
}

// sharedState is the copy-on-write payload shared by aliased Containers.
type sharedState struct {
	refCount int

	ds *schema.DataStructure

	scalars  map[schema.PropertyID]*scalarSlot
	datasets map[schema.PropertyID]*datasetSlot

	blockAll      int
	blockProperty map[schema.PropertyID]int

	propagatingSame map[schema.PropertyID]bool
	propagatingDSP  map[schema.PropertyID]bool
	dspBatchDepth   int
	deferredDSP     map[schema.PropertyID]bool

	proxy *proxyState

	listeners []Listener

	defaultLanguage string
}

func newSharedState(ds *schema.DataStructure) *sharedState {
	st := &sharedState{
		refCount:        1,
		ds:              ds,
		scalars:         make(map[schema.PropertyID]*scalarSlot),
		datasets:        make(map[schema.PropertyID]*datasetSlot),
		blockProperty:   make(map[schema.PropertyID]int),
		propagatingSame: make(map[schema.PropertyID]bool),
		propagatingDSP:  make(map[schema.PropertyID]bool),
		deferredDSP:     make(map[schema.PropertyID]bool),
	}
	for _, p := range ds.Properties() {
		switch p.Kind {
		case schema.KindDataset:
			st.datasets[p.ID] = newDatasetSlot()
		default:
			st.scalars[p.ID] = newScalarSlot()
		}
	}
	return st
}

// clone deep-copies the state for detach. Listeners are NOT copied: each
// aliased Container keeps watching the shared payload until it detaches,
// at which point it starts a private, listener-less life (matching the
// source library's behavior where registering more than one real owner
// for the same backing store is a caller error, not this package's).
func (st *sharedState) clone() *sharedState {
	cp := &sharedState{
		refCount:        1,
		ds:              st.ds,
		scalars:         make(map[schema.PropertyID]*scalarSlot, len(st.scalars)),
		datasets:        make(map[schema.PropertyID]*datasetSlot, len(st.datasets)),
		blockAll:        st.blockAll,
		blockProperty:   make(map[schema.PropertyID]int, len(st.blockProperty)),
		propagatingSame: make(map[schema.PropertyID]bool),
		propagatingDSP:  make(map[schema.PropertyID]bool),
		deferredDSP:     make(map[schema.PropertyID]bool),
		defaultLanguage: st.defaultLanguage,
	}
	for k, v := range st.scalars {
		cp.scalars[k] = v.clone()
	}
	for k, v := range st.datasets {
		cp.datasets[k] = v.clone()
	}
	for k, v := range st.blockProperty {
		cp.blockProperty[k] = v
	}
	if st.proxy != nil {
		p := *st.proxy
		cp.proxy = &p
	}
	return cp
}

// Container is a copy-on-write, schema-typed value store for one entity
// kind. The zero value is not usable; construct with New.
type Container struct {
	state *sharedState
}

// New constructs an empty Container over ds: every property starts
// uninitialized.
func New(ds *schema.DataStructure) *Container {
	return &Container{state: newSharedState(ds)}
}

// Schema returns the DataStructure this container was built from.
func (c *Container) Schema() *schema.DataStructure { return c.state.ds }

// Clone returns a Container sharing this one's storage until either is
// mutated, at which point the mutator detaches with a private copy.
func (c *Container) Clone() *Container {
	c.state.refCount++
	return &Container{state: c.state}
}

// detach must be called at the start of every mutating method. It makes
// c.state privately owned, cloning it if another Container currently
// shares it.
func (c *Container) detach() {
	if c.state.refCount > 1 {
		c.state.refCount--
		c.state = c.state.clone()
	}
}

func (c *Container) scalar(id schema.PropertyID) *scalarSlot {
	s, ok := c.state.scalars[id]
	if !ok {
		return nil
	}
	return s
}

func (c *Container) dataset(id schema.PropertyID) *datasetSlot {
	d, ok := c.state.datasets[id]
	if !ok {
		return nil
	}
	return d
}
