package highlight

import (
	"github.com/n-r-w/zfcore/rowid"
	"github.com/n-r-w/zfcore/schema"
)

// ValueSource is the read-only slice of container.Container a Processor
// needs to run its automatic checks and hand to manual hooks. Any type
// with these methods satisfies it structurally — *container.Container
// does, without this package importing container.
type ValueSource interface {
	Value(p schema.PropertyID, language string) (any, error)
	IsInitialized(p schema.PropertyID) bool
	RowCount(d schema.PropertyID) int
	RowIDAt(d schema.PropertyID, pos int) rowid.RowID
	CellValue(d schema.PropertyID, id rowid.RowID, col int) (any, error)
}

// FieldHighlighter checks one Field (or Entity) property in simple mode.
type FieldHighlighter func(p schema.PropertyID, src ValueSource) []HighlightItem

// DatasetHighlighter checks one Dataset property, as a whole, in simple
// mode (e.g. row-count constraints).
type DatasetHighlighter func(d schema.PropertyID, src ValueSource) []HighlightItem

// CellHighlighter checks one cell of a Dataset in simple mode.
type CellHighlighter func(d schema.PropertyID, row rowid.RowID, col int, src ValueSource) []HighlightItem

// FullHighlighter checks any property in full mode, given its kind.
type FullHighlighter func(p schema.PropertyID, src ValueSource) []HighlightItem

// Processor owns a Model and a dirty set of properties awaiting
// re-check. RegisterCheck marks a property dirty; ExecuteChecks drains
// the dirty set, replacing each dirty property's diagnostics atomically
// with the concatenation of its automatic checks and whichever manual
// hook the processor's mode calls for.
type Processor struct {
	ds     *schema.DataStructure
	source ValueSource
	model  *Model

	dirty   map[schema.PropertyID]bool
	started bool

	master *Processor

	fullMode    bool
	fieldHook   FieldHighlighter
	datasetHook DatasetHighlighter
	cellHook    CellHighlighter
	fullHook    FullHighlighter
}

// NewProcessor returns a started Processor in simple mode with no hooks
// registered (only automatic checks run until SetSimpleHooks or
// SetFullHook is called).
func NewProcessor(ds *schema.DataStructure, source ValueSource) *Processor {
	return &Processor{
		ds:      ds,
		source:  source,
		model:   NewModel(),
		dirty:   make(map[schema.PropertyID]bool),
		started: true,
	}
}

// SetSimpleHooks switches the processor to simple mode, checking Field
// properties, Dataset properties, and Dataset cells through separate
// hooks. Any of the three may be nil to skip that hook.
func (p *Processor) SetSimpleHooks(field FieldHighlighter, dataset DatasetHighlighter, cell CellHighlighter) {
	p.fullMode = false
	p.fieldHook, p.datasetHook, p.cellHook = field, dataset, cell
}

// SetFullHook switches the processor to full mode, checking every
// property kind through one hook.
func (p *Processor) SetFullHook(full FullHighlighter) {
	p.fullMode = true
	p.fullHook = full
}

// Model returns the model checks are written to. When a master is
// attached, this is the master's model, since the master is the one
// actually executing checks.
func (p *Processor) Model() *Model {
	if p.master != nil {
		return p.master.Model()
	}
	return p.model
}

// Start enables draining of the dirty set on ExecuteChecks.
func (p *Processor) Start() { p.started = true }

// Stop disables draining: RegisterCheck still accumulates, but
// ExecuteChecks becomes a no-op until Start is called again. Stopping
// also detaches any attached master, per the source engine's rule that
// a stopped subordinate reverts to standalone operation.
func (p *Processor) Stop() {
	p.started = false
	p.master = nil
}

// IsStarted reports whether ExecuteChecks currently drains the dirty set.
func (p *Processor) IsStarted() bool { return p.started }

// AttachMaster makes every check requested on p actually run on master:
// RegisterCheck forwards to master, and Model/ExecuteChecks delegate.
func (p *Processor) AttachMaster(master *Processor) {
	p.master = master
}

// DetachMaster reverts p to standalone operation.
func (p *Processor) DetachMaster() {
	p.master = nil
}

// RegisterCheck marks property p dirty, to be re-checked on the next
// ExecuteChecks (on p, or on its master if attached).
func (p *Processor) RegisterCheck(ps ...schema.PropertyID) {
	if p.master != nil {
		p.master.RegisterCheck(ps...)
		return
	}
	for _, id := range ps {
		p.dirty[id] = true
	}
}

// ExecuteChecks drains the dirty set, recomputing and atomically
// replacing diagnostics for every property that was marked. A no-op if
// the processor is stopped, or if a master is attached (the master's
// ExecuteChecks is what actually runs).
func (p *Processor) ExecuteChecks() {
	if p.master != nil {
		p.master.ExecuteChecks()
		return
	}
	if !p.started || len(p.dirty) == 0 {
		return
	}

	pending := p.dirty
	p.dirty = make(map[schema.PropertyID]bool)

	for id := range pending {
		p.model.Set(id, p.checkOne(id))
	}
}

func (p *Processor) checkOne(id schema.PropertyID) []HighlightItem {
	prop := p.ds.Property(id)
	if prop == nil {
		return nil
	}

	var items []HighlightItem
	items = append(items, p.automaticChecks(id, prop)...)

	if p.fullMode {
		if p.fullHook != nil {
			items = append(items, p.fullHook(id, p.source)...)
		}
		return items
	}

	switch prop.Kind {
	case schema.KindDataset:
		if p.datasetHook != nil {
			items = append(items, p.datasetHook(id, p.source)...)
		}
		if p.cellHook != nil {
			items = append(items, p.checkCells(id, prop)...)
		}
	default:
		if p.fieldHook != nil {
			items = append(items, p.fieldHook(id, p.source)...)
		}
	}
	return items
}

func (p *Processor) checkCells(id schema.PropertyID, prop *schema.DataProperty) []HighlightItem {
	var items []HighlightItem
	n := p.source.RowCount(id)
	for row := 0; row < n; row++ {
		rid := p.source.RowIDAt(id, row)
		for col := range prop.Columns {
			items = append(items, p.cellHook(id, rid, col, p.source)...)
		}
	}
	return items
}

// automaticChecks runs the engine's own schema-driven diagnostics, per
// spec.md §4.5 ("driven by property constraints in the schema"): key
// uniqueness for a Dataset, and required/range/enum/lookup for any
// property (or Dataset column) the schema attaches a Constraint or
// Lookup to. User hooks supply everything else.
func (p *Processor) automaticChecks(id schema.PropertyID, prop *schema.DataProperty) []HighlightItem {
	var items []HighlightItem
	if prop.Kind == schema.KindDataset {
		items = append(items, p.checkKeyUniqueness(id, prop)...)
	}
	items = append(items, p.checkRequired(id, prop)...)
	items = append(items, p.checkRange(id, prop)...)
	items = append(items, p.checkEnum(id, prop)...)
	items = append(items, p.checkLookup(id, prop)...)
	return items
}
