package change

import (
	"github.com/n-r-w/zfcore/container"
	"github.com/n-r-w/zfcore/rowid"
	"github.com/n-r-w/zfcore/schema"
)

// CellRange names the rectangle of a dataset a cell-change notification
// covers, clipped to the dataset's declared column count. A single-cell
// write reports FromCol == ToCol.
type CellRange struct {
	Dataset  schema.PropertyID
	Row      rowid.RowID
	FromCol  int
	ToCol    int
}

// Observer is the semantic event interface a data-bound object (or any
// other consumer that does not want to track container.Listener's raw
// signals itself) implements. Processor fans out every container signal
// it receives onto one or more registered Observers.
type Observer interface {
	DataInvalidate(p schema.PropertyID)
	InvalidateChanged(p schema.PropertyID, invalidated bool)
	LanguageChanged(p schema.PropertyID, language string)
	PropertyInitialized(p schema.PropertyID)
	PropertyUninitialized(p schema.PropertyID)
	PropertyBlocked(p schema.PropertyID)
	PropertyUnblocked(p schema.PropertyID)
	AllBlocked()
	AllUnblocked()
	PropertyChanged(p schema.PropertyID)
	DatasetCellChanged(rng CellRange)
	RowAboutToInsert(dataset schema.PropertyID, pos int)
	RowInserted(dataset schema.PropertyID, id rowid.RowID, pos int)
	RowAboutToRemove(dataset schema.PropertyID, id rowid.RowID, pos int)
	RowRemoved(dataset schema.PropertyID, id rowid.RowID, pos int)
	ModelAboutToReset(dataset schema.PropertyID)
	ModelReset(dataset schema.PropertyID)
	PropertyUpdated(p schema.PropertyID, action Action)
}

// Processor subscribes to a container's raw signals and republishes them
// as Observer calls. Register it with container.AddListener.
type Processor struct {
	ds        *schema.DataStructure
	observers []Observer
}

// NewProcessor returns a Processor for containers built over ds.
func NewProcessor(ds *schema.DataStructure) *Processor {
	return &Processor{ds: ds}
}

// AddObserver registers obs to receive every subsequent event.
func (p *Processor) AddObserver(obs Observer) {
	p.observers = append(p.observers, obs)
}

// RemoveObserver unregisters obs. A no-op if obs was never registered.
func (p *Processor) RemoveObserver(obs Observer) {
	for i, o := range p.observers {
		if o == obs {
			p.observers = append(p.observers[:i:i], p.observers[i+1:]...)
			return
		}
	}
}

func (p *Processor) each(f func(Observer)) {
	for _, o := range p.observers {
		f(o)
	}
}

// The following methods implement container.Listener.

func (p *Processor) PropertyInitialized(id schema.PropertyID) {
	p.each(func(o Observer) { o.PropertyInitialized(id) })
	p.each(func(o Observer) { o.PropertyUpdated(id, Create) })
}

func (p *Processor) PropertyUninitialized(id schema.PropertyID) {
	p.each(func(o Observer) { o.PropertyUninitialized(id) })
	p.each(func(o Observer) { o.PropertyUpdated(id, Remove) })
}

func (p *Processor) PropertyChanged(id schema.PropertyID, language string) {
	if language != "" {
		p.each(func(o Observer) { o.LanguageChanged(id, language) })
	}
	p.each(func(o Observer) { o.PropertyChanged(id) })
	p.each(func(o Observer) { o.PropertyUpdated(id, Modify) })
}

func (p *Processor) InvalidateChanged(id schema.PropertyID, invalidated bool) {
	p.each(func(o Observer) { o.InvalidateChanged(id, invalidated) })
}

func (p *Processor) Invalidate(id schema.PropertyID) {
	p.each(func(o Observer) { o.DataInvalidate(id) })
}

func (p *Processor) PropertyBlocked(id schema.PropertyID) {
	p.each(func(o Observer) { o.PropertyBlocked(id) })
}

func (p *Processor) PropertyUnblocked(id schema.PropertyID) {
	p.each(func(o Observer) { o.PropertyUnblocked(id) })
}

func (p *Processor) AllBlocked() {
	p.each(func(o Observer) { o.AllBlocked() })
}

func (p *Processor) AllUnblocked() {
	p.each(func(o Observer) { o.AllUnblocked() })
}

func (p *Processor) RowInserted(dataset schema.PropertyID, id rowid.RowID, pos int) {
	p.each(func(o Observer) { o.RowInserted(dataset, id, pos) })
	p.each(func(o Observer) { o.PropertyUpdated(dataset, Create) })
}

func (p *Processor) RowAboutToRemove(dataset schema.PropertyID, id rowid.RowID, pos int) {
	p.each(func(o Observer) { o.RowAboutToRemove(dataset, id, pos) })
}

func (p *Processor) RowRemoved(dataset schema.PropertyID, id rowid.RowID, pos int) {
	p.each(func(o Observer) { o.RowRemoved(dataset, id, pos) })
	p.each(func(o Observer) { o.PropertyUpdated(dataset, Remove) })
}

// CellChanged implements container.Listener, clipping the notified
// column against the dataset's declared column count before forwarding
// — a column index outside the schema (which should never happen, but
// the spec calls for clipping rather than trusting the caller) is
// dropped silently rather than forwarded as a malformed range.
func (p *Processor) CellChanged(dataset schema.PropertyID, id rowid.RowID, column int) {
	prop := p.ds.Property(dataset)
	if prop == nil || column < 0 || column >= len(prop.Columns) {
		return
	}
	rng := CellRange{Dataset: dataset, Row: id, FromCol: column, ToCol: column}
	p.each(func(o Observer) { o.DatasetCellChanged(rng) })
	p.each(func(o Observer) { o.PropertyUpdated(dataset, Modify) })
}

func (p *Processor) ModelAboutToReset(dataset schema.PropertyID) {
	p.each(func(o Observer) { o.ModelAboutToReset(dataset) })
}

func (p *Processor) ModelReset(dataset schema.PropertyID) {
	p.each(func(o Observer) { o.ModelReset(dataset) })
	p.each(func(o Observer) { o.PropertyUpdated(dataset, Modify) })
}

// compile-time assertion that Processor satisfies container.Listener.
var _ container.Listener = (*Processor)(nil)
