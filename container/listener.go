package container

import (
	"github.com/n-r-w/zfcore/rowid"
	"github.com/n-r-w/zfcore/schema"
)

// Listener receives a container's low-level signals. Implementations
// must tolerate being registered or unregistered from within a callback:
// emission always iterates over a snapshot of the listener list, never
// the live slice.
type Listener interface {
	PropertyInitialized(p schema.PropertyID)
	PropertyUninitialized(p schema.PropertyID)
	PropertyChanged(p schema.PropertyID, language string)
	InvalidateChanged(p schema.PropertyID, invalidated bool)
	Invalidate(p schema.PropertyID)
	PropertyBlocked(p schema.PropertyID)
	PropertyUnblocked(p schema.PropertyID)
	AllBlocked()
	AllUnblocked()
	RowInserted(dataset schema.PropertyID, id rowid.RowID, pos int)
	RowAboutToRemove(dataset schema.PropertyID, id rowid.RowID, pos int)
	RowRemoved(dataset schema.PropertyID, id rowid.RowID, pos int)
	CellChanged(dataset schema.PropertyID, id rowid.RowID, column int)
	ModelAboutToReset(dataset schema.PropertyID)
	ModelReset(dataset schema.PropertyID)
}

// NopListener is embeddable by callers who only care about a handful of
// signals; its methods are all no-ops.
type NopListener struct{}

func (NopListener) PropertyInitialized(schema.PropertyID)           {}
func (NopListener) PropertyUninitialized(schema.PropertyID)         {}
func (NopListener) PropertyChanged(schema.PropertyID, string)       {}
func (NopListener) InvalidateChanged(schema.PropertyID, bool)       {}
func (NopListener) Invalidate(schema.PropertyID)                    {}
func (NopListener) PropertyBlocked(schema.PropertyID)               {}
func (NopListener) PropertyUnblocked(schema.PropertyID)             {}
func (NopListener) AllBlocked()                                     {}
func (NopListener) AllUnblocked()                                   {}
func (NopListener) RowInserted(schema.PropertyID, rowid.RowID, int) {}
func (NopListener) RowAboutToRemove(schema.PropertyID, rowid.RowID, int) {
}
func (NopListener) RowRemoved(schema.PropertyID, rowid.RowID, int)      {}
func (NopListener) CellChanged(schema.PropertyID, rowid.RowID, int)     {}
func (NopListener) ModelAboutToReset(schema.PropertyID)                 {}
func (NopListener) ModelReset(schema.PropertyID)                        {}

// AddListener registers l to receive this container's signals. AddListener
// itself is not a mutating operation in the copy-on-write sense — it
// attaches to whichever state instance backs c right now, matching the
// source library's note that aliased containers share one real owner.
func (c *Container) AddListener(l Listener) {
	c.state.listeners = append(c.state.listeners, l)
}

// RemoveListener unregisters l. A no-op if l was never registered.
func (c *Container) RemoveListener(l Listener) {
	ls := c.state.listeners
	for i, existing := range ls {
		if existing == l {
			c.state.listeners = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

func (c *Container) snapshot() []Listener {
	if len(c.state.listeners) == 0 {
		return nil
	}
	return append([]Listener(nil), c.state.listeners...)
}

func (c *Container) isPropertyBlocked(p schema.PropertyID) bool {
	return c.state.blockAll > 0 || c.state.blockProperty[p] > 0
}

func (c *Container) emitPropertyChanged(p schema.PropertyID, language string) {
	if c.isPropertyBlocked(p) {
		return
	}
	for _, l := range c.snapshot() {
		l.PropertyChanged(p, language)
	}
}

func (c *Container) emitPropertyInitialized(p schema.PropertyID) {
	if c.isPropertyBlocked(p) {
		return
	}
	for _, l := range c.snapshot() {
		l.PropertyInitialized(p)
	}
}

func (c *Container) emitPropertyUninitialized(p schema.PropertyID) {
	if c.isPropertyBlocked(p) {
		return
	}
	for _, l := range c.snapshot() {
		l.PropertyUninitialized(p)
	}
}

func (c *Container) emitInvalidateChanged(p schema.PropertyID, invalidated bool) {
	if c.isPropertyBlocked(p) {
		return
	}
	for _, l := range c.snapshot() {
		l.InvalidateChanged(p, invalidated)
	}
}

func (c *Container) emitInvalidate(p schema.PropertyID) {
	if c.isPropertyBlocked(p) {
		return
	}
	for _, l := range c.snapshot() {
		l.Invalidate(p)
	}
}

func (c *Container) emitRowInserted(dataset schema.PropertyID, id rowid.RowID, pos int) {
	if c.isPropertyBlocked(dataset) {
		return
	}
	for _, l := range c.snapshot() {
		l.RowInserted(dataset, id, pos)
	}
}

func (c *Container) emitRowAboutToRemove(dataset schema.PropertyID, id rowid.RowID, pos int) {
	if c.isPropertyBlocked(dataset) {
		return
	}
	for _, l := range c.snapshot() {
		l.RowAboutToRemove(dataset, id, pos)
	}
}

func (c *Container) emitRowRemoved(dataset schema.PropertyID, id rowid.RowID, pos int) {
	if c.isPropertyBlocked(dataset) {
		return
	}
	for _, l := range c.snapshot() {
		l.RowRemoved(dataset, id, pos)
	}
}

func (c *Container) emitCellChanged(dataset schema.PropertyID, id rowid.RowID, column int) {
	if c.isPropertyBlocked(dataset) {
		return
	}
	for _, l := range c.snapshot() {
		l.CellChanged(dataset, id, column)
	}
}
