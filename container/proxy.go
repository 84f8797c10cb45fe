package container

import (
	"github.com/n-r-w/zfcore/rowid"
	"github.com/n-r-w/zfcore/schema"
)

// proxyState holds the this-ID <-> source-ID mapping and the forwarding
// listener attached to the source container.
type proxyState struct {
	source       *Container
	thisToSource map[schema.PropertyID]schema.PropertyID
	sourceToThis map[schema.PropertyID]schema.PropertyID
	forwarder    *proxyForwarder
}

// proxyForwarder is the Listener this container registers on its proxy
// source; it remaps each signal's property id back into this
// container's id space before re-emitting it to this container's own
// listeners.
type proxyForwarder struct {
	owner *Container
}

func (f *proxyForwarder) remap(sourceID schema.PropertyID) (schema.PropertyID, bool) {
	id, ok := f.owner.state.proxy.sourceToThis[sourceID]
	return id, ok
}

func (f *proxyForwarder) PropertyInitialized(p schema.PropertyID) {
	if id, ok := f.remap(p); ok {
		f.owner.emitPropertyInitialized(id)
	}
}
func (f *proxyForwarder) PropertyUninitialized(p schema.PropertyID) {
	if id, ok := f.remap(p); ok {
		f.owner.emitPropertyUninitialized(id)
	}
}
func (f *proxyForwarder) PropertyChanged(p schema.PropertyID, language string) {
	if id, ok := f.remap(p); ok {
		f.owner.emitPropertyChanged(id, language)
	}
}
func (f *proxyForwarder) InvalidateChanged(p schema.PropertyID, invalidated bool) {
	if id, ok := f.remap(p); ok {
		f.owner.emitInvalidateChanged(id, invalidated)
	}
}
func (f *proxyForwarder) Invalidate(p schema.PropertyID) {
	if id, ok := f.remap(p); ok {
		f.owner.emitInvalidate(id)
	}
}
func (f *proxyForwarder) PropertyBlocked(schema.PropertyID)   {}
func (f *proxyForwarder) PropertyUnblocked(schema.PropertyID) {}
func (f *proxyForwarder) AllBlocked()                         {}
func (f *proxyForwarder) AllUnblocked()                       {}
func (f *proxyForwarder) RowInserted(dataset schema.PropertyID, id rowid.RowID, pos int) {
	if mapped, ok := f.remap(dataset); ok {
		f.owner.emitRowInserted(mapped, id, pos)
	}
}
func (f *proxyForwarder) RowAboutToRemove(dataset schema.PropertyID, id rowid.RowID, pos int) {
	if mapped, ok := f.remap(dataset); ok {
		f.owner.emitRowAboutToRemove(mapped, id, pos)
	}
}
func (f *proxyForwarder) RowRemoved(dataset schema.PropertyID, id rowid.RowID, pos int) {
	if mapped, ok := f.remap(dataset); ok {
		f.owner.emitRowRemoved(mapped, id, pos)
	}
}
func (f *proxyForwarder) CellChanged(dataset schema.PropertyID, id rowid.RowID, column int) {
	if mapped, ok := f.remap(dataset); ok {
		f.owner.emitCellChanged(mapped, id, column)
	}
}
func (f *proxyForwarder) ModelAboutToReset(dataset schema.PropertyID) {
	if mapped, ok := f.remap(dataset); ok && !f.owner.isPropertyBlocked(mapped) {
		for _, l := range f.owner.snapshot() {
			l.ModelAboutToReset(mapped)
		}
	}
}
func (f *proxyForwarder) ModelReset(dataset schema.PropertyID) {
	if mapped, ok := f.remap(dataset); ok && !f.owner.isPropertyBlocked(mapped) {
		for _, l := range f.owner.snapshot() {
			l.ModelReset(mapped)
		}
	}
}

// SetProxy puts c into proxy mode for the properties named in mapping
// (this-ID -> source-ID): every read/write of a mapped property is
// forwarded to source, and source's signals for those properties are
// re-emitted to c's own listeners, remapped back to c's id space.
// Unmapped properties continue to live locally on c.
func (c *Container) SetProxy(source *Container, mapping map[schema.PropertyID]schema.PropertyID) {
	c.detach()
	c.ClearProxy()

	st := &proxyState{
		source:       source,
		thisToSource: make(map[schema.PropertyID]schema.PropertyID, len(mapping)),
		sourceToThis: make(map[schema.PropertyID]schema.PropertyID, len(mapping)),
	}
	for thisID, sourceID := range mapping {
		st.thisToSource[thisID] = sourceID
		st.sourceToThis[sourceID] = thisID
	}
	st.forwarder = &proxyForwarder{owner: c}
	source.AddListener(st.forwarder)
	c.state.proxy = st
}

// ClearProxy exits proxy mode, leaving every previously-mapped property
// with whatever local value it last held (if any).
func (c *Container) ClearProxy() {
	if c.state.proxy == nil {
		return
	}
	c.detach()
	if c.state.proxy.source != nil && c.state.proxy.forwarder != nil {
		c.state.proxy.source.RemoveListener(c.state.proxy.forwarder)
	}
	c.state.proxy = nil
}

// IsProxy reports whether c currently delegates any properties to a
// source container.
func (c *Container) IsProxy() bool { return c.state.proxy != nil }

// proxyMap returns the source-side property id for p if c is in proxy
// mode and p is mapped.
func (c *Container) proxyMap(p schema.PropertyID) (schema.PropertyID, bool) {
	if c.state.proxy == nil {
		return 0, false
	}
	id, ok := c.state.proxy.thisToSource[p]
	return id, ok
}
