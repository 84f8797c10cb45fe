package container

import "github.com/n-r-w/zfcore/schema"

// BlockProperty suppresses observer-visible signals for p. Acquisitions
// nest: the underlying state keeps transitioning normally, only signals
// are held back, and UnblockProperty must be called once per
// BlockProperty call before signals resume.
func (c *Container) BlockProperty(p schema.PropertyID) {
	c.detach()
	wasBlocked := c.isPropertyBlocked(p)
	c.state.blockProperty[p]++
	if !wasBlocked {
		for _, l := range c.snapshot() {
			l.PropertyBlocked(p)
		}
	}
}

// UnblockProperty releases one BlockProperty acquisition. When the last
// acquisition is released, listeners get a PropertyUnblocked followed by
// one PropertyChanged catch-up if the property is currently initialized
// — the "everything might have changed" pulse spec.md §4.3 describes.
func (c *Container) UnblockProperty(p schema.PropertyID) {
	c.detach()
	if c.state.blockProperty[p] == 0 {
		return
	}
	c.state.blockProperty[p]--
	if c.state.blockProperty[p] == 0 {
		delete(c.state.blockProperty, p)
		if c.state.blockAll == 0 {
			for _, l := range c.snapshot() {
				l.PropertyUnblocked(p)
			}
			c.fireCatchUp(p)
		}
	}
}

// BlockAllProperties suppresses every property's signals, including ones
// blocked or unblocked individually while the container-wide block is
// held.
func (c *Container) BlockAllProperties() {
	c.detach()
	c.state.blockAll++
	if c.state.blockAll == 1 {
		for _, l := range c.snapshot() {
			l.AllBlocked()
		}
	}
}

// UnblockAllProperties releases one BlockAllProperties acquisition. On
// the outermost release, listeners get one AllUnblocked, then exactly
// one catch-up PropertyChanged per still-initialized property that is
// not itself individually blocked, in property-ID order.
func (c *Container) UnblockAllProperties() {
	c.detach()
	if c.state.blockAll == 0 {
		return
	}
	c.state.blockAll--
	if c.state.blockAll > 0 {
		return
	}

	for _, l := range c.snapshot() {
		l.AllUnblocked()
	}

	for _, id := range c.state.ds.Properties() {
		if c.state.blockProperty[id.ID] > 0 {
			continue
		}
		c.fireCatchUp(id.ID)
	}
}

// fireCatchUp emits the "this property might have changed" pulse used
// when a blocking scope releases. Datasets get a model-reset pulse since
// there is no single property-changed analogue for tabular data.
func (c *Container) fireCatchUp(p schema.PropertyID) {
	prop := c.state.ds.Property(p)
	if prop == nil {
		return
	}
	if prop.Kind == schema.KindDataset {
		for _, l := range c.snapshot() {
			l.ModelReset(p)
		}
		return
	}
	if s := c.scalar(p); s != nil && s.initialized {
		for _, l := range c.snapshot() {
			l.PropertyChanged(p, "")
		}
	}
}
