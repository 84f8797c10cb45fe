package container

import "github.com/n-r-w/zfcore/schema"

// SetInvalidate toggles property p's invalidated flag. A change in the
// flag fires InvalidateChanged; a call that leaves the flag unchanged
// still fires Invalidate, used as a "please reload" pulse. Properties
// flagged DBReadIgnored never invalidate — see spec.md §4.3.
func (c *Container) SetInvalidate(p schema.PropertyID, invalidated bool) {
	prop := c.state.ds.Property(p)
	if prop == nil {
		return
	}
	if prop.Options.DBReadIgnored {
		return
	}

	c.detach()

	switch prop.Kind {
	case schema.KindDataset:
		d := c.dataset(p)
		if d == nil {
			return
		}
		changed := d.invalidated != invalidated
		d.invalidated = invalidated
		if changed {
			c.emitInvalidateChanged(p, invalidated)
		} else {
			c.emitInvalidate(p)
		}
	default:
		s := c.scalar(p)
		if s == nil {
			return
		}
		changed := s.invalidated != invalidated
		s.invalidated = invalidated
		if changed {
			c.emitInvalidateChanged(p, invalidated)
		} else {
			c.emitInvalidate(p)
		}
	}
}

// IsInvalidated reports whether property p is currently marked stale.
func (c *Container) IsInvalidated(p schema.PropertyID) bool {
	prop := c.state.ds.Property(p)
	if prop == nil {
		return false
	}
	if prop.Kind == schema.KindDataset {
		if d := c.dataset(p); d != nil {
			return d.invalidated
		}
		return false
	}
	if s := c.scalar(p); s != nil {
		return s.invalidated
	}
	return false
}
