package container

import (
	"fmt"
	"reflect"

	"github.com/n-r-w/zfcore/schema"
	"github.com/n-r-w/zfcore/zferr"
)

// valuesEqual compares two scalar values safely even when one holds an
// uncomparable type such as []byte, where Go's == operator would panic.
func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// anyLanguage is the sentinel passed to SetValue/Value to mean "the
// container's current default language", per spec.md §4.3.
const anyLanguage = ""

// DefaultLanguage returns the language scalar reads/writes use when the
// caller passes no explicit language. In proxy mode this forwards to the
// source container.
func (c *Container) DefaultLanguage() string {
	if c.state.proxy != nil {
		return c.state.proxy.source.DefaultLanguage()
	}
	return c.state.defaultLanguage
}

// SetDefaultLanguage changes the language used for "any language" reads
// and writes.
func (c *Container) SetDefaultLanguage(lang string) {
	c.detach()
	c.state.defaultLanguage = lang
}

// Value returns the current value of property p in the given language
// (pass "" for the default language). Returns nil if p is uninitialized;
// an unknown or non-scalar p gives an ErrSchemaViolation error.
func (c *Container) Value(p schema.PropertyID, language string) (any, error) {
	if mapped, ok := c.proxyMap(p); ok {
		return c.state.proxy.source.Value(mapped, language)
	}

	prop := c.state.ds.Property(p)
	if prop == nil || (prop.Kind != schema.KindField && prop.Kind != schema.KindEntity) {
		return nil, fmt.Errorf("%w: property %d is not a scalar", zferr.ErrSchemaViolation, p)
	}
	s := c.scalar(p)
	if s == nil || !s.initialized {
		return nil, nil
	}
	lang := language
	if !prop.Options.MultiLanguage {
		lang = anyLanguage
	} else if lang == anyLanguage {
		lang = c.DefaultLanguage()
	}
	return s.values[lang], nil
}

// SetValue converts v to property p's declared data type and stores it
// under language (pass "" for the default language, or for a
// non-multi-language property). On success it propagates same-property
// mirroring and data-source-priority links and, unless p is blocked,
// emits PropertyChanged.
func (c *Container) SetValue(p schema.PropertyID, v any, language string) error {
	prop := c.state.ds.Property(p)
	if prop == nil || (prop.Kind != schema.KindField && prop.Kind != schema.KindEntity) {
		return fmt.Errorf("%w: property %d is not a scalar", zferr.ErrSchemaViolation, p)
	}

	if mapped, ok := c.proxyMap(p); ok {
		return c.state.proxy.source.SetValue(mapped, v, language)
	}

	converted, err := convert(prop.DataType, v)
	if err != nil {
		return err
	}

	return c.setValueConverted(p, converted, language, true)
}

// setValueConverted writes an already-converted value, used both by
// SetValue (direct=true, a caller-driven write) and by internal
// propagation — same-group mirroring and DSP recomputation (direct=false)
// — so those paths never re-run type conversion and never themselves
// count as the property diverging from its same-group followers.
func (c *Container) setValueConverted(p schema.PropertyID, converted any, language string, direct bool) error {
	c.detach()

	prop := c.state.ds.Property(p)
	lang := language
	if !prop.Options.MultiLanguage {
		lang = anyLanguage
	} else if lang == anyLanguage {
		lang = c.DefaultLanguage()
	}

	s := c.scalar(p)
	oldValue, hadOld := s.values[lang]
	changed := !hadOld || !valuesEqual(oldValue, converted)

	wasInitialized := s.initialized
	s.values[lang] = converted
	s.initialized = true
	s.changed = true
	s.invalidated = false
	if direct {
		s.directlySet = true
	}

	if !wasInitialized {
		c.emitPropertyInitialized(p)
	}
	if changed {
		c.emitPropertyChanged(p, lang)
		c.propagateSameGroup(p, converted, lang)
		c.propagateDSP(p)
	}
	return nil
}

// InitValue marks property p initialized with value v without requiring
// a prior value, firing exactly one PropertyInitialized even if called
// twice in a row (spec.md §8 invariant 1).
func (c *Container) InitValue(p schema.PropertyID, v any, language string) error {
	s := c.scalar(p)
	if s == nil {
		return fmt.Errorf("%w: property %d is not a scalar", zferr.ErrSchemaViolation, p)
	}
	if s.initialized {
		return nil
	}
	return c.SetValue(p, v, language)
}

// Uninitialize clears property p back to the uninitialized state,
// firing PropertyUninitialized if it was previously initialized.
func (c *Container) Uninitialize(p schema.PropertyID) {
	c.detach()
	s := c.scalar(p)
	if s == nil || !s.initialized {
		return
	}
	s.initialized = false
	s.changed = false
	s.directlySet = false
	s.values = make(map[string]any, 1)
	c.emitPropertyUninitialized(p)
}

// IsInitialized reports whether property p currently holds a value.
func (c *Container) IsInitialized(p schema.PropertyID) bool {
	if mapped, ok := c.proxyMap(p); ok {
		return c.state.proxy.source.IsInitialized(mapped)
	}
	if s := c.scalar(p); s != nil {
		return s.initialized
	}
	if d := c.dataset(p); d != nil {
		return d.initialized
	}
	return false
}

// IsChanged reports whether property p was written since it was last
// marked clean (entity.Model reads this bit to tell dirty properties
// from clean ones).
func (c *Container) IsChanged(p schema.PropertyID) bool {
	if s := c.scalar(p); s != nil {
		return s.changed
	}
	return false
}

// ClearChanged resets property p's write-tracking bit without touching
// its value.
func (c *Container) ClearChanged(p schema.PropertyID) {
	c.detach()
	if s := c.scalar(p); s != nil {
		s.changed = false
	}
}

// propagateSameGroup mirrors a write to every other member of p's
// same-property group that has never itself been directly set, per
// spec.md §4.3 and §8 invariant 5. A member that still holds whatever
// the group last mirrored into it (including its initial, never-set
// null) keeps following; the moment a caller sets a member's value
// directly, that member diverges and is permanently excluded from
// future mirrors — though it can still act as a source and mirror its
// own writes into the members still following. Re-entrancy through the
// propagatingSame set prevents infinite mutual propagation.
func (c *Container) propagateSameGroup(p schema.PropertyID, newValue any, language string) {
	group := c.state.ds.SameGroupFor(p)
	if group == nil || c.state.propagatingSame[p] {
		return
	}
	c.state.propagatingSame[p] = true
	defer delete(c.state.propagatingSame, p)

	for _, member := range group.Properties {
		if member == p {
			continue
		}
		s := c.scalar(member)
		if s == nil || s.directlySet {
			continue
		}
		_ = c.setValueConverted(member, newValue, language, false)
	}
}

// propagateDSP recomputes every data-source-priority target whose
// source list includes p, per spec.md §4.3 and §8 invariant 6. Guarded
// against re-entrancy and deferrable via BeginDSPBatch/EndDSPBatch.
func (c *Container) propagateDSP(p schema.PropertyID) {
	for _, target := range c.state.ds.DataSourcePriorities() {
		isSource := false
		for _, src := range target.Sources {
			if src == p {
				isSource = true
				break
			}
		}
		if !isSource {
			continue
		}
		if c.state.dspBatchDepth > 0 {
			c.state.deferredDSP[target.Target] = true
			continue
		}
		c.recomputeDSP(target.Target)
	}
}

func (c *Container) recomputeDSP(target schema.PropertyID) {
	if c.state.propagatingDSP[target] {
		return
	}
	link := c.state.ds.DSPFor(target)
	if link == nil {
		return
	}
	c.state.propagatingDSP[target] = true
	defer delete(c.state.propagatingDSP, target)

	var chosen any
	for _, src := range link.Sources {
		v, _ := c.Value(src, anyLanguage)
		if v != nil {
			chosen = v
			break
		}
	}
	_ = c.setValueConverted(target, chosen, anyLanguage, false)
}

// BeginDSPBatch defers data-source-priority recomputation until a
// matching EndDSPBatch, coalescing multiple source writes into one
// recompute per target.
func (c *Container) BeginDSPBatch() {
	c.detach()
	c.state.dspBatchDepth++
}

// EndDSPBatch releases one BeginDSPBatch acquisition. On the outermost
// release, every target deferred during the batch is recomputed once.
func (c *Container) EndDSPBatch() {
	c.detach()
	if c.state.dspBatchDepth == 0 {
		return
	}
	c.state.dspBatchDepth--
	if c.state.dspBatchDepth > 0 {
		return
	}
	pending := c.state.deferredDSP
	c.state.deferredDSP = make(map[schema.PropertyID]bool)
	for target := range pending {
		c.recomputeDSP(target)
	}
}
