package highlight

import "github.com/n-r-w/zfcore/schema"

// Model maps each property to its current ordered list of diagnostic
// items. Replacement is atomic per property: Set discards whatever the
// property held before in one step.
type Model struct {
	items map[schema.PropertyID][]HighlightItem
}

// NewModel returns an empty Model.
func NewModel() *Model {
	return &Model{items: make(map[schema.PropertyID][]HighlightItem)}
}

// Items returns property p's current diagnostics, in the order they
// were produced. Returns nil if p has none.
func (m *Model) Items(p schema.PropertyID) []HighlightItem {
	return m.items[p]
}

// Set atomically replaces property p's diagnostics.
func (m *Model) Set(p schema.PropertyID, items []HighlightItem) {
	if len(items) == 0 {
		delete(m.items, p)
		return
	}
	m.items[p] = items
}

// Clear removes every diagnostic for property p.
func (m *Model) Clear(p schema.PropertyID) {
	delete(m.items, p)
}

// WorstSeverity returns the highest Severity among property p's current
// items, and whether it has any items at all.
func (m *Model) WorstSeverity(p schema.PropertyID) (Severity, bool) {
	items := m.items[p]
	if len(items) == 0 {
		return Info, false
	}
	worst := items[0].Severity
	for _, it := range items[1:] {
		if it.Severity > worst {
			worst = it.Severity
		}
	}
	return worst, true
}

// Properties enumerates every property currently carrying at least one
// diagnostic.
func (m *Model) Properties() []schema.PropertyID {
	out := make([]schema.PropertyID, 0, len(m.items))
	for p := range m.items {
		out = append(out, p)
	}
	return out
}
