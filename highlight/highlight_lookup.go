package highlight

import (
	"fmt"

	"github.com/n-r-w/zfcore/schema"
)

// checkLookup flags a Field or Dataset cell whose raw value does not
// resolve against its PropertyLookup. Only LookupList is checked here:
// it resolves inline from Names, so the check is synchronous and free
// of I/O. LookupDataset resolves through a collaborator round-trip
// (spec.md §6) and is out of scope for an automatic, synchronous check;
// a caller that needs it validated wires a manual hook instead.
func (p *Processor) checkLookup(id schema.PropertyID, prop *schema.DataProperty) []HighlightItem {
	switch prop.Kind {
	case schema.KindField, schema.KindEntity:
		return p.checkFieldLookup(id, prop)
	case schema.KindDataset:
		return p.checkColumnsLookup(id, prop)
	default:
		return nil
	}
}

func (p *Processor) checkFieldLookup(id schema.PropertyID, prop *schema.DataProperty) []HighlightItem {
	if prop.Lookup == nil || prop.Lookup.Kind != schema.LookupList {
		return nil
	}
	v, _ := p.source.Value(id, "")
	if item, out := lookupViolation(id, prop.Name, "", v, prop.Lookup.Names); out {
		return []HighlightItem{item}
	}
	return nil
}

func (p *Processor) checkColumnsLookup(id schema.PropertyID, prop *schema.DataProperty) []HighlightItem {
	var items []HighlightItem
	n := p.source.RowCount(id)
	for col := range prop.Columns {
		c := &prop.Columns[col]
		if c.Lookup == nil || c.Lookup.Kind != schema.LookupList {
			continue
		}
		for row := 0; row < n; row++ {
			rid := p.source.RowIDAt(id, row)
			v, _ := p.source.CellValue(id, rid, col)
			if item, out := lookupViolation(id, c.Name, rid.String(), v, c.Lookup.Names); out {
				items = append(items, item)
			}
		}
	}
	return items
}

func lookupViolation(id schema.PropertyID, name, rowLabel string, v any, names []string) (HighlightItem, bool) {
	if v == nil {
		return HighlightItem{}, false
	}
	idx, ok := asFloat64(v)
	if !ok || idx < 0 || int(idx) >= len(names) || idx != float64(int(idx)) {
		msg := fmt.Sprintf("%s: %v does not resolve in its lookup", name, v)
		if rowLabel != "" {
			msg = fmt.Sprintf("row %s: %s", rowLabel, msg)
		}
		return HighlightItem{Property: id, Kind: KindLookup, Severity: Error, Message: msg}, true
	}
	return HighlightItem{}, false
}
