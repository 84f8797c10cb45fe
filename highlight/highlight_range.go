package highlight

import (
	"fmt"

	"github.com/n-r-w/zfcore/schema"
)

// checkRange flags a numeric Field or Dataset cell falling outside its
// Constraint.Min/Max bounds. Non-numeric values are left to checkEnum
// or the caller's own manual hook.
func (p *Processor) checkRange(id schema.PropertyID, prop *schema.DataProperty) []HighlightItem {
	switch prop.Kind {
	case schema.KindField, schema.KindEntity:
		return p.checkFieldRange(id, prop)
	case schema.KindDataset:
		return p.checkColumnsRange(id, prop)
	default:
		return nil
	}
}

func (p *Processor) checkFieldRange(id schema.PropertyID, prop *schema.DataProperty) []HighlightItem {
	if prop.Constraint == nil || (prop.Constraint.Min == nil && prop.Constraint.Max == nil) {
		return nil
	}
	v, _ := p.source.Value(id, "")
	if item, out := rangeViolation(id, prop.Name, "", v, *prop.Constraint); out {
		return []HighlightItem{item}
	}
	return nil
}

func (p *Processor) checkColumnsRange(id schema.PropertyID, prop *schema.DataProperty) []HighlightItem {
	var items []HighlightItem
	n := p.source.RowCount(id)
	for col := range prop.Columns {
		c := &prop.Columns[col]
		if c.Constraint == nil || (c.Constraint.Min == nil && c.Constraint.Max == nil) {
			continue
		}
		for row := 0; row < n; row++ {
			rid := p.source.RowIDAt(id, row)
			v, _ := p.source.CellValue(id, rid, col)
			if item, out := rangeViolation(id, c.Name, rid.String(), v, *c.Constraint); out {
				items = append(items, item)
			}
		}
	}
	return items
}

// rangeViolation reports whether v (if numeric) falls outside c's
// bounds, and if so the HighlightItem describing it.
func rangeViolation(id schema.PropertyID, name, rowLabel string, v any, c schema.Constraint) (HighlightItem, bool) {
	f, ok := asFloat64(v)
	if !ok {
		return HighlightItem{}, false
	}
	switch {
	case c.Min != nil && f < *c.Min:
		return rangeItem(id, name, rowLabel, fmt.Sprintf("%v is below the minimum of %v", v, *c.Min)), true
	case c.Max != nil && f > *c.Max:
		return rangeItem(id, name, rowLabel, fmt.Sprintf("%v is above the maximum of %v", v, *c.Max)), true
	default:
		return HighlightItem{}, false
	}
}

func rangeItem(id schema.PropertyID, name, rowLabel, detail string) HighlightItem {
	msg := fmt.Sprintf("%s: %s", name, detail)
	if rowLabel != "" {
		msg = fmt.Sprintf("row %s: %s", rowLabel, msg)
	}
	return HighlightItem{Property: id, Kind: KindRange, Severity: Error, Message: msg}
}

// asFloat64 widens any of the numeric representations convert() produces
// to float64 for bounds comparison.
func asFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}
