package highlight

import (
	"fmt"

	"github.com/n-r-w/zfcore/schema"
)

// checkEnum flags a string Field or Dataset cell whose value is not one
// of its Constraint.Enum entries. A nil or uninitialized value is left
// to checkRequired; an empty Enum list disables the check.
func (p *Processor) checkEnum(id schema.PropertyID, prop *schema.DataProperty) []HighlightItem {
	switch prop.Kind {
	case schema.KindField, schema.KindEntity:
		return p.checkFieldEnum(id, prop)
	case schema.KindDataset:
		return p.checkColumnsEnum(id, prop)
	default:
		return nil
	}
}

func (p *Processor) checkFieldEnum(id schema.PropertyID, prop *schema.DataProperty) []HighlightItem {
	if prop.Constraint == nil || len(prop.Constraint.Enum) == 0 {
		return nil
	}
	v, _ := p.source.Value(id, "")
	if item, out := enumViolation(id, prop.Name, "", v, prop.Constraint.Enum); out {
		return []HighlightItem{item}
	}
	return nil
}

func (p *Processor) checkColumnsEnum(id schema.PropertyID, prop *schema.DataProperty) []HighlightItem {
	var items []HighlightItem
	n := p.source.RowCount(id)
	for col := range prop.Columns {
		c := &prop.Columns[col]
		if c.Constraint == nil || len(c.Constraint.Enum) == 0 {
			continue
		}
		for row := 0; row < n; row++ {
			rid := p.source.RowIDAt(id, row)
			v, _ := p.source.CellValue(id, rid, col)
			if item, out := enumViolation(id, c.Name, rid.String(), v, c.Constraint.Enum); out {
				items = append(items, item)
			}
		}
	}
	return items
}

func enumViolation(id schema.PropertyID, name, rowLabel string, v any, allowed []string) (HighlightItem, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return HighlightItem{}, false
	}
	for _, a := range allowed {
		if a == s {
			return HighlightItem{}, false
		}
	}
	msg := fmt.Sprintf("%s: %q is not one of %v", name, s, allowed)
	if rowLabel != "" {
		msg = fmt.Sprintf("row %s: %s", rowLabel, msg)
	}
	return HighlightItem{Property: id, Kind: KindEnum, Severity: Error, Message: msg}, true
}
