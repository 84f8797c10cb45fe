package highlight

import (
	"fmt"

	"github.com/n-r-w/zfcore/schema"
)

// checkRequired flags a Field left uninitialized, or a Dataset cell
// holding nil or an empty string, wherever the schema marks the
// property (or one of its columns) Constraint.Required.
func (p *Processor) checkRequired(id schema.PropertyID, prop *schema.DataProperty) []HighlightItem {
	switch prop.Kind {
	case schema.KindField, schema.KindEntity:
		return p.checkFieldRequired(id, prop)
	case schema.KindDataset:
		return p.checkColumnsRequired(id, prop)
	default:
		return nil
	}
}

func (p *Processor) checkFieldRequired(id schema.PropertyID, prop *schema.DataProperty) []HighlightItem {
	if prop.Constraint == nil || !prop.Constraint.Required {
		return nil
	}
	if !p.source.IsInitialized(id) {
		return []HighlightItem{requiredItem(id, prop.Name, "")}
	}
	v, _ := p.source.Value(id, "")
	if isEmptyValue(v) {
		return []HighlightItem{requiredItem(id, prop.Name, "")}
	}
	return nil
}

func (p *Processor) checkColumnsRequired(id schema.PropertyID, prop *schema.DataProperty) []HighlightItem {
	var items []HighlightItem
	n := p.source.RowCount(id)
	for col := range prop.Columns {
		c := &prop.Columns[col]
		if c.Constraint == nil || !c.Constraint.Required {
			continue
		}
		for row := 0; row < n; row++ {
			rid := p.source.RowIDAt(id, row)
			v, _ := p.source.CellValue(id, rid, col)
			if isEmptyValue(v) {
				items = append(items, requiredItem(id, c.Name, rid.String()))
			}
		}
	}
	return items
}

func requiredItem(id schema.PropertyID, name, rowLabel string) HighlightItem {
	msg := fmt.Sprintf("%s is required", name)
	if rowLabel != "" {
		msg = fmt.Sprintf("row %s: %s", rowLabel, msg)
	}
	return HighlightItem{Property: id, Kind: KindRequired, Severity: Error, Message: msg}
}

// isEmptyValue reports whether v counts as "missing" for a Required
// constraint: nil, or the empty string.
func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
