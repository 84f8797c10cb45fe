package highlight

import (
	"fmt"
	"strings"

	"github.com/n-r-w/zfcore/rowid"
	"github.com/n-r-w/zfcore/schema"
)

// checkKeyUniqueness groups dataset id's rows by keyValuesToUniqueString
// over the dataset's key columns (schema.KeyColumnPositions) and reports
// one Error-severity item for each non-empty key shared by two or more
// rows.
func (p *Processor) checkKeyUniqueness(id schema.PropertyID, prop *schema.DataProperty) []HighlightItem {
	cols := p.ds.KeyColumnPositions(id)
	if len(cols) == 0 {
		return nil
	}

	n := p.source.RowCount(id)
	byKey := make(map[string][]rowid.RowID, n)
	var order []string
	for row := 0; row < n; row++ {
		rid := p.source.RowIDAt(id, row)
		values := make([]any, len(cols))
		for i, col := range cols {
			v, _ := p.source.CellValue(id, rid, col)
			values[i] = v
		}
		key := keyValuesToUniqueString(values)
		if key == "" {
			continue // empty key disables the check for this row
		}
		if _, seen := byKey[key]; !seen {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], rid)
	}

	var items []HighlightItem
	for _, key := range order {
		ids := byKey[key]
		if len(ids) < 2 {
			continue
		}
		items = append(items, HighlightItem{
			Property: id,
			Kind:     KindKeyUnique,
			Severity: Error,
			Message:  fmt.Sprintf("duplicate key %q across %d rows", key, len(ids)),
		})
	}
	return items
}

// keyValuesToUniqueString joins a row's key-column values into one
// string for collision detection. Any nil or empty-string component
// disables the check for that row (returns "").
func keyValuesToUniqueString(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			return ""
		}
		s := fmt.Sprintf("%v", v)
		if s == "" {
			return ""
		}
		parts[i] = s
	}
	return strings.Join(parts, "\x1f")
}
