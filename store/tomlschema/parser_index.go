package tomlschema

import (
	"fmt"
	"strings"

	"github.com/n-r-w/zfcore/store/ddl"
)

func convertTableIndex(ti *tomlIndex) (*ddl.Index, error) {
	idx := &ddl.Index{
		Name:    ti.Name,
		Unique:  ti.Unique,
		Comment: ti.Comment,
	}

	if ti.Type != "" {
		idx.Type = ddl.IndexType(ti.Type)
	} else {
		idx.Type = ddl.IndexTypeBTree
	}

	if ti.Visibility != "" {
		idx.Visibility = ddl.IndexVisibility(ti.Visibility)
	} else {
		idx.Visibility = ddl.IndexVisible
	}

	idx.Columns = mergeColumnIndexes(ti)

	if len(idx.Columns) == 0 {
		name := ti.Name
		if name == "" {
			name = "(unnamed)"
		}
		return nil, fmt.Errorf("index %s has no columns", name)
	}

	return idx, nil
}

func mergeColumnIndexes(ti *tomlIndex) []ddl.ColumnIndex {
	if len(ti.ColumnDefs) > 0 {
		cols := make([]ddl.ColumnIndex, 0, len(ti.ColumnDefs))
		for i := range ti.ColumnDefs {
			cols = append(cols, convertColumnIndex(&ti.ColumnDefs[i]))
		}
		return cols
	}

	if len(ti.Columns) > 0 {
		cols := make([]ddl.ColumnIndex, 0, len(ti.Columns))
		for _, name := range ti.Columns {
			cols = append(cols, ddl.ColumnIndex{
				Name:  name,
				Order: ddl.SortAsc,
			})
		}
		return cols
	}

	return nil
}

func convertColumnIndex(tc *tomlColumnIndex) ddl.ColumnIndex {
	ic := ddl.ColumnIndex{
		Name:   tc.Name,
		Length: tc.Length,
	}

	if tc.Order != "" {
		ic.Order = ddl.SortOrder(tc.Order)
	} else {
		ic.Order = ddl.SortAsc
	}

	return ic
}

// validateIndexes checks for duplicate names and verifies that every index
// column references an existing table column.
func validateIndexes(table *ddl.Table) error {
	seen := make(map[string]bool, len(table.Indexes))
	for _, idx := range table.Indexes {
		if idx.Name == "" {
			continue
		}
		lower := strings.ToLower(idx.Name)
		if seen[lower] {
			return fmt.Errorf("duplicate index name %q", idx.Name)
		}
		seen[lower] = true
	}

	for _, idx := range table.Indexes {
		for _, ic := range idx.Columns {
			if table.FindColumn(ic.Name) == nil {
				return fmt.Errorf("index %q references nonexistent column %q", idx.Name, ic.Name)
			}
		}
	}

	return nil
}
