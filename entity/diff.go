package entity

import (
	"fmt"
	"reflect"

	"github.com/n-r-w/zfcore/container"
	"github.com/n-r-w/zfcore/rowid"
	"github.com/n-r-w/zfcore/schema"
	"github.com/n-r-w/zfcore/zferr"
)

func valuesEqual(a, b any) bool { return reflect.DeepEqual(a, b) }

// BinaryPolicy controls how findDiff treats Bytes/Image columns, whose
// equality is expensive to compute cell-by-cell.
type BinaryPolicy int

const (
	// BinaryIgnore treats every binary column as always changed.
	BinaryIgnore BinaryPolicy = iota
	// BinaryThisContainer trusts the write-tracking bit on self.
	BinaryThisContainer
	// BinaryOtherContainer trusts the write-tracking bit on other.
	BinaryOtherContainer
)

// DatasetDiff describes one dataset's divergence between two containers
// sharing the same schema.
type DatasetDiff struct {
	// NewRows are present only in self, with a generated (never real) key.
	NewRows []rowid.RowID
	// RemovedRows are present only in other, with a real key.
	RemovedRows []rowid.RowID
	// ChangedCells maps a row present in both (matched by real key) to
	// the column positions whose value differs.
	ChangedCells map[rowid.RowID][]int
}

func (d DatasetDiff) isEmpty() bool {
	return len(d.NewRows) == 0 && len(d.RemovedRows) == 0 && len(d.ChangedCells) == 0
}

// Diff is the full result of findDiff: per-dataset row/cell divergence
// plus the set of scalar properties whose values differ.
type Diff struct {
	Datasets       map[schema.PropertyID]DatasetDiff
	ChangedScalars []schema.PropertyID
}

// HasDiff reports whether d describes any divergence at all.
func (d Diff) HasDiff() bool {
	if len(d.ChangedScalars) > 0 {
		return true
	}
	for _, dd := range d.Datasets {
		if !dd.isEmpty() {
			return true
		}
	}
	return false
}

// FindDiff compares self against other, property by property, skipping
// anything in ignored. For datasets, new rows are those present only in
// self whose row-id is generated; removed rows are those present only in
// other whose row-id is real (a row present only in other with a
// generated key is a programming error — findDiff either fails or drops
// the row, per ignoreBadDatasets). Changed cells are computed over the
// real-key intersection. Binary-typed (Bytes/Image) columns are compared
// per policy instead of by value.
func FindDiff(self, other *container.Container, ds *schema.DataStructure, ignored map[schema.PropertyID]bool, policy BinaryPolicy, ignoreBadDatasets bool) (Diff, bool, error) {
	result := Diff{Datasets: make(map[schema.PropertyID]DatasetDiff)}

	for _, prop := range ds.Properties() {
		if ignored[prop.ID] {
			continue
		}
		if prop.Kind == schema.KindDataset {
			dd, err := diffDataset(self, other, ds, prop, policy, ignoreBadDatasets)
			if err != nil {
				return Diff{}, false, err
			}
			if !dd.isEmpty() {
				result.Datasets[prop.ID] = dd
			}
			continue
		}
		if !self.IsInitialized(prop.ID) && !other.IsInitialized(prop.ID) {
			continue
		}
		sv, _ := self.Value(prop.ID, "")
		ov, _ := other.Value(prop.ID, "")
		if !valuesEqual(sv, ov) {
			result.ChangedScalars = append(result.ChangedScalars, prop.ID)
		}
	}

	return result, result.HasDiff(), nil
}

func diffDataset(self, other *container.Container, ds *schema.DataStructure, prop *schema.DataProperty, policy BinaryPolicy, ignoreBadDatasets bool) (DatasetDiff, error) {
	selfReal := make(map[rowid.RowID]int)
	var newRows []rowid.RowID
	for i := 0; i < self.RowCount(prop.ID); i++ {
		id := self.RowIDAt(prop.ID, i)
		if id.IsGenerated() {
			newRows = append(newRows, id)
			continue
		}
		selfReal[id] = i
	}

	otherReal := make(map[rowid.RowID]int)
	for i := 0; i < other.RowCount(prop.ID); i++ {
		id := other.RowIDAt(prop.ID, i)
		if id.IsGenerated() {
			if ignoreBadDatasets {
				continue
			}
			return DatasetDiff{}, fmt.Errorf("%w: dataset %d has a generated row-id only present in other", zferr.ErrSchemaViolation, prop.ID)
		}
		otherReal[id] = i
	}

	var removedRows []rowid.RowID
	for id := range otherReal {
		if _, ok := selfReal[id]; !ok {
			removedRows = append(removedRows, id)
		}
	}

	changed := make(map[rowid.RowID][]int)
	for id := range selfReal {
		if _, ok := otherReal[id]; !ok {
			continue
		}
		var cols []int
		for col := range prop.Columns {
			diff, err := cellDiffers(self, other, prop.ID, id, col, &prop.Columns[col], policy)
			if err != nil {
				return DatasetDiff{}, err
			}
			if diff {
				cols = append(cols, col)
			}
		}
		if len(cols) > 0 {
			changed[id] = cols
		}
	}

	return DatasetDiff{NewRows: newRows, RemovedRows: removedRows, ChangedCells: changed}, nil
}

func cellDiffers(self, other *container.Container, d schema.PropertyID, id rowid.RowID, col int, column *schema.DataProperty, policy BinaryPolicy) (bool, error) {
	if column.DataType == schema.DataTypeBytes || column.DataType == schema.DataTypeImage {
		switch policy {
		case BinaryIgnore:
			return true, nil
		case BinaryThisContainer:
			return self.IsCellChanged(d, id, col)
		case BinaryOtherContainer:
			return other.IsCellChanged(d, id, col)
		}
	}

	sv, err := self.CellValue(d, id, col)
	if err != nil {
		return false, err
	}
	ov, err := other.CellValue(d, id, col)
	if err != nil {
		return false, err
	}
	return !valuesEqual(sv, ov), nil
}
