package dataobject

import "github.com/n-r-w/zfcore/rowid"

// TrackingID accumulates the three disjoint row-level change sets one
// dataset accrues between two points in its edit history: rows inserted
// since the last reset, rows removed, and the set of (row, column)
// cells modified on rows that were neither inserted nor removed in that
// same window.
//
// Updates must be applied in the order the container actually emits
// them — cell-change, then row-insert, then row-about-to-remove —
// because handling a removal needs to see whether the row was already
// in the New set before the row disappears.
type TrackingID struct {
	newRows      map[rowid.RowID]bool
	removedRows  map[rowid.RowID]bool
	modifiedCell map[rowid.RowID]map[int]bool
}

// NewTrackingID returns an empty TrackingID.
func NewTrackingID() *TrackingID {
	return &TrackingID{
		newRows:      make(map[rowid.RowID]bool),
		removedRows:  make(map[rowid.RowID]bool),
		modifiedCell: make(map[rowid.RowID]map[int]bool),
	}
}

// Reset clears all three sets, starting a fresh tracking window.
func (t *TrackingID) Reset() {
	t.newRows = make(map[rowid.RowID]bool)
	t.removedRows = make(map[rowid.RowID]bool)
	t.modifiedCell = make(map[rowid.RowID]map[int]bool)
}

// onCellChanged records that column col of row id was written. A no-op
// for rows already tracked as new (their entire content is new, not
// incrementally "modified") or already removed.
func (t *TrackingID) onCellChanged(id rowid.RowID, col int) {
	if t.newRows[id] || t.removedRows[id] {
		return
	}
	cols, ok := t.modifiedCell[id]
	if !ok {
		cols = make(map[int]bool)
		t.modifiedCell[id] = cols
	}
	cols[col] = true
}

// onRowInserted records a freshly inserted row.
func (t *TrackingID) onRowInserted(id rowid.RowID) {
	t.newRows[id] = true
	delete(t.modifiedCell, id)
}

// onRowAboutToRemove must run before the row actually disappears from
// the container, so it can tell whether id was ever persisted. A row
// that was only ever New (never saved) simply stops being tracked at
// all; a row that pre-existed is moved to the Removed set.
func (t *TrackingID) onRowAboutToRemove(id rowid.RowID) {
	delete(t.modifiedCell, id)
	if t.newRows[id] {
		delete(t.newRows, id)
		return
	}
	t.removedRows[id] = true
}

// NewRows returns every row inserted since the last reset.
func (t *TrackingID) NewRows() []rowid.RowID {
	return keys(t.newRows)
}

// RemovedRows returns every previously-persisted row removed since the
// last reset.
func (t *TrackingID) RemovedRows() []rowid.RowID {
	return keys(t.removedRows)
}

// ModifiedCells returns, for every row with at least one tracked
// modified cell, the set of modified column positions.
func (t *TrackingID) ModifiedCells() map[rowid.RowID][]int {
	out := make(map[rowid.RowID][]int, len(t.modifiedCell))
	for id, cols := range t.modifiedCell {
		out[id] = keys(cols)
	}
	return out
}

// IsEmpty reports whether all three sets are empty.
func (t *TrackingID) IsEmpty() bool {
	return len(t.newRows) == 0 && len(t.removedRows) == 0 && len(t.modifiedCell) == 0
}

func keys[K comparable](m map[K]bool) []K {
	if len(m) == 0 {
		return nil
	}
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
