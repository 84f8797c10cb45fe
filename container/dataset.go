package container

import (
	"fmt"

	"github.com/n-r-w/zfcore/rowid"
	"github.com/n-r-w/zfcore/schema"
	"github.com/n-r-w/zfcore/zferr"
)

// RowCount returns the number of rows currently in dataset d.
func (c *Container) RowCount(d schema.PropertyID) int {
	if mapped, ok := c.proxyMap(d); ok {
		return c.state.proxy.source.RowCount(mapped)
	}
	slot := c.dataset(d)
	if slot == nil {
		return 0
	}
	return len(slot.rows)
}

// RowIDAt returns the RowID of the row at position pos in dataset d, or
// InvalidRowID if pos is out of range.
func (c *Container) RowIDAt(d schema.PropertyID, pos int) rowid.RowID {
	if mapped, ok := c.proxyMap(d); ok {
		return c.state.proxy.source.RowIDAt(mapped, pos)
	}
	slot := c.dataset(d)
	if slot == nil || pos < 0 || pos >= len(slot.rows) {
		return rowid.InvalidRowID
	}
	return slot.rows[pos].id
}

// RowPosition returns the current position of id within dataset d, or -1
// if id is not present.
func (c *Container) RowPosition(d schema.PropertyID, id rowid.RowID) int {
	if mapped, ok := c.proxyMap(d); ok {
		return c.state.proxy.source.RowPosition(mapped, id)
	}
	slot := c.dataset(d)
	if slot == nil {
		return -1
	}
	if pos, ok := slot.rowIndex[id]; ok {
		return pos
	}
	return -1
}

// CellValue returns the raw value of dataset d's row id, column col.
func (c *Container) CellValue(d schema.PropertyID, id rowid.RowID, col int) (any, error) {
	if mapped, ok := c.proxyMap(d); ok {
		return c.state.proxy.source.CellValue(mapped, id, col)
	}
	slot := c.dataset(d)
	if slot == nil {
		return nil, fmt.Errorf("%w: property %d is not a dataset", zferr.ErrSchemaViolation, d)
	}
	pos, ok := slot.rowIndex[id]
	if !ok {
		return nil, fmt.Errorf("%w: row %s not present in dataset %d", zferr.ErrSchemaViolation, id, d)
	}
	if col < 0 || col >= len(slot.rows[pos].cells) {
		return nil, fmt.Errorf("%w: column %d out of range", zferr.ErrSchemaViolation, col)
	}
	return slot.rows[pos].cells[col], nil
}

// IsCellChanged reports whether cell (id, col) of dataset d has its
// write-tracking bit set — used by diff computation's per-side binary
// column policy (spec.md §4.7, "binary-typed columns ... trust the
// per-cell changed bit on the designated side").
func (c *Container) IsCellChanged(d schema.PropertyID, id rowid.RowID, col int) (bool, error) {
	if mapped, ok := c.proxyMap(d); ok {
		return c.state.proxy.source.IsCellChanged(mapped, id, col)
	}
	slot := c.dataset(d)
	if slot == nil {
		return false, fmt.Errorf("%w: property %d is not a dataset", zferr.ErrSchemaViolation, d)
	}
	pos, ok := slot.rowIndex[id]
	if !ok {
		return false, fmt.Errorf("%w: row %s not present in dataset %d", zferr.ErrSchemaViolation, id, d)
	}
	if col < 0 || col >= len(slot.rows[pos].cellChanged) {
		return false, fmt.Errorf("%w: column %d out of range", zferr.ErrSchemaViolation, col)
	}
	return slot.rows[pos].cellChanged[col], nil
}

// SetCellValue converts v to column col's declared type and stores it in
// dataset d's row id. Fires CellChanged unless d is blocked. If col is
// the dataset's Id column, the hash index for d is invalidated so the
// next lookup rebuilds it (spec.md §4.2).
func (c *Container) SetCellValue(d schema.PropertyID, id rowid.RowID, col int, v any) error {
	if mapped, ok := c.proxyMap(d); ok {
		return c.state.proxy.source.SetCellValue(mapped, id, col, v)
	}

	column := c.state.ds.Column(d, col)
	if column == nil {
		return fmt.Errorf("%w: dataset %d has no column %d", zferr.ErrSchemaViolation, d, col)
	}
	converted, err := convert(column.DataType, v)
	if err != nil {
		return err
	}

	c.detach()
	slot := c.dataset(d)
	pos, ok := slot.rowIndex[id]
	if !ok {
		return fmt.Errorf("%w: row %s not present in dataset %d", zferr.ErrSchemaViolation, id, d)
	}
	r := slot.rows[pos]
	old := r.cells[col]
	if valuesEqual(old, converted) {
		return nil
	}
	r.cells[col] = converted
	r.cellChanged[col] = true

	if column.Options.IsID {
		slot.hash = nil
		if newID, ok := rowid.RealFromValue(converted); ok && newID != r.id {
			delete(slot.rowIndex, r.id)
			r.id = newID
			slot.rowIndex[r.id] = pos
		}
	}

	c.emitCellChanged(d, id, col)
	return nil
}

// InsertRow appends a new row to dataset d. If the dataset has an Id
// column, the caller must set it via SetCellValue immediately after
// insert; until then the row is keyed only by its generated RowID.
// Returns the new row's id.
func (c *Container) InsertRow(d schema.PropertyID) (rowid.RowID, error) {
	return c.InsertRowAt(d, -1)
}

// InsertRowAt inserts a new row at position pos (or at the end if pos <
// 0 or pos >= current row count) and returns its generated RowID.
func (c *Container) InsertRowAt(d schema.PropertyID, pos int) (rowid.RowID, error) {
	if mapped, ok := c.proxyMap(d); ok {
		return c.state.proxy.source.InsertRowAt(mapped, pos)
	}

	prop := c.state.ds.Property(d)
	if prop == nil || prop.Kind != schema.KindDataset {
		return rowid.InvalidRowID, fmt.Errorf("%w: property %d is not a dataset", zferr.ErrSchemaViolation, d)
	}

	cells, err := defaultCells(prop)
	if err != nil {
		return rowid.InvalidRowID, err
	}

	c.detach()
	slot := c.dataset(d)
	if pos < 0 || pos > len(slot.rows) {
		pos = len(slot.rows)
	}

	id := slot.generator.Next()
	r := &row{id: id, cells: cells, cellChanged: make([]bool, len(prop.Columns))}

	slot.rows = append(slot.rows, nil)
	copy(slot.rows[pos+1:], slot.rows[pos:])
	slot.rows[pos] = r
	slot.initialized = true
	slot.hash = nil
	c.reindexFrom(slot, pos)

	c.emitRowInserted(d, id, pos)
	return id, nil
}

// defaultCells builds a newly inserted row's cell slice, converting each
// column's schema.DataProperty.Default to that column's data type, per
// spec.md §4.3 ("a newly inserted row is populated with each column's
// default"). A column with no Default leaves its cell nil.
func defaultCells(prop *schema.DataProperty) ([]any, error) {
	cells := make([]any, len(prop.Columns))
	for i := range prop.Columns {
		col := &prop.Columns[i]
		if col.Default == nil {
			continue
		}
		v, err := convert(col.DataType, col.Default)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: column %q default value: %w", prop.Name, col.Name, err)
		}
		cells[i] = v
	}
	return cells, nil
}

// RemoveRow deletes the row identified by id from dataset d. Fires
// RowAboutToRemove, then removes the row, then fires RowRemoved.
func (c *Container) RemoveRow(d schema.PropertyID, id rowid.RowID) error {
	if mapped, ok := c.proxyMap(d); ok {
		return c.state.proxy.source.RemoveRow(mapped, id)
	}

	slot := c.dataset(d)
	if slot == nil {
		return fmt.Errorf("%w: property %d is not a dataset", zferr.ErrSchemaViolation, d)
	}
	pos, ok := slot.rowIndex[id]
	if !ok {
		return fmt.Errorf("%w: row %s not present in dataset %d", zferr.ErrSchemaViolation, id, d)
	}

	c.detach()
	slot = c.dataset(d)
	pos = slot.rowIndex[id]

	c.emitRowAboutToRemove(d, id, pos)

	slot.rows = append(slot.rows[:pos], slot.rows[pos+1:]...)
	slot.hash = nil
	c.reindexFrom(slot, pos)

	c.emitRowRemoved(d, id, pos)
	return nil
}

// MoveRow relocates the row at position from to position to within
// dataset d, shifting rows in between. A no-op if from == to.
func (c *Container) MoveRow(d schema.PropertyID, from, to int) error {
	if mapped, ok := c.proxyMap(d); ok {
		return c.state.proxy.source.MoveRow(mapped, from, to)
	}

	c.detach()
	slot := c.dataset(d)
	if slot == nil {
		return fmt.Errorf("%w: property %d is not a dataset", zferr.ErrSchemaViolation, d)
	}
	if from < 0 || from >= len(slot.rows) || to < 0 || to >= len(slot.rows) {
		return fmt.Errorf("%w: row move index out of range", zferr.ErrSchemaViolation)
	}
	if from == to {
		return nil
	}

	r := slot.rows[from]
	slot.rows = append(slot.rows[:from], slot.rows[from+1:]...)
	slot.rows = append(slot.rows, nil)
	copy(slot.rows[to+1:], slot.rows[to:])
	slot.rows[to] = r
	slot.hash = nil
	c.reindexFrom(slot, min(from, to))
	return nil
}

// ResetDataset clears every row of dataset d. Fires ModelAboutToReset,
// then ModelReset.
func (c *Container) ResetDataset(d schema.PropertyID) error {
	if mapped, ok := c.proxyMap(d); ok {
		return c.state.proxy.source.ResetDataset(mapped)
	}

	slot := c.dataset(d)
	if slot == nil {
		return fmt.Errorf("%w: property %d is not a dataset", zferr.ErrSchemaViolation, d)
	}

	c.detach()
	slot = c.dataset(d)
	blocked := c.isPropertyBlocked(d)
	if !blocked {
		for _, l := range c.snapshot() {
			l.ModelAboutToReset(d)
		}
	}
	slot.rows = nil
	slot.rowIndex = make(map[rowid.RowID]int)
	slot.hash = nil
	slot.initialized = true
	if !blocked {
		for _, l := range c.snapshot() {
			l.ModelReset(d)
		}
	}
	return nil
}

func (c *Container) reindexFrom(slot *datasetSlot, from int) {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(slot.rows); i++ {
		slot.rowIndex[slot.rows[i].id] = i
	}
}

// HashIndex returns (building it on demand if necessary) the hash index
// for dataset d keyed by the given key columns, so row lookups by key
// value run in O(1) instead of scanning every row. caseInsensitive must
// have one entry per key column.
func (c *Container) HashIndex(d schema.PropertyID, keyColumns []int, caseInsensitive []bool) (*rowid.DataHashed, error) {
	slot := c.dataset(d)
	if slot == nil {
		return nil, fmt.Errorf("%w: property %d is not a dataset", zferr.ErrSchemaViolation, d)
	}
	if slot.hash != nil {
		return slot.hash, nil
	}

	h := rowid.NewDataHashed(caseInsensitive)
	for _, r := range slot.rows {
		values := make([]rowid.KeyValue, len(keyColumns))
		for i, col := range keyColumns {
			values[i] = cellToKeyValue(r.cells[col])
		}
		h.Put(r.id, values)
	}
	slot.hash = h
	return h, nil
}

func cellToKeyValue(v any) rowid.KeyValue {
	switch t := v.(type) {
	case string:
		return rowid.StringKey(t)
	case int64:
		return rowid.IntKey(t)
	case int:
		return rowid.IntKey(int64(t))
	default:
		return rowid.StringKey(fmt.Sprintf("%v", t))
	}
}
