package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n-r-w/zfcore/rowid"
	"github.com/n-r-w/zfcore/schema"
)

func buildTestSchema(t *testing.T) (*schema.DataStructure, schema.PropertyID, schema.PropertyID, schema.PropertyID) {
	t.Helper()
	b := schema.NewBuilder("test", 1)
	name := b.AddField("name", schema.DataTypeString, schema.Options{})
	ordersID := b.AddDataset("orders", []schema.ColumnSpec{
		{Name: "id", DataType: schema.DataTypeInt, Options: schema.Options{IsID: true}},
		{Name: "total", DataType: schema.DataTypeNumeric},
	})
	age := b.AddField("age", schema.DataTypeInt, schema.Options{})
	ds, err := b.Build()
	require.NoError(t, err)
	return ds, name, ordersID, age
}

type recordingListener struct {
	NopListener
	initialized   []schema.PropertyID
	uninitialized []schema.PropertyID
	changed       []schema.PropertyID
	allUnblocked  int
}

func (l *recordingListener) PropertyInitialized(p schema.PropertyID) {
	l.initialized = append(l.initialized, p)
}
func (l *recordingListener) PropertyUninitialized(p schema.PropertyID) {
	l.uninitialized = append(l.uninitialized, p)
}
func (l *recordingListener) PropertyChanged(p schema.PropertyID, _ string) {
	l.changed = append(l.changed, p)
}
func (l *recordingListener) AllUnblocked() { l.allUnblocked++ }

func TestIdempotentInitialization(t *testing.T) {
	ds, name, _, _ := buildTestSchema(t)
	c := New(ds)
	rec := &recordingListener{}
	c.AddListener(rec)

	require.NoError(t, c.InitValue(name, "alice", ""))
	require.NoError(t, c.InitValue(name, "bob", ""))

	assert.Len(t, rec.initialized, 1, "InitValue called twice must fire PropertyInitialized once")
	v, err := c.Value(name, "")
	require.NoError(t, err)
	assert.Equal(t, "alice", v, "second InitValue on an already-initialized property is a no-op")
}

func TestBlockingQuiescence(t *testing.T) {
	ds, name, _, age := buildTestSchema(t)
	c := New(ds)
	require.NoError(t, c.SetValue(name, "alice", ""))
	require.NoError(t, c.SetValue(age, "30", ""))

	rec := &recordingListener{}
	c.AddListener(rec)

	c.BlockAllProperties()
	require.NoError(t, c.SetValue(name, "bob", ""))
	require.NoError(t, c.SetValue(age, "31", ""))
	assert.Empty(t, rec.changed, "no per-property signals while blocked")

	c.UnblockAllProperties()
	assert.Equal(t, 1, rec.allUnblocked)
	assert.ElementsMatch(t, []schema.PropertyID{name, age}, rec.changed, "exactly one catch-up PropertyChanged per initialized property")
}

// TestSameGroupMirrorLaw walks the three-step scenario from spec.md §4:
// two never-set fields in one same-group start out mirroring each other,
// but the first direct write to either one makes it independent forever
// after, even though its value still happens to equal the group's.
func TestSameGroupMirrorLaw(t *testing.T) {
	b := schema.NewBuilder("test", 1)
	f1 := b.AddField("f1", schema.DataTypeString, schema.Options{})
	f2 := b.AddField("f2", schema.DataTypeString, schema.Options{})
	b.AddSameGroup(f1, f2)
	ds, err := b.Build()
	require.NoError(t, err)

	c := New(ds)
	require.NoError(t, c.SetValue(f1, "x", ""))
	v2, _ := c.Value(f2, "")
	assert.Equal(t, "x", v2, "f2 has never been directly set, so it still follows f1")

	require.NoError(t, c.SetValue(f2, "y", ""))
	v1, _ := c.Value(f1, "")
	assert.Equal(t, "x", v1, "f1 was directly set in step one, so it no longer follows f2")

	require.NoError(t, c.SetValue(f1, "z", ""))
	v2, _ = c.Value(f2, "")
	assert.Equal(t, "y", v2, "f2 was directly set in step two, so it no longer follows f1 either")
}

// TestSameGroupDivergenceSurvivesCoincidentalEquality guards against a
// same-value coincidence being mistaken for still-following: a member
// that was directly set must stay independent even when its value
// happens to match what the group would have mirrored into it anyway.
func TestSameGroupDivergenceSurvivesCoincidentalEquality(t *testing.T) {
	b := schema.NewBuilder("test", 1)
	f1 := b.AddField("f1", schema.DataTypeString, schema.Options{})
	f2 := b.AddField("f2", schema.DataTypeString, schema.Options{})
	b.AddSameGroup(f1, f2)
	ds, err := b.Build()
	require.NoError(t, err)

	c := New(ds)
	require.NoError(t, c.SetValue(f2, "x", ""))
	v1, _ := c.Value(f1, "")
	assert.Equal(t, "x", v1, "f1 has never been directly set, so it mirrors f2's first value")

	require.NoError(t, c.SetValue(f1, "q", ""))
	v2, _ := c.Value(f2, "")
	assert.Equal(t, "x", v2, "f2 was directly set, so f1's write does not reach it even though f1's old value equaled f2's current one")
}

func TestDSPLaw(t *testing.T) {
	b := schema.NewBuilder("test", 1)
	s1 := b.AddField("s1", schema.DataTypeString, schema.Options{})
	s2 := b.AddField("s2", schema.DataTypeString, schema.Options{})
	s3 := b.AddField("s3", schema.DataTypeString, schema.Options{})
	target := b.AddField("target", schema.DataTypeString, schema.Options{})
	b.AddDSP(target, s1, s2, s3)
	ds, err := b.Build()
	require.NoError(t, err)

	c := New(ds)
	require.NoError(t, c.SetValue(s2, "from-s2", ""))
	v, _ := c.Value(target, "")
	assert.Equal(t, "from-s2", v, "s1 is null, s2 is the first non-null source")

	require.NoError(t, c.SetValue(s1, "from-s1", ""))
	v, _ = c.Value(target, "")
	assert.Equal(t, "from-s1", v, "s1 now takes priority")

	require.NoError(t, c.SetValue(s1, nil, ""))
	v, _ = c.Value(target, "")
	assert.Equal(t, "from-s2", v, "falls back to s2 once s1 clears")
}

func TestProxyTransparency(t *testing.T) {
	ds, name, _, _ := buildTestSchema(t)
	source := New(ds)
	proxy := New(ds)
	proxy.SetProxy(source, map[schema.PropertyID]schema.PropertyID{name: name})

	require.NoError(t, proxy.SetValue(name, "alice", ""))
	sv, _ := source.Value(name, "")
	assert.Equal(t, "alice", sv, "write on the proxy is observable on the source")

	require.NoError(t, source.SetValue(name, "bob", ""))
	pv, _ := proxy.Value(name, "")
	assert.Equal(t, "bob", pv, "proxy reads forward to the source")

	rec := &recordingListener{}
	proxy.AddListener(rec)
	require.NoError(t, source.SetValue(name, "carol", ""))
	assert.Contains(t, rec.changed, name, "source writes are re-emitted to the proxy's listeners remapped to its id space")
}

func TestCloneSharesUntilMutated(t *testing.T) {
	ds, name, _, _ := buildTestSchema(t)
	a := New(ds)
	require.NoError(t, a.SetValue(name, "alice", ""))

	b := a.Clone()
	v, _ := b.Value(name, "")
	assert.Equal(t, "alice", v, "clone shares storage")

	require.NoError(t, b.SetValue(name, "bob", ""))
	av, _ := a.Value(name, "")
	bv, _ := b.Value(name, "")
	assert.Equal(t, "alice", av, "mutating the clone detaches it from the original")
	assert.Equal(t, "bob", bv)
}

func TestDatasetRowLifecycle(t *testing.T) {
	ds, _, orders, _ := buildTestSchema(t)
	c := New(ds)

	rec := &recordingListener{}
	c.AddListener(rec)

	id, err := c.InsertRow(orders)
	require.NoError(t, err)
	assert.True(t, id.IsGenerated())
	assert.Equal(t, 1, c.RowCount(orders))

	// Writing the Id column recomputes the row's RowID to Real (spec.md
	// §8 scenario B) — the generated id used at insertion no longer
	// resolves, so subsequent access goes through the current RowIDAt.
	require.NoError(t, c.SetCellValue(orders, id, 0, 42))
	id = c.RowIDAt(orders, 0)
	assert.True(t, id.Kind() == rowid.Real)

	require.NoError(t, c.SetCellValue(orders, id, 1, "19.99"))

	v, err := c.CellValue(orders, id, 1)
	require.NoError(t, err)
	assert.Equal(t, 19.99, v)

	require.NoError(t, c.RemoveRow(orders, id))
	assert.Equal(t, 0, c.RowCount(orders))
}

// TestInsertRowFillsColumnDefaults covers spec.md §4.3's "a newly
// inserted row is populated with each column's default": a column with
// no Default starts nil, one with a Default is pre-filled and converted
// to the column's data type.
func TestInsertRowFillsColumnDefaults(t *testing.T) {
	b := schema.NewBuilder("test", 1)
	orders := b.AddDataset("orders", []schema.ColumnSpec{
		{Name: "id", DataType: schema.DataTypeInt, Options: schema.Options{IsID: true}},
		{Name: "status", DataType: schema.DataTypeString, Default: "pending"},
		{Name: "qty", DataType: schema.DataTypeInt, Default: "1"},
	})
	ds, err := b.Build()
	require.NoError(t, err)

	c := New(ds)
	id, err := c.InsertRow(orders)
	require.NoError(t, err)

	idVal, err := c.CellValue(orders, id, 0)
	require.NoError(t, err)
	assert.Nil(t, idVal, "column with no default starts nil")

	status, err := c.CellValue(orders, id, 1)
	require.NoError(t, err)
	assert.Equal(t, "pending", status)

	qty, err := c.CellValue(orders, id, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), qty, "default is converted to the column's declared data type")
}

// TestRowIDBecomesRealOnIdWrite covers spec.md §8 scenario B literally:
// writing a new Id value moves the row to a new real key and the old
// key's hash-index lookup returns empty.
func TestRowIDBecomesRealOnIdWrite(t *testing.T) {
	b := schema.NewBuilder("test", 1)
	orders := b.AddDataset("orders", []schema.ColumnSpec{
		{Name: "code", DataType: schema.DataTypeString, Options: schema.Options{IsID: true}},
	})
	ds, err := b.Build()
	require.NoError(t, err)
	c := New(ds)

	id, err := c.InsertRow(orders)
	require.NoError(t, err)
	require.NoError(t, c.SetCellValue(orders, id, 0, "R-1"))

	h, err := c.HashIndex(orders, []int{0}, []bool{false})
	require.NoError(t, err)
	_, found := h.LookupOne([]rowid.KeyValue{rowid.StringKey("R-1")})
	assert.True(t, found)

	current := c.RowIDAt(orders, 0)
	require.NoError(t, c.SetCellValue(orders, current, 0, "R-2"))

	h2, err := c.HashIndex(orders, []int{0}, []bool{false})
	require.NoError(t, err)
	_, foundOld := h2.LookupOne([]rowid.KeyValue{rowid.StringKey("R-1")})
	assert.False(t, foundOld, "the hash index no longer resolves the superseded key")
	_, foundNew := h2.LookupOne([]rowid.KeyValue{rowid.StringKey("R-2")})
	assert.True(t, foundNew)
}

func TestHashIndexCaseInsensitiveLookup(t *testing.T) {
	b := schema.NewBuilder("test", 1)
	orders := b.AddDataset("orders", []schema.ColumnSpec{
		{Name: "code", DataType: schema.DataTypeString, Options: schema.Options{IsID: true}},
	})
	ds, err := b.Build()
	require.NoError(t, err)

	c := New(ds)
	_, err = c.InsertRow(orders)
	require.NoError(t, err)
	require.NoError(t, c.SetCellValue(orders, c.RowIDAt(orders, 0), 0, "ABC"))
	id := c.RowIDAt(orders, 0)

	h, err := c.HashIndex(orders, []int{0}, []bool{true})
	require.NoError(t, err)
	got, ok := h.LookupOne([]rowid.KeyValue{rowid.StringKey("abc")})
	require.True(t, ok)
	assert.Equal(t, id, got)
}
