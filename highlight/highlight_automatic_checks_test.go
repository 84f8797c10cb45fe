package highlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n-r-w/zfcore/container"
	"github.com/n-r-w/zfcore/schema"
)

func ptrF(f float64) *float64 { return &f }

func TestAutomaticRequiredFlagsUninitializedField(t *testing.T) {
	b := schema.NewBuilder("test", 1)
	name := b.AddField("name", schema.DataTypeString, schema.Options{})
	b.SetConstraint(name, schema.Constraint{Required: true})
	ds, err := b.Build()
	require.NoError(t, err)

	c := container.New(ds)
	proc := NewProcessor(ds, c)
	proc.RegisterCheck(name)
	proc.ExecuteChecks()

	items := proc.Model().Items(name)
	require.Len(t, items, 1)
	assert.Equal(t, KindRequired, items[0].Kind)

	require.NoError(t, c.SetValue(name, "alice", ""))
	proc.RegisterCheck(name)
	proc.ExecuteChecks()
	assert.Nil(t, proc.Model().Items(name), "a non-empty value clears the required diagnostic")
}

func TestAutomaticRequiredFlagsEmptyCell(t *testing.T) {
	b := schema.NewBuilder("test", 1)
	orders := b.AddDataset("orders", []schema.ColumnSpec{
		{Name: "customer", DataType: schema.DataTypeString, Constraint: &schema.Constraint{Required: true}},
	})
	ds, err := b.Build()
	require.NoError(t, err)

	c := container.New(ds)
	rid, err := c.InsertRow(orders)
	require.NoError(t, err)

	proc := NewProcessor(ds, c)
	proc.RegisterCheck(orders)
	proc.ExecuteChecks()
	items := proc.Model().Items(orders)
	require.Len(t, items, 1)
	assert.Equal(t, KindRequired, items[0].Kind)

	require.NoError(t, c.SetCellValue(orders, rid, 0, "Acme"))
	proc.RegisterCheck(orders)
	proc.ExecuteChecks()
	assert.Nil(t, proc.Model().Items(orders))
}

func TestAutomaticRangeFlagsOutOfBoundsField(t *testing.T) {
	b := schema.NewBuilder("test", 1)
	age := b.AddField("age", schema.DataTypeInt, schema.Options{})
	b.SetConstraint(age, schema.Constraint{Min: ptrF(0), Max: ptrF(130)})
	ds, err := b.Build()
	require.NoError(t, err)

	c := container.New(ds)
	require.NoError(t, c.SetValue(age, "200", ""))

	proc := NewProcessor(ds, c)
	proc.RegisterCheck(age)
	proc.ExecuteChecks()
	items := proc.Model().Items(age)
	require.Len(t, items, 1)
	assert.Equal(t, KindRange, items[0].Kind)

	require.NoError(t, c.SetValue(age, "40", ""))
	proc.RegisterCheck(age)
	proc.ExecuteChecks()
	assert.Nil(t, proc.Model().Items(age))
}

func TestAutomaticEnumFlagsInvalidValue(t *testing.T) {
	b := schema.NewBuilder("test", 1)
	status := b.AddField("status", schema.DataTypeString, schema.Options{})
	b.SetConstraint(status, schema.Constraint{Enum: []string{"open", "closed"}})
	ds, err := b.Build()
	require.NoError(t, err)

	c := container.New(ds)
	require.NoError(t, c.SetValue(status, "pending", ""))

	proc := NewProcessor(ds, c)
	proc.RegisterCheck(status)
	proc.ExecuteChecks()
	items := proc.Model().Items(status)
	require.Len(t, items, 1)
	assert.Equal(t, KindEnum, items[0].Kind)

	require.NoError(t, c.SetValue(status, "open", ""))
	proc.RegisterCheck(status)
	proc.ExecuteChecks()
	assert.Nil(t, proc.Model().Items(status))
}

func TestAutomaticLookupFlagsUnresolvedIndex(t *testing.T) {
	b := schema.NewBuilder("test", 1)
	kind := b.AddField("kind", schema.DataTypeInt, schema.Options{})
	b.SetLookup(kind, schema.PropertyLookup{Kind: schema.LookupList, Names: []string{"a", "b"}})
	ds, err := b.Build()
	require.NoError(t, err)

	c := container.New(ds)
	require.NoError(t, c.SetValue(kind, "5", ""))

	proc := NewProcessor(ds, c)
	proc.RegisterCheck(kind)
	proc.ExecuteChecks()
	items := proc.Model().Items(kind)
	require.Len(t, items, 1)
	assert.Equal(t, KindLookup, items[0].Kind)

	require.NoError(t, c.SetValue(kind, "1", ""))
	proc.RegisterCheck(kind)
	proc.ExecuteChecks()
	assert.Nil(t, proc.Model().Items(kind))
}
