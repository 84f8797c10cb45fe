package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderBuildsValidSchema(t *testing.T) {
	b := NewBuilder("customer", 1)
	nameID := b.AddField("name", DataTypeString, Options{})
	b.AddDataset("orders", []ColumnSpec{
		{Name: "order_id", DataType: DataTypeInt, Options: Options{IsID: true}},
		{Name: "total", DataType: DataTypeNumeric},
	})

	ds, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "customer", ds.EntityCode())
	assert.Equal(t, 1, ds.Version())
	assert.Equal(t, "name", ds.Property(nameID).Name)

	ordersID := PropertyID(1)
	assert.Equal(t, KindDataset, ds.Property(ordersID).Kind)
	assert.NotNil(t, ds.IDColumn(ordersID))
	assert.Equal(t, "order_id", ds.IDColumn(ordersID).Name)
}

func TestBuilderRejectsDuplicateNames(t *testing.T) {
	b := NewBuilder("customer", 1)
	b.AddField("name", DataTypeString, Options{})
	b.AddField("name", DataTypeInt, Options{})

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate property name")
}

func TestBuilderRejectsMultipleIDColumns(t *testing.T) {
	b := NewBuilder("customer", 1)
	b.AddDataset("orders", []ColumnSpec{
		{Name: "a", DataType: DataTypeInt, Options: Options{IsID: true}},
		{Name: "b", DataType: DataTypeInt, Options: Options{IsID: true}},
	})

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IsID")
}

func TestDatasetWithNoIDColumnHasNone(t *testing.T) {
	b := NewBuilder("lookup_kind", 1)
	id := b.AddDataset("entries", []ColumnSpec{
		{Name: "label", DataType: DataTypeString},
	})

	ds, err := b.Build()
	require.NoError(t, err)
	assert.Nil(t, ds.IDColumn(id))
}

func TestSameGroupRequiresMatchingFieldTypes(t *testing.T) {
	b := NewBuilder("customer", 1)
	a := b.AddField("alias_a", DataTypeString, Options{})
	c := b.AddField("alias_b", DataTypeInt, Options{})
	b.AddSameGroup(a, c)

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mixes data types")
}

func TestSameGroupAcceptsMatchingFieldTypes(t *testing.T) {
	b := NewBuilder("customer", 1)
	a := b.AddField("alias_a", DataTypeString, Options{})
	c := b.AddField("alias_b", DataTypeString, Options{})
	b.AddSameGroup(a, c)

	ds, err := b.Build()
	require.NoError(t, err)
	group := ds.SameGroupFor(a)
	require.NotNil(t, group)
	assert.ElementsMatch(t, []PropertyID{a, c}, group.Properties)
}

func TestDSPRejectsSelfReference(t *testing.T) {
	b := NewBuilder("customer", 1)
	a := b.AddField("a", DataTypeString, Options{})
	b.AddDSP(a, a)

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "own source")
}

func TestDSPForReturnsConfiguredLink(t *testing.T) {
	b := NewBuilder("customer", 1)
	primary := b.AddField("primary_phone", DataTypeString, Options{})
	secondary := b.AddField("secondary_phone", DataTypeString, Options{})
	target := b.AddField("display_phone", DataTypeString, Options{})
	b.AddDSP(target, primary, secondary)

	ds, err := b.Build()
	require.NoError(t, err)
	link := ds.DSPFor(target)
	require.NotNil(t, link)
	assert.Equal(t, []PropertyID{primary, secondary}, link.Sources)
}

func TestListLookupRequiresNames(t *testing.T) {
	b := NewBuilder("customer", 1)
	b.AddDataset("status", []ColumnSpec{
		{Name: "code", DataType: DataTypeInt, Lookup: &PropertyLookup{Kind: LookupList}},
	})

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no names")
}

func TestDatasetLookupRequiresKeyAndDisplayColumns(t *testing.T) {
	b := NewBuilder("customer", 1)
	b.AddDataset("orders", []ColumnSpec{
		{Name: "country_code", DataType: DataTypeString, Lookup: &PropertyLookup{
			Kind:   LookupDataset,
			Entity: "country",
		}},
	})

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key column")
}
