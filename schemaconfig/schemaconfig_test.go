package schemaconfig

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n-r-w/zfcore/schema"
)

const sampleDoc = `
entity_code = "order"
version = 2

[[field]]
name = "customer_name"
type = "string"

[[field]]
name = "status"
type = "int"
  [field.lookup]
  kind = "list"
  names = ["new", "paid", "shipped"]

[[dataset]]
name = "lines"
  [[dataset.column]]
  name = "id"
  type = "int"
    [dataset.column.options]
    is_id = true
  [[dataset.column]]
  name = "qty"
  type = "int"
`

func TestLoadDecodesFieldsDatasetsAndLookup(t *testing.T) {
	ds, err := Decode(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, "order", ds.EntityCode())
	assert.Equal(t, 2, ds.Version())

	props := ds.Properties()
	require.Len(t, props, 3)
	assert.Equal(t, "customer_name", props[0].Name)
	assert.Equal(t, schema.DataTypeString, props[0].DataType)

	assert.Equal(t, "status", props[1].Name)
	require.NotNil(t, props[1].Lookup)
	assert.Equal(t, schema.LookupList, props[1].Lookup.Kind)
	assert.Equal(t, []string{"new", "paid", "shipped"}, props[1].Lookup.Names)

	lines := props[2]
	assert.Equal(t, schema.KindDataset, lines.Kind)
	require.Len(t, lines.Columns, 2)
	assert.True(t, lines.Columns[0].Options.IsID)
	assert.Equal(t, "qty", lines.Columns[1].Name)
}

func TestDecodeRejectsMissingEntityCode(t *testing.T) {
	_, err := Decode(strings.NewReader(`version = 1`))
	assert.Error(t, err)
}

func TestDecodeRejectsUnknownDataType(t *testing.T) {
	_, err := Decode(strings.NewReader(`
entity_code = "x"
version = 1
[[field]]
name = "f"
type = "not-a-type"
`))
	assert.Error(t, err)
}

func TestDecodeResolvesSameGroupAndDSPByName(t *testing.T) {
	ds, err := Decode(strings.NewReader(`
entity_code = "x"
version = 1

[[field]]
name = "s1"
type = "string"
[[field]]
name = "s2"
type = "string"
[[field]]
name = "target"
type = "string"

[[same_group]]
properties = ["s1", "s2"]

[[dsp]]
target = "target"
sources = ["s1", "s2"]
`))
	require.NoError(t, err)
	assert.Len(t, ds.Properties(), 3, "same_group and dsp declarations do not add properties of their own")
}
