// Package schemaconfig loads an entity kind's schema.DataStructure from a
// TOML document, the entity-schema counterpart to store/tomlschema's
// physical-table TOML loader: the same BurntSushi/toml decode-then-convert
// idiom, retargeted from table/column definitions onto
// field/dataset/column property definitions.
package schemaconfig

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/n-r-w/zfcore/schema"
)

// document is the top-level TOML shape:
//
//	entity_code = "order"
//	version = 3
//
//	[[field]]
//	name = "customer_name"
//	type = "string"
//
//	[[dataset]]
//	name = "lines"
//	  [[dataset.column]]
//	  name = "id"
//	  type = "int"
//	  is_id = true
type document struct {
	EntityCode string        `toml:"entity_code"`
	Version    int           `toml:"version"`
	Fields     []tomlField   `toml:"field"`
	Datasets   []tomlDataset `toml:"dataset"`

	SameGroups []tomlSameGroup `toml:"same_group"`
	DSP        []tomlDSP       `toml:"dsp"`
}

type tomlOptions struct {
	IsID          bool `toml:"is_id"`
	Key           bool `toml:"key"`
	MultiLanguage bool `toml:"multi_language"`
	SimpleDataset bool `toml:"simple_dataset"`
	DBReadIgnored bool `toml:"db_read_ignored"`
	DBWriteIgnored bool `toml:"db_write_ignored"`
	ClientOnly    bool `toml:"client_only"`
}

func (o tomlOptions) toSchema() schema.Options {
	return schema.Options{
		IsID:           o.IsID,
		Key:            o.Key,
		MultiLanguage:  o.MultiLanguage,
		SimpleDataset:  o.SimpleDataset,
		DBReadIgnored:  o.DBReadIgnored,
		DBWriteIgnored: o.DBWriteIgnored,
		ClientOnly:     o.ClientOnly,
	}
}

type tomlLookup struct {
	Kind          string   `toml:"kind"` // "list" or "dataset"
	Names         []string `toml:"names"`
	Entity        string   `toml:"entity"`
	KeyColumn     string   `toml:"key_column"`
	DisplayColumn string   `toml:"display_column"`
	SQLTemplate   string   `toml:"sql_template"`
}

func (l *tomlLookup) toSchema() (*schema.PropertyLookup, error) {
	if l == nil {
		return nil, nil
	}
	out := &schema.PropertyLookup{
		Names:         l.Names,
		Entity:        l.Entity,
		KeyColumn:     l.KeyColumn,
		DisplayColumn: l.DisplayColumn,
		SQLTemplate:   l.SQLTemplate,
	}
	switch l.Kind {
	case "", "list":
		out.Kind = schema.LookupList
	case "dataset":
		out.Kind = schema.LookupDataset
	default:
		return nil, fmt.Errorf("schemaconfig: unknown lookup kind %q", l.Kind)
	}
	return out, nil
}

type tomlField struct {
	Name    string      `toml:"name"`
	Type    string      `toml:"type"`
	Options tomlOptions `toml:"options"`
	Lookup  *tomlLookup `toml:"lookup"`
}

type tomlColumn struct {
	Name    string      `toml:"name"`
	Type    string      `toml:"type"`
	Options tomlOptions `toml:"options"`
	Lookup  *tomlLookup `toml:"lookup"`
}

type tomlDataset struct {
	Name    string       `toml:"name"`
	Columns []tomlColumn `toml:"column"`
}

type tomlSameGroup struct {
	Properties []string `toml:"properties"`
}

type tomlDSP struct {
	Target  string   `toml:"target"`
	Sources []string `toml:"sources"`
}

var dataTypeNames = map[string]schema.DataType{
	"string":   schema.DataTypeString,
	"int":      schema.DataTypeInt,
	"uint":     schema.DataTypeUint,
	"numeric":  schema.DataTypeNumeric,
	"double":   schema.DataTypeDouble,
	"bool":     schema.DataTypeBool,
	"date":     schema.DataTypeDate,
	"time":     schema.DataTypeTime,
	"datetime": schema.DataTypeDateTime,
	"bytes":    schema.DataTypeBytes,
	"image":    schema.DataTypeImage,
	"variant":  schema.DataTypeVariant,
}

func parseDataType(s string) (schema.DataType, error) {
	dt, ok := dataTypeNames[s]
	if !ok {
		return 0, fmt.Errorf("schemaconfig: unknown data type %q", s)
	}
	return dt, nil
}

// Load reads the TOML entity-schema document at path and returns the
// validated, frozen DataStructure it describes.
func Load(path string) (*schema.DataStructure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("schemaconfig: open %q: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a TOML entity-schema document from r.
func Decode(r io.Reader) (*schema.DataStructure, error) {
	var doc document
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("schemaconfig: decode: %w", err)
	}
	return build(&doc)
}

func build(doc *document) (*schema.DataStructure, error) {
	if doc.EntityCode == "" {
		return nil, fmt.Errorf("schemaconfig: entity_code is required")
	}

	b := schema.NewBuilder(doc.EntityCode, doc.Version)
	byName := make(map[string]schema.PropertyID)

	for _, f := range doc.Fields {
		dt, err := parseDataType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		id := b.AddField(f.Name, dt, f.Options.toSchema())
		byName[f.Name] = id
		if lk, err := f.Lookup.toSchema(); err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		} else if lk != nil {
			b.SetLookup(id, *lk)
		}
	}

	for _, d := range doc.Datasets {
		cols := make([]schema.ColumnSpec, len(d.Columns))
		for i, c := range d.Columns {
			dt, err := parseDataType(c.Type)
			if err != nil {
				return nil, fmt.Errorf("dataset %q column %q: %w", d.Name, c.Name, err)
			}
			lk, err := c.Lookup.toSchema()
			if err != nil {
				return nil, fmt.Errorf("dataset %q column %q: %w", d.Name, c.Name, err)
			}
			cols[i] = schema.ColumnSpec{Name: c.Name, DataType: dt, Options: c.Options.toSchema(), Lookup: lk}
		}
		id := b.AddDataset(d.Name, cols)
		byName[d.Name] = id
	}

	for _, g := range doc.SameGroups {
		ids, err := resolveNames(byName, g.Properties)
		if err != nil {
			return nil, fmt.Errorf("same_group: %w", err)
		}
		b.AddSameGroup(ids...)
	}

	for _, dsp := range doc.DSP {
		target, ok := byName[dsp.Target]
		if !ok {
			return nil, fmt.Errorf("dsp: unknown target property %q", dsp.Target)
		}
		sources, err := resolveNames(byName, dsp.Sources)
		if err != nil {
			return nil, fmt.Errorf("dsp target %q: %w", dsp.Target, err)
		}
		b.AddDSP(target, sources...)
	}

	return b.Build()
}

func resolveNames(byName map[string]schema.PropertyID, names []string) ([]schema.PropertyID, error) {
	ids := make([]schema.PropertyID, len(names))
	for i, n := range names {
		id, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("unknown property %q", n)
		}
		ids[i] = id
	}
	return ids, nil
}
