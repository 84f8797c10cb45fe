// Package store implements the reference database collaborator:
// entity.Collaborator backed by MySQL, plus the schema-sync machinery
// (Schema, Diff, Migration, Applier) that keeps a live database's tables
// matching a schema.DataStructure's shape as it evolves.
package store

import (
	"fmt"

	"github.com/n-r-w/zfcore/schema"
	"github.com/n-r-w/zfcore/store/ddl"
)

// idColumnName is the column every generated table keys its rows by.
const idColumnName = "id"

// MySQLTableOptions is the sole dialect-specific table option group this
// store carries — store only ever targets MySQL (SPEC_FULL.md §11.1), so
// the teacher's other eight dialect option structs have no table here to
// attach to.
type MySQLTableOptions struct {
	Engine  string
	Charset string
	Collate string
}

func (o MySQLTableOptions) apply(t *ddl.Table) {
	t.Options.MySQL = &ddl.MySQLTableOptions{
		Engine:  o.Engine,
		Charset: o.Charset,
		Collate: o.Collate,
	}
}

// DefaultMySQLTableOptions is the table option group Schema uses when the
// caller does not supply one.
var DefaultMySQLTableOptions = MySQLTableOptions{Engine: "InnoDB", Charset: "utf8mb4", Collate: "utf8mb4_unicode_ci"}

// Schema derives the MySQL tables backing one entity kind: the entity's
// own table (one row per persistent instance, its Field properties as
// scalar columns) plus one child table per Dataset property, keyed by the
// owning entity's id plus the dataset's own Id column (or a synthetic
// auto-increment row id when the dataset declares none). Adapted from the
// teacher's internal/dialect/mysql/table.go column-definition generator,
// restricted to the MySQL dialect (see DESIGN.md).
func Schema(ds *schema.DataStructure, opts MySQLTableOptions) []*ddl.Table {
	tables := make([]*ddl.Table, 0, 1+len(ds.Properties()))

	entityTable := &ddl.Table{Name: entityTableName(ds.EntityCode()), Comment: entityProvenance(ds.EntityCode(), ds.Version())}
	opts.apply(entityTable)
	entityTable.Columns = append(entityTable.Columns, &ddl.Column{
		Name: idColumnName, Type: ddl.DataTypeInt, PrimaryKey: true, AutoIncrement: true,
	})
	entityTable.Constraints = append(entityTable.Constraints, &ddl.Constraint{
		Name: entityTable.Name + "_pk", Type: ddl.ConstraintPrimaryKey, Columns: []string{idColumnName},
	})

	for _, p := range ds.Properties() {
		switch p.Kind {
		case schema.KindField:
			entityTable.Columns = append(entityTable.Columns, fieldColumn(p))
		case schema.KindDataset:
			t := datasetTable(ds.EntityCode(), p, opts)
			tables = append(tables, t)
		}
	}

	return append([]*ddl.Table{entityTable}, tables...)
}

func entityTableName(entityCode string) string {
	return fmt.Sprintf("zf_%s", entityCode)
}

func datasetTableName(entityCode string, datasetName string) string {
	return fmt.Sprintf("zf_%s_%s", entityCode, datasetName)
}

func fieldColumn(p *schema.DataProperty) *ddl.Column {
	return &ddl.Column{
		Name:     p.Name,
		Type:     mapDataType(p.DataType),
		Nullable: true,
	}
}

func datasetTable(entityCode string, p *schema.DataProperty, opts MySQLTableOptions) *ddl.Table {
	t := &ddl.Table{Name: datasetTableName(entityCode, p.Name), Comment: datasetProvenance(entityCode, p.Name)}
	opts.apply(t)

	t.Columns = append(t.Columns, &ddl.Column{
		Name: "entity_id", Type: ddl.DataTypeInt, Nullable: false,
	})
	t.Constraints = append(t.Constraints, &ddl.Constraint{
		Type: ddl.ConstraintForeignKey, Columns: []string{"entity_id"},
		ReferencedTable: entityTableName(entityCode), ReferencedColumns: []string{idColumnName},
		OnDelete: ddl.RefActionCascade,
	})

	hasID := false
	for i := range p.Columns {
		col := &p.Columns[i]
		c := &ddl.Column{
			Name:     col.Name,
			Type:     mapDataType(col.DataType),
			Nullable: !col.Options.IsID,
		}
		t.Columns = append(t.Columns, c)
		if col.Options.IsID {
			hasID = true
			t.Constraints = append(t.Constraints, &ddl.Constraint{
				Type: ddl.ConstraintUnique, Columns: []string{"entity_id", col.Name},
			})
		}
	}
	if !hasID {
		// No declared Id column: rows are identified only by a generated
		// RowID (spec.md §4.2), so the table needs its own surrogate key.
		t.Columns = append([]*ddl.Column{{
			Name: idColumnName, Type: ddl.DataTypeInt, PrimaryKey: true, AutoIncrement: true,
		}}, t.Columns...)
		t.Constraints = append(t.Constraints, &ddl.Constraint{
			Type: ddl.ConstraintPrimaryKey, Columns: []string{idColumnName},
		})
	}
	return t
}

// entityProvenance and datasetProvenance stamp a generated table's
// Comment with the schema.DataStructure shape it was derived from, so a
// migration computed over these tables (store.Migration, via
// diffddl.Diff) can report which entity kind and dataset a change
// belongs to instead of a bare, origin-less table name.
func entityProvenance(entityCode string, version int) string {
	return fmt.Sprintf("zfcore entity kind=%s version=%d", entityCode, version)
}

func datasetProvenance(entityCode, datasetName string) string {
	return fmt.Sprintf("zfcore entity kind=%s dataset=%s", entityCode, datasetName)
}

func mapDataType(dt schema.DataType) ddl.DataType {
	switch dt {
	case schema.DataTypeString, schema.DataTypeVariant:
		return ddl.DataTypeString
	case schema.DataTypeInt, schema.DataTypeUint:
		return ddl.DataTypeInt
	case schema.DataTypeNumeric, schema.DataTypeDouble:
		return ddl.DataTypeFloat
	case schema.DataTypeBool:
		return ddl.DataTypeBoolean
	case schema.DataTypeDate, schema.DataTypeTime, schema.DataTypeDateTime:
		return ddl.DataTypeDatetime
	case schema.DataTypeBytes, schema.DataTypeImage:
		return ddl.DataTypeBinary
	default:
		return ddl.DataTypeUnknown
	}
}
