package store

import (
	"context"
	"fmt"

	"github.com/n-r-w/zfcore/schema"
	"github.com/n-r-w/zfcore/store/apply"
	"github.com/n-r-w/zfcore/store/ddl"
	"github.com/n-r-w/zfcore/store/ddlgen"
	"github.com/n-r-w/zfcore/store/diffddl"
	"github.com/n-r-w/zfcore/store/introspect"
	"github.com/n-r-w/zfcore/store/migration"
)

// Database builds the ddl.Database a live MySQL instance should match for
// the given set of entity kinds: one Schema(ds) expansion per
// DataStructure, flattened into a single named database.
func Database(name string, dataStructures []*schema.DataStructure, opts MySQLTableOptions) *ddl.Database {
	db := &ddl.Database{Name: name, Dialect: ptr(ddl.DialectMySQL)}
	for _, ds := range dataStructures {
		db.Tables = append(db.Tables, Schema(ds, opts)...)
	}
	return db
}

func ptr[T any](v T) *T { return &v }

// Migration computes the ALTER/CREATE/DROP statements (with rollback and
// breaking-change notes) needed to bring a live database matching current
// into the shape described by desired — reusing the teacher's
// diffddl.Diff rename-detection algorithm and ddlgen.Generator's MySQL
// statement rendering.
func Migration(current, desired *ddl.Database, opts ...ddlgen.MigrationOptions) *migration.Migration {
	d := diffddl.Diff(current, desired, diffddl.DefaultOptions())
	gen := ddlgen.NewMySQLGenerator()
	mig := gen.GenerateMigration(d, opts...)
	annotateProvenance(mig, d)
	return mig
}

// annotateProvenance records, for every added or removed table that
// store.Schema stamped with entity/dataset provenance (see
// entityProvenance, datasetProvenance), which schema.DataStructure shape
// the change traces back to. Without this a migration computed by
// diffddl.Diff reads as changes to anonymous tables; with it, a caller
// reviewing InfoNotes before applying can tell which entity kind or
// dataset actually grew or shrank a table.
func annotateProvenance(mig *migration.Migration, d *diffddl.SchemaDiff) {
	for _, t := range d.AddedTables {
		if t.Comment != "" {
			mig.AddNote(fmt.Sprintf("new table %s derived from %s", t.Name, t.Comment))
		}
	}
	for _, t := range d.RemovedTables {
		if t.Comment != "" {
			mig.AddNote(fmt.Sprintf("table %s (%s) no longer appears in the entity schema", t.Name, t.Comment))
		}
	}
}

// Introspect reads the live table shape of db, for comparison against
// Database's expected shape via Migration.
func Introspect(ctx context.Context, conn *apply.Applier) (*ddl.Database, error) {
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("store: introspect: %w", err)
	}
	return introspect.New().Introspect(ctx, sqlDB)
}

// Sync computes and, unless dryRun, applies the migration that brings the
// live database conn is connected to into the shape entity kinds
// describe. Returns the computed migration either way so the caller can
// display it before/instead of applying it.
func Sync(ctx context.Context, conn *apply.Applier, dbName string, dataStructures []*schema.DataStructure, opts MySQLTableOptions, dryRun bool) (*migration.Migration, error) {
	return SyncRawDatabase(ctx, conn, Database(dbName, dataStructures, opts), dryRun)
}

// SyncRawDatabase is Sync's lower layer: it takes an already-built
// ddl.Database instead of deriving one from entity kinds, for schemas an
// entity kind doesn't own. schema.PropertyLookup's LookupDataset variant
// (lookup.Resolver) queries tables like this: reference/lookup tables
// described directly as DDL (store/tomlschema) rather than projected from
// a schema.DataStructure.
func SyncRawDatabase(ctx context.Context, conn *apply.Applier, desired *ddl.Database, dryRun bool) (*migration.Migration, error) {
	current, err := Introspect(ctx, conn)
	if err != nil {
		return nil, err
	}
	mig := Migration(current, desired)

	if dryRun || len(mig.SQLStatements()) == 0 {
		return mig, nil
	}

	preflight := conn.PreflightChecks(mig.SQLStatements(), false)
	if err := conn.Apply(ctx, mig.SQLStatements(), preflight); err != nil {
		return mig, fmt.Errorf("store: apply migration: %w", err)
	}
	return mig, nil
}
