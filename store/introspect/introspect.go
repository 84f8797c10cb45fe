// Package introspect reads back the live schema of a MySQL, MariaDB or
// TiDB server (they speak the same information_schema) into a ddl.Database,
// so store.Sync can diff the database it is actually pointed at
// against the schema described by an entity's schemaconfig file.
package introspect

import (
	"context"
	"database/sql"

	"github.com/n-r-w/zfcore/store/ddl"
)

// introspectCtx threads the connection and dialect detected for it through
// the per-table/per-column readback helpers.
type introspectCtx struct {
	ctx     context.Context
	db      *sql.DB
	dialect ddl.Dialect
	version string
}

// Introspecter reads the current schema off a live connection.
type Introspecter interface {
	Introspect(ctx context.Context, db *sql.DB) (*ddl.Database, error)
}

type introspecter struct{}

// New returns the MySQL-family Introspecter. It is the only dialect this
// store supports, so unlike the teacher's generic registry this is a plain
// constructor rather than a `map[ddl.Dialect]func() Introspecter` lookup.
func New() Introspecter {
	return &introspecter{}
}

func (i *introspecter) Introspect(ctx context.Context, db *sql.DB) (*ddl.Database, error) {
	dialect, version, err := detectDialect(ctx, db)
	if err != nil {
		return nil, err
	}

	ic := &introspectCtx{ctx: ctx, db: db, dialect: dialect, version: version}

	out := &ddl.Database{Tables: []*ddl.Table{}}
	if err := introspectTables(ic, out); err != nil {
		return nil, err
	}

	return out, nil
}
