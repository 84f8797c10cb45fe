// Package lookup resolves the display value of a schema.PropertyLookup
// of kind LookupDataset: spec.md §6's resolve(lookup_spec, key)
// collaborator contract, implemented by parsing and validating the
// lookup's SQL template with the TiDB parser before ever substituting a
// key into it — the same parser store/sqlimport and store/apply use to
// read and split SQL, here used defensively to reject anything that
// isn't the single narrow shape a lookup is allowed to be.
package lookup

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/opcode"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"github.com/n-r-w/zfcore/schema"
)

// Resolver resolves schema.PropertyLookup values against a live
// database connection.
type Resolver struct {
	db *sql.DB
	p  *parser.Parser
}

// NewResolver wraps a connection lookups execute their validated query
// against.
func NewResolver(db *sql.DB) *Resolver {
	return &Resolver{db: db, p: parser.New()}
}

// Resolve returns the display value for spec's target entity's row whose
// key column equals key. For LookupList, it resolves inline from
// spec.Names with no SQL involved, per spec.md §6. For LookupDataset, it
// parses and validates spec.SQLTemplate, then executes it with key bound
// to its single parameter.
func (r *Resolver) Resolve(ctx context.Context, spec schema.PropertyLookup, key any) (string, error) {
	switch spec.Kind {
	case schema.LookupList:
		return resolveList(spec, key)
	case schema.LookupDataset:
		return r.resolveDataset(ctx, spec, key)
	default:
		return "", fmt.Errorf("lookup: unknown lookup kind %v", spec.Kind)
	}
}

func resolveList(spec schema.PropertyLookup, key any) (string, error) {
	idx, err := toIndex(key)
	if err != nil {
		return "", fmt.Errorf("lookup: list key: %w", err)
	}
	if idx < 0 || idx >= len(spec.Names) {
		return "", fmt.Errorf("lookup: list index %d out of range [0,%d)", idx, len(spec.Names))
	}
	return spec.Names[idx], nil
}

func toIndex(key any) (int, error) {
	switch v := key.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("key %v (%T) is not an integer index", key, key)
	}
}

func (r *Resolver) resolveDataset(ctx context.Context, spec schema.PropertyLookup, key any) (string, error) {
	if spec.SQLTemplate == "" {
		return "", fmt.Errorf("lookup: dataset lookup has no SQLTemplate")
	}
	if err := validateTemplate(r.p, spec.SQLTemplate); err != nil {
		return "", fmt.Errorf("lookup: rejecting SQLTemplate: %w", err)
	}

	var display sql.NullString
	row := r.db.QueryRowContext(ctx, spec.SQLTemplate, key)
	if err := row.Scan(&display); err != nil {
		return "", fmt.Errorf("lookup: resolve %s.%s: %w", spec.Entity, spec.KeyColumn, err)
	}
	return display.String, nil
}

// validateTemplate rejects anything but a single SELECT of one column
// from one table with exactly one "column = ?" predicate in its WHERE
// clause — the narrowest shape that can answer a lookup and nothing a
// malicious or malformed template could use to reach into more of the
// schema than the one row it is supposed to display.
func validateTemplate(p *parser.Parser, sqlText string) error {
	stmts, _, err := p.Parse(sqlText, "", "")
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	if len(stmts) != 1 {
		return fmt.Errorf("expected exactly one statement, got %d", len(stmts))
	}
	sel, ok := stmts[0].(*ast.SelectStmt)
	if !ok {
		return fmt.Errorf("expected a SELECT statement")
	}
	if sel.Fields == nil || len(sel.Fields.Fields) != 1 {
		return fmt.Errorf("expected exactly one selected column")
	}
	if sel.From == nil || sel.From.TableRefs == nil {
		return fmt.Errorf("SELECT has no FROM clause")
	}
	if _, err := singleTableName(sel.From.TableRefs); err != nil {
		return err
	}
	if sel.Where == nil {
		return fmt.Errorf("SELECT has no WHERE clause")
	}
	return validateSingleEqualityPredicate(sel.Where)
}

func singleTableName(join *ast.Join) (string, error) {
	if join.Right != nil {
		return "", fmt.Errorf("multi-table FROM clause is not allowed")
	}
	src, ok := join.Left.(*ast.TableSource)
	if !ok {
		return "", fmt.Errorf("FROM clause must reference exactly one table")
	}
	tn, ok := src.Source.(*ast.TableName)
	if !ok {
		return "", fmt.Errorf("FROM clause must reference a plain table, not a subquery")
	}
	return tn.Name.O, nil
}

func validateSingleEqualityPredicate(where ast.ExprNode) error {
	bin, ok := where.(*ast.BinaryOperationExpr)
	if !ok || bin.Op != opcode.EQ {
		return fmt.Errorf("WHERE clause must be a single \"column = ?\" predicate")
	}
	if _, ok := bin.L.(*ast.ColumnNameExpr); !ok {
		return fmt.Errorf("WHERE clause's left side must be a column reference")
	}
	if _, ok := bin.R.(ast.ParamMarkerExpr); !ok {
		return fmt.Errorf("WHERE clause's right side must be a \"?\" placeholder")
	}
	return nil
}
