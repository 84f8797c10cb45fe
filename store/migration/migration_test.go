package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/n-r-w/zfcore/store/ddl"
)

// opsToStringsTest is a reusable test case for testing methods that convert operations to string slices.
type opsToStringsTest struct {
	name       string
	operations []ddl.Operation
	want       []string
}

func TestMigrationPlan(t *testing.T) {
	tests := []struct {
		name       string
		operations []ddl.Operation
		want       []ddl.Operation
	}{
		{
			name:       "empty operations",
			operations: nil,
			want:       nil,
		},
		{
			name: "single operation",
			operations: []ddl.Operation{
				{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users (id INT)"},
			},
			want: []ddl.Operation{
				{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users (id INT)"},
			},
		},
		{
			name: "multiple operations",
			operations: []ddl.Operation{
				{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users (id INT)"},
				{Kind: ddl.OperationNote, SQL: "Added users table"},
				{Kind: ddl.OperationBreaking, SQL: "Breaking change"},
			},
			want: []ddl.Operation{
				{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users (id INT)"},
				{Kind: ddl.OperationNote, SQL: "Added users table"},
				{Kind: ddl.OperationBreaking, SQL: "Breaking change"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migration{Operations: tt.operations}
			assert.Equal(t, tt.want, m.Plan())
		})
	}
}

func TestMigrationSQLStatements(t *testing.T) {
	tests := []opsToStringsTest{
		{"empty operations", nil, []string{}},
		{
			name: "single SQL operation",
			operations: []ddl.Operation{
				{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users (id INT)"},
			},
			want: []string{"CREATE TABLE users (id INT)"},
		},
		{
			name: "multiple SQL operations",
			operations: []ddl.Operation{
				{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users (id INT)"},
				{Kind: ddl.OperationSQL, SQL: "ALTER TABLE users ADD name VARCHAR(255)"},
			},
			want: []string{"CREATE TABLE users (id INT)", "ALTER TABLE users ADD name VARCHAR(255)"},
		},
		{
			name: "mixed operations - only SQL returned",
			operations: []ddl.Operation{
				{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users (id INT)"},
				{Kind: ddl.OperationNote, SQL: "This is a note"},
				{Kind: ddl.OperationBreaking, SQL: "Breaking change"},
				{Kind: ddl.OperationSQL, SQL: "DROP TABLE old_table"},
			},
			want: []string{"CREATE TABLE users (id INT)", "DROP TABLE old_table"},
		},
		{
			name: "SQL with whitespace trimmed",
			operations: []ddl.Operation{
				{Kind: ddl.OperationSQL, SQL: "  CREATE TABLE users (id INT)  "},
			},
			want: []string{"CREATE TABLE users (id INT)"},
		},
		{
			name: "empty SQL is skipped",
			operations: []ddl.Operation{
				{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users (id INT)"},
				{Kind: ddl.OperationSQL, SQL: "   "},
				{Kind: ddl.OperationSQL, SQL: ""},
			},
			want: []string{"CREATE TABLE users (id INT)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migration{Operations: tt.operations}
			assert.Equal(t, tt.want, m.SQLStatements())
		})
	}
}

func TestMigrationRollbackStatements(t *testing.T) {
	tests := []opsToStringsTest{
		{"empty operations", nil, []string{}},
		{
			name: "single rollback statement",
			operations: []ddl.Operation{
				{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users (id INT)", RollbackSQL: "DROP TABLE users"},
			},
			want: []string{"DROP TABLE users"},
		},
		{
			name: "multiple rollback statements",
			operations: []ddl.Operation{
				{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users (id INT)", RollbackSQL: "DROP TABLE users"},
				{Kind: ddl.OperationSQL, SQL: "CREATE TABLE posts (id INT)", RollbackSQL: "DROP TABLE posts"},
			},
			want: []string{"DROP TABLE users", "DROP TABLE posts"},
		},
		{
			name: "operations without rollback are skipped",
			operations: []ddl.Operation{
				{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users (id INT)", RollbackSQL: "DROP TABLE users"},
				{Kind: ddl.OperationSQL, SQL: "INSERT INTO users VALUES (1)"},
				{Kind: ddl.OperationSQL, SQL: "CREATE TABLE posts (id INT)", RollbackSQL: "DROP TABLE posts"},
			},
			want: []string{"DROP TABLE users", "DROP TABLE posts"},
		},
		{
			name: "non-SQL operations ignored",
			operations: []ddl.Operation{
				{Kind: ddl.OperationNote, SQL: "note", RollbackSQL: "should not appear"},
				{Kind: ddl.OperationSQL, RollbackSQL: "DROP TABLE users"},
			},
			want: []string{"DROP TABLE users"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migration{Operations: tt.operations}
			assert.Equal(t, tt.want, m.RollbackStatements())
		})
	}
}

func TestMigrationBreakingNotes(t *testing.T) {
	tests := []opsToStringsTest{
		{"empty operations", nil, []string{}},
		{
			name: "single breaking note",
			operations: []ddl.Operation{
				{Kind: ddl.OperationBreaking, SQL: "Column dropped", Risk: ddl.RiskBreaking},
			},
			want: []string{"Column dropped"},
		},
		{
			name: "multiple breaking notes",
			operations: []ddl.Operation{
				{Kind: ddl.OperationBreaking, SQL: "Column dropped", Risk: ddl.RiskBreaking},
				{Kind: ddl.OperationBreaking, SQL: "Table renamed", Risk: ddl.RiskBreaking},
			},
			want: []string{"Column dropped", "Table renamed"},
		},
		{
			name: "mixed operations - only breaking returned",
			operations: []ddl.Operation{
				{Kind: ddl.OperationSQL, SQL: "DROP COLUMN name"},
				{Kind: ddl.OperationBreaking, SQL: "Column dropped", Risk: ddl.RiskBreaking},
				{Kind: ddl.OperationNote, SQL: "Some note"},
			},
			want: []string{"Column dropped"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migration{Operations: tt.operations}
			assert.Equal(t, tt.want, m.BreakingNotes())
		})
	}
}

func TestMigrationUnresolvedNotes(t *testing.T) {
	tests := []opsToStringsTest{
		{"empty operations", nil, []string{}},
		{
			name: "single unresolved note",
			operations: []ddl.Operation{
				{Kind: ddl.OperationUnresolved, UnresolvedReason: "Cannot determine column type"},
			},
			want: []string{"Cannot determine column type"},
		},
		{
			name: "multiple unresolved notes",
			operations: []ddl.Operation{
				{Kind: ddl.OperationUnresolved, UnresolvedReason: "Cannot determine column type"},
				{Kind: ddl.OperationUnresolved, UnresolvedReason: "Foreign key conflict"},
			},
			want: []string{"Cannot determine column type", "Foreign key conflict"},
		},
		{
			name: "mixed operations - only unresolved returned",
			operations: []ddl.Operation{
				{Kind: ddl.OperationSQL, SQL: "ALTER TABLE users"},
				{Kind: ddl.OperationUnresolved, UnresolvedReason: "Cannot resolve"},
				{Kind: ddl.OperationNote, SQL: "Info note"},
			},
			want: []string{"Cannot resolve"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migration{Operations: tt.operations}
			assert.Equal(t, tt.want, m.UnresolvedNotes())
		})
	}
}

func TestMigrationInfoNotes(t *testing.T) {
	tests := []opsToStringsTest{
		{"empty operations", nil, []string{}},
		{
			name: "single info note",
			operations: []ddl.Operation{
				{Kind: ddl.OperationNote, SQL: "Migration adds new index", Risk: ddl.RiskInfo},
			},
			want: []string{"Migration adds new index"},
		},
		{
			name: "multiple info notes",
			operations: []ddl.Operation{
				{Kind: ddl.OperationNote, SQL: "Migration adds new index", Risk: ddl.RiskInfo},
				{Kind: ddl.OperationNote, SQL: "Consider adding constraint", Risk: ddl.RiskInfo},
			},
			want: []string{"Migration adds new index", "Consider adding constraint"},
		},
		{
			name: "mixed operations - only notes returned",
			operations: []ddl.Operation{
				{Kind: ddl.OperationSQL, SQL: "CREATE INDEX idx ON users(name)"},
				{Kind: ddl.OperationNote, SQL: "Index creation may take time", Risk: ddl.RiskInfo},
				{Kind: ddl.OperationBreaking, SQL: "Breaking"},
			},
			want: []string{"Index creation may take time"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migration{Operations: tt.operations}
			assert.Equal(t, tt.want, m.InfoNotes())
		})
	}
}

func TestMigrationAddStatement(t *testing.T) {
	tests := []struct {
		name string
		stmt string
		want []ddl.Operation
	}{
		{name: "empty statement is ignored", stmt: "", want: nil},
		{name: "whitespace only statement is ignored", stmt: "   ", want: nil},
		{
			name: "valid statement is added",
			stmt: "CREATE TABLE users (id INT)",
			want: []ddl.Operation{{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users (id INT)"}},
		},
		{
			name: "statement with whitespace is trimmed",
			stmt: "  CREATE TABLE users (id INT)  ",
			want: []ddl.Operation{{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users (id INT)"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migration{}
			m.AddStatement(tt.stmt)
			assert.Equal(t, tt.want, m.Operations)
		})
	}
}

func TestMigrationAddRollbackStatement(t *testing.T) {
	tests := []struct {
		name string
		stmt string
		want []ddl.Operation
	}{
		{name: "empty statement is ignored", stmt: "", want: nil},
		{name: "whitespace only statement is ignored", stmt: "   ", want: nil},
		{
			name: "valid rollback statement is added",
			stmt: "DROP TABLE users",
			want: []ddl.Operation{{Kind: ddl.OperationSQL, RollbackSQL: "DROP TABLE users"}},
		},
		{
			name: "rollback statement with whitespace is trimmed",
			stmt: "  DROP TABLE users  ",
			want: []ddl.Operation{{Kind: ddl.OperationSQL, RollbackSQL: "DROP TABLE users"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migration{}
			m.AddRollbackStatement(tt.stmt)
			assert.Equal(t, tt.want, m.Operations)
		})
	}
}

func TestMigrationAddStatementWithRollback(t *testing.T) {
	tests := []struct {
		name string
		up   string
		down string
		want []ddl.Operation
	}{
		{name: "both empty are ignored", up: "", down: "", want: nil},
		{name: "both whitespace only are ignored", up: "   ", down: "   ", want: nil},
		{
			name: "valid up and down statements",
			up:   "CREATE TABLE users (id INT)",
			down: "DROP TABLE users",
			want: []ddl.Operation{{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users (id INT)", RollbackSQL: "DROP TABLE users"}},
		},
		{
			name: "only up statement",
			up:   "CREATE TABLE users (id INT)",
			down: "",
			want: []ddl.Operation{{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users (id INT)", RollbackSQL: ""}},
		},
		{
			name: "only down statement",
			up:   "",
			down: "DROP TABLE users",
			want: []ddl.Operation{{Kind: ddl.OperationSQL, SQL: "", RollbackSQL: "DROP TABLE users"}},
		},
		{
			name: "statements with whitespace are trimmed",
			up:   "  CREATE TABLE users (id INT)  ",
			down: "  DROP TABLE users  ",
			want: []ddl.Operation{{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users (id INT)", RollbackSQL: "DROP TABLE users"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migration{}
			m.AddStatementWithRollback(tt.up, tt.down)
			assert.Equal(t, tt.want, m.Operations)
		})
	}
}

func TestMigrationAddBreaking(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want []ddl.Operation
	}{
		{name: "empty message is ignored", msg: "", want: nil},
		{name: "whitespace only message is ignored", msg: "   ", want: nil},
		{
			name: "valid breaking message is added",
			msg:  "Column 'name' was dropped",
			want: []ddl.Operation{{Kind: ddl.OperationBreaking, SQL: "Column 'name' was dropped", Risk: ddl.RiskBreaking}},
		},
		{
			name: "message with whitespace is trimmed",
			msg:  "  Column dropped  ",
			want: []ddl.Operation{{Kind: ddl.OperationBreaking, SQL: "Column dropped", Risk: ddl.RiskBreaking}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migration{}
			m.AddBreaking(tt.msg)
			assert.Equal(t, tt.want, m.Operations)
		})
	}
}

func TestMigrationAddNote(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want []ddl.Operation
	}{
		{name: "empty message is ignored", msg: "", want: nil},
		{name: "whitespace only message is ignored", msg: "   ", want: nil},
		{
			name: "valid note message is added",
			msg:  "Consider adding an index",
			want: []ddl.Operation{{Kind: ddl.OperationNote, SQL: "Consider adding an index", Risk: ddl.RiskInfo}},
		},
		{
			name: "message with whitespace is trimmed",
			msg:  "  Note message  ",
			want: []ddl.Operation{{Kind: ddl.OperationNote, SQL: "Note message", Risk: ddl.RiskInfo}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migration{}
			m.AddNote(tt.msg)
			assert.Equal(t, tt.want, m.Operations)
		})
	}
}

func TestMigrationAddUnresolved(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want []ddl.Operation
	}{
		{name: "empty message is ignored", msg: "", want: nil},
		{name: "whitespace only message is ignored", msg: "   ", want: nil},
		{
			name: "valid unresolved message is added",
			msg:  "Cannot determine column type",
			want: []ddl.Operation{{Kind: ddl.OperationUnresolved, UnresolvedReason: "Cannot determine column type"}},
		},
		{
			name: "message with whitespace is trimmed",
			msg:  "  Unresolved issue  ",
			want: []ddl.Operation{{Kind: ddl.OperationUnresolved, UnresolvedReason: "Unresolved issue"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migration{}
			m.AddUnresolved(tt.msg)
			assert.Equal(t, tt.want, m.Operations)
		})
	}
}

var migrationDedupeTests = []struct {
	name       string
	operations []ddl.Operation
	want       []ddl.Operation
}{
	{name: "empty operations", operations: nil, want: nil},
	{
		name: "no duplicates - unchanged",
		operations: []ddl.Operation{
			{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users"},
			{Kind: ddl.OperationNote, SQL: "Note 1"},
			{Kind: ddl.OperationBreaking, SQL: "Breaking 1"},
		},
		want: []ddl.Operation{
			{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users"},
			{Kind: ddl.OperationNote, SQL: "Note 1"},
			{Kind: ddl.OperationBreaking, SQL: "Breaking 1"},
		},
	},
	{
		name: "duplicate notes are removed",
		operations: []ddl.Operation{
			{Kind: ddl.OperationNote, SQL: "Same note"},
			{Kind: ddl.OperationNote, SQL: "Same note"},
			{Kind: ddl.OperationNote, SQL: "Different note"},
		},
		want: []ddl.Operation{
			{Kind: ddl.OperationNote, SQL: "Same note"},
			{Kind: ddl.OperationNote, SQL: "Different note"},
		},
	},
	{
		name: "duplicate breaking notes are removed",
		operations: []ddl.Operation{
			{Kind: ddl.OperationBreaking, SQL: "Breaking change"},
			{Kind: ddl.OperationBreaking, SQL: "Breaking change"},
			{Kind: ddl.OperationBreaking, SQL: "Another breaking"},
		},
		want: []ddl.Operation{
			{Kind: ddl.OperationBreaking, SQL: "Breaking change"},
			{Kind: ddl.OperationBreaking, SQL: "Another breaking"},
		},
	},
	{
		name: "duplicate unresolved notes are removed",
		operations: []ddl.Operation{
			{Kind: ddl.OperationUnresolved, UnresolvedReason: "Cannot resolve"},
			{Kind: ddl.OperationUnresolved, UnresolvedReason: "Cannot resolve"},
			{Kind: ddl.OperationUnresolved, UnresolvedReason: "Different issue"},
		},
		want: []ddl.Operation{
			{Kind: ddl.OperationUnresolved, UnresolvedReason: "Cannot resolve"},
			{Kind: ddl.OperationUnresolved, UnresolvedReason: "Different issue"},
		},
	},
	{
		name: "duplicate rollback SQL is cleared on duplicate",
		operations: []ddl.Operation{
			{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users", RollbackSQL: "DROP TABLE users"},
			{Kind: ddl.OperationSQL, SQL: "CREATE TABLE posts", RollbackSQL: "DROP TABLE users"},
		},
		want: []ddl.Operation{
			{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users", RollbackSQL: "DROP TABLE users"},
			{Kind: ddl.OperationSQL, SQL: "CREATE TABLE posts", RollbackSQL: ""},
		},
	},
	{
		name: "empty SQL operations are removed",
		operations: []ddl.Operation{
			{Kind: ddl.OperationSQL, SQL: "", RollbackSQL: ""},
			{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users"},
		},
		want: []ddl.Operation{
			{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users"},
		},
	},
	{
		name: "whitespace is trimmed before deduplication",
		operations: []ddl.Operation{
			{Kind: ddl.OperationNote, SQL: "  Note  "},
			{Kind: ddl.OperationNote, SQL: "Note"},
		},
		want: []ddl.Operation{
			{Kind: ddl.OperationNote, SQL: "Note"},
		},
	},
	{
		name: "complex mixed scenario",
		operations: []ddl.Operation{
			{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users", RollbackSQL: "DROP TABLE users"},
			{Kind: ddl.OperationNote, SQL: "Note 1"},
			{Kind: ddl.OperationBreaking, SQL: "Breaking 1"},
			{Kind: ddl.OperationUnresolved, UnresolvedReason: "Issue 1"},
			{Kind: ddl.OperationSQL, SQL: "CREATE TABLE posts", RollbackSQL: "DROP TABLE users"},
			{Kind: ddl.OperationNote, SQL: "Note 1"},
			{Kind: ddl.OperationBreaking, SQL: "Breaking 1"},
			{Kind: ddl.OperationUnresolved, UnresolvedReason: "Issue 1"},
			{Kind: ddl.OperationNote, SQL: "   "},
		},
		want: []ddl.Operation{
			{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users", RollbackSQL: "DROP TABLE users"},
			{Kind: ddl.OperationNote, SQL: "Note 1"},
			{Kind: ddl.OperationBreaking, SQL: "Breaking 1"},
			{Kind: ddl.OperationUnresolved, UnresolvedReason: "Issue 1"},
			{Kind: ddl.OperationSQL, SQL: "CREATE TABLE posts", RollbackSQL: ""},
		},
	},
}

func TestMigrationDedupe(t *testing.T) {
	for _, tt := range migrationDedupeTests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migration{Operations: tt.operations}
			m.Dedupe()
			assert.Equal(t, tt.want, m.Operations)
		})
	}
}

func TestMigrationMultipleAddCalls(t *testing.T) {
	m := &Migration{}

	m.AddStatement("CREATE TABLE users (id INT)")
	m.AddStatementWithRollback("CREATE TABLE posts (id INT)", "DROP TABLE posts")
	m.AddBreaking("Schema breaking change")
	m.AddNote("Informational note")
	m.AddUnresolved("Unresolved issue")

	expectedOps := []ddl.Operation{
		{Kind: ddl.OperationSQL, SQL: "CREATE TABLE users (id INT)"},
		{Kind: ddl.OperationSQL, SQL: "CREATE TABLE posts (id INT)", RollbackSQL: "DROP TABLE posts"},
		{Kind: ddl.OperationBreaking, SQL: "Schema breaking change", Risk: ddl.RiskBreaking},
		{Kind: ddl.OperationNote, SQL: "Informational note", Risk: ddl.RiskInfo},
		{Kind: ddl.OperationUnresolved, UnresolvedReason: "Unresolved issue"},
	}

	assert.Equal(t, expectedOps, m.Operations)
	assert.Equal(t, []string{"CREATE TABLE users (id INT)", "CREATE TABLE posts (id INT)"}, m.SQLStatements())
	assert.Equal(t, []string{"DROP TABLE posts"}, m.RollbackStatements())
	assert.Equal(t, []string{"Schema breaking change"}, m.BreakingNotes())
	assert.Equal(t, []string{"Informational note"}, m.InfoNotes())
	assert.Equal(t, []string{"Unresolved issue"}, m.UnresolvedNotes())
}

func TestMigrationDedupePreservesOrder(t *testing.T) {
	m := &Migration{
		Operations: []ddl.Operation{
			{Kind: ddl.OperationSQL, SQL: "First SQL"},
			{Kind: ddl.OperationNote, SQL: "First Note"},
			{Kind: ddl.OperationSQL, SQL: "Second SQL"},
			{Kind: ddl.OperationNote, SQL: "First Note"},
			{Kind: ddl.OperationSQL, SQL: "Third SQL"},
		},
	}

	m.Dedupe()

	expected := []ddl.Operation{
		{Kind: ddl.OperationSQL, SQL: "First SQL"},
		{Kind: ddl.OperationNote, SQL: "First Note"},
		{Kind: ddl.OperationSQL, SQL: "Second SQL"},
		{Kind: ddl.OperationSQL, SQL: "Third SQL"},
	}

	assert.Equal(t, expected, m.Operations)
}
