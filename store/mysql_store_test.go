package store

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"go.uber.org/zap/zaptest"

	"github.com/n-r-w/zfcore/entity"
	"github.com/n-r-w/zfcore/schema"
	"github.com/n-r-w/zfcore/store/apply"
	"github.com/n-r-w/zfcore/store/ddlgen"
)

func TestMySQLStoreRoundTripIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupMySQLForStore(t)
	ctx := context.Background()

	ds := buildOrderSchema(t)
	for _, stmt := range createTableStatements(t, ds) {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	st := NewMySQLStore(db, zaptest.NewLogger(t))
	st.Register(ds)

	uid := entity.NewTemporary("order", "default")
	m := entity.NewModel(ds, uid, st)

	nameID := customerNameFieldID(t, ds)
	require.NoError(t, m.Container().SetValue(nameID, "Ada", ""))

	linesDataset := ds.Properties()[1].ID
	rowID, err := m.Container().InsertRow(linesDataset)
	require.NoError(t, err)
	require.NoError(t, m.Container().SetCellValue(linesDataset, rowID, 0, "SKU-1"))
	require.NoError(t, m.Container().SetCellValue(linesDataset, rowID, 1, int64(3)))

	outcome, err := m.SaveSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.Queued, outcome)
	assert.Equal(t, entity.KindPersistent, m.Uid().Kind())

	loaded := entity.NewModel(ds, m.Uid(), st)
	_, err = loaded.LoadSync(ctx, entity.LoadOptions{}, allPropertyIDsForTest(ds))
	require.NoError(t, err)

	v, err := loaded.Container().Value(nameID, "")
	require.NoError(t, err)
	assert.Equal(t, "Ada", v)
	assert.Equal(t, 1, loaded.Container().RowCount(linesDataset))

	require.NoError(t, st.Remove(ctx, loaded.Uid(), nil))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM zf_order").Scan(&count))
	assert.Zero(t, count)
}

func customerNameFieldID(t *testing.T, ds *schema.DataStructure) schema.PropertyID {
	t.Helper()
	for _, p := range ds.Properties() {
		if p.Kind == schema.KindField && p.Name == "customer_name" {
			return p.ID
		}
	}
	t.Fatal("customer_name field not found in schema")
	return 0
}

func allPropertyIDsForTest(ds *schema.DataStructure) []schema.PropertyID {
	ids := make([]schema.PropertyID, 0, len(ds.Properties()))
	for _, p := range ds.Properties() {
		ids = append(ids, p.ID)
	}
	return ids
}

func createTableStatements(t *testing.T, ds *schema.DataStructure) []string {
	t.Helper()
	tables := Schema(ds, DefaultMySQLTableOptions)
	gen := ddlgen.NewMySQLGenerator()
	var statements []string
	for _, tbl := range tables {
		create, extra := gen.GenerateCreateTable(tbl)
		statements = append(statements, create)
		statements = append(statements, extra...)
	}
	return statements
}

func setupMySQLForStore(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	mysqlContainer, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("testdb"),
		mysql.WithUsername("root"),
		mysql.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(mysqlContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := mysqlContainer.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err, "failed to get connection string")

	applier := apply.NewApplier(apply.Options{DSN: dsn})
	require.NoError(t, applier.Connect(ctx))
	t.Cleanup(func() { _ = applier.Close() })

	db, err := applier.DB()
	require.NoError(t, err)
	return db
}
