// Package main contains the cli implementation of the tool. It uses cobra
// package for cli tool implementation.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/n-r-w/zfcore/entity"
	"github.com/n-r-w/zfcore/schema"
	"github.com/n-r-w/zfcore/schemaconfig"
	"github.com/n-r-w/zfcore/store"
	"github.com/n-r-w/zfcore/store/apply"
	"github.com/n-r-w/zfcore/store/tomlschema"
)

type syncFlags struct {
	dsn    string
	dbName string
	dryRun bool
}

type entityFlags struct {
	dsn        string
	schemaFile string
	entityCode string
	databaseID string
	id         int64
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "zfcore",
		Short: "Entity schema validation, sync, and record access",
	}

	rootCmd.AddCommand(schemaCmd())
	rootCmd.AddCommand(entityCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Validate and sync entity-kind schema definitions",
	}
	cmd.AddCommand(schemaValidateCmd())
	cmd.AddCommand(schemaSyncCmd())
	cmd.AddCommand(schemaRawSyncCmd())
	return cmd
}

func schemaValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <schema.toml>",
		Short: "Load a TOML entity-kind definition and report validation errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ds, err := schemaconfig.Load(args[0])
			if err != nil {
				return fmt.Errorf("invalid schema: %w", err)
			}
			fmt.Printf("entity %q: %d properties, version %d\n", ds.EntityCode(), len(ds.Properties()), ds.Version())
			return nil
		},
	}
}

func schemaSyncCmd() *cobra.Command {
	flags := &syncFlags{}
	cmd := &cobra.Command{
		Use:   "sync <schema.toml> [schema.toml ...]",
		Short: "Diff entity-kind schemas against a live MySQL database and apply the migration",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runSchemaSync(args, flags)
		},
	}
	cmd.Flags().StringVar(&flags.dsn, "dsn", "", "MySQL connection string (required)")
	cmd.Flags().StringVar(&flags.dbName, "db-name", "zfcore", "Logical database name recorded in the migration")
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "d", false, "Compute and print the migration without applying it")
	_ = cmd.MarkFlagRequired("dsn")
	return cmd
}

func runSchemaSync(files []string, flags *syncFlags) error {
	dataStructures := make([]*schema.DataStructure, 0, len(files))
	for _, f := range files {
		ds, err := schemaconfig.Load(f)
		if err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
		dataStructures = append(dataStructures, ds)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	conn := apply.NewApplier(apply.Options{DSN: flags.dsn, DryRun: flags.dryRun, Out: os.Stdout, SkipConfirmation: flags.dryRun})
	if err := conn.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = conn.Close() }()

	mig, err := store.Sync(ctx, conn, flags.dbName, dataStructures, store.DefaultMySQLTableOptions, flags.dryRun)
	if err != nil {
		return err
	}

	statements := mig.SQLStatements()
	if len(statements) == 0 {
		fmt.Println("schema already in sync, nothing to do")
		return nil
	}
	fmt.Printf("%d statement(s)%s:\n", len(statements), ternary(flags.dryRun, " (dry run)", ""))
	for _, s := range statements {
		fmt.Println("  " + s)
	}
	return nil
}

func schemaRawSyncCmd() *cobra.Command {
	flags := &syncFlags{}
	cmd := &cobra.Command{
		Use:   "raw-sync <tables.toml>",
		Short: "Sync tables described directly as DDL TOML, not owned by any entity kind (e.g. lookup targets)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runSchemaRawSync(args[0], flags)
		},
	}
	cmd.Flags().StringVar(&flags.dsn, "dsn", "", "MySQL connection string (required)")
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "d", false, "Compute and print the migration without applying it")
	_ = cmd.MarkFlagRequired("dsn")
	return cmd
}

func runSchemaRawSync(file string, flags *syncFlags) error {
	desired, err := tomlschema.NewParser().ParseFile(file)
	if err != nil {
		return fmt.Errorf("loading %s: %w", file, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	conn := apply.NewApplier(apply.Options{DSN: flags.dsn, DryRun: flags.dryRun, Out: os.Stdout, SkipConfirmation: flags.dryRun})
	if err := conn.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = conn.Close() }()

	mig, err := store.SyncRawDatabase(ctx, conn, desired, flags.dryRun)
	if err != nil {
		return err
	}

	statements := mig.SQLStatements()
	if len(statements) == 0 {
		fmt.Println("schema already in sync, nothing to do")
		return nil
	}
	fmt.Printf("%d statement(s)%s:\n", len(statements), ternary(flags.dryRun, " (dry run)", ""))
	for _, s := range statements {
		fmt.Println("  " + s)
	}
	return nil
}

func ternary(cond bool, whenTrue, whenFalse string) string {
	if cond {
		return whenTrue
	}
	return whenFalse
}

func entityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity",
		Short: "Load, edit, and save entity records against a live MySQL database",
	}
	cmd.AddCommand(entityGetCmd())
	cmd.AddCommand(entitySetCmd())
	return cmd
}

func addEntityFlags(cmd *cobra.Command, flags *entityFlags) {
	cmd.Flags().StringVar(&flags.dsn, "dsn", "", "MySQL connection string (required)")
	cmd.Flags().StringVar(&flags.schemaFile, "schema", "", "Path to the entity's TOML schema definition (required)")
	cmd.Flags().StringVar(&flags.entityCode, "entity", "", "Entity code; defaults to the schema file's own code")
	cmd.Flags().StringVar(&flags.databaseID, "database-id", "default", "Database-id component of the entity's Uid")
	cmd.Flags().Int64Var(&flags.id, "id", 0, "Persistent numeric id of the record (0 for a new record)")
	_ = cmd.MarkFlagRequired("dsn")
	_ = cmd.MarkFlagRequired("schema")
}

func entityGetCmd() *cobra.Command {
	flags := &entityFlags{}
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Load a persistent entity record and print its scalar field values",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runEntityGet(flags)
		},
	}
	addEntityFlags(cmd, flags)
	return cmd
}

func entitySetCmd() *cobra.Command {
	flags := &entityFlags{}
	cmd := &cobra.Command{
		Use:   "set <field=value> [field=value ...]",
		Short: "Load (if --id is set) or create a record, apply field assignments, and save it",
		RunE: func(_ *cobra.Command, args []string) error {
			return runEntitySet(flags, args)
		},
	}
	addEntityFlags(cmd, flags)
	return cmd
}

func openStore(flags *entityFlags) (*schema.DataStructure, *apply.Applier, *store.MySQLStore, error) {
	ds, err := schemaconfig.Load(flags.schemaFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading schema: %w", err)
	}
	if flags.entityCode == "" {
		flags.entityCode = ds.EntityCode()
	}

	conn := apply.NewApplier(apply.Options{DSN: flags.dsn})
	if err := conn.Connect(context.Background()); err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		_ = conn.Close()
		return nil, nil, nil, err
	}
	st := store.NewMySQLStore(sqlDB, zap.NewNop())
	st.Register(ds)
	return ds, conn, st, nil
}

func uidFor(ds *schema.DataStructure, flags *entityFlags) entity.Uid {
	if flags.id == 0 {
		return entity.NewTemporary(flags.entityCode, flags.databaseID)
	}
	return entity.NewPersistent(flags.entityCode, flags.databaseID, flags.id)
}

func allPropertyIDs(ds *schema.DataStructure) []schema.PropertyID {
	ids := make([]schema.PropertyID, 0, len(ds.Properties()))
	for _, p := range ds.Properties() {
		ids = append(ids, p.ID)
	}
	return ids
}

func runEntityGet(flags *entityFlags) error {
	ds, conn, st, err := openStore(flags)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	m := entity.NewModel(ds, uidFor(ds, flags), st)
	outcome, err := m.LoadSync(context.Background(), entity.LoadOptions{}, allPropertyIDs(ds))
	if err != nil {
		return fmt.Errorf("loading entity: %w", err)
	}
	fmt.Printf("load: %s\n", outcome)

	for _, p := range ds.Properties() {
		if p.Kind != schema.KindField {
			continue
		}
		v, err := m.Container().Value(p.ID, "")
		if err != nil {
			fmt.Printf("%s: <error: %v>\n", p.Name, err)
			continue
		}
		fmt.Printf("%s: %v\n", p.Name, v)
	}
	return nil
}

func runEntitySet(flags *entityFlags, assignments []string) error {
	ds, conn, st, err := openStore(flags)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	byName := make(map[string]*schema.DataProperty, len(ds.Properties()))
	for _, p := range ds.Properties() {
		byName[p.Name] = p
	}

	m := entity.NewModel(ds, uidFor(ds, flags), st)
	if flags.id != 0 {
		if _, err := m.LoadSync(context.Background(), entity.LoadOptions{}, allPropertyIDs(ds)); err != nil {
			return fmt.Errorf("loading entity before edit: %w", err)
		}
	}

	for _, assignment := range assignments {
		name, raw, ok := splitAssignment(assignment)
		if !ok {
			return fmt.Errorf("invalid assignment %q, expected field=value", assignment)
		}
		p, ok := byName[name]
		if !ok {
			return fmt.Errorf("unknown field %q", name)
		}
		v, err := convertAssignment(p.DataType, raw)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		if err := m.Container().SetValue(p.ID, v, ""); err != nil {
			return fmt.Errorf("setting field %q: %w", name, err)
		}
	}

	outcome, err := m.SaveSync(context.Background())
	if err != nil {
		return fmt.Errorf("saving entity: %w", err)
	}
	fmt.Printf("save: %s, uid: %s\n", outcome, m.Uid())
	return nil
}

func splitAssignment(s string) (name, value string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

func convertAssignment(dt schema.DataType, raw string) (any, error) {
	switch dt {
	case schema.DataTypeInt:
		return strconv.ParseInt(raw, 10, 64)
	case schema.DataTypeUint:
		return strconv.ParseUint(raw, 10, 64)
	case schema.DataTypeNumeric, schema.DataTypeDouble:
		return strconv.ParseFloat(raw, 64)
	case schema.DataTypeBool:
		return strconv.ParseBool(raw)
	default:
		return raw, nil
	}
}
