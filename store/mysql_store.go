package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/n-r-w/zfcore/dataobject"
	"github.com/n-r-w/zfcore/entity"
	"github.com/n-r-w/zfcore/schema"
)

// MySQLStore is the reference entity.Collaborator: it implements
// spec.md §6's logical Get/Write/Remove contract against a live MySQL
// database using the tables Schema derives from each registered entity
// kind's DataStructure.
type MySQLStore struct {
	db      *sql.DB
	schemas map[string]*schema.DataStructure
	logger  *zap.Logger
}

// NewMySQLStore wraps an already-connected *sql.DB (see store/apply's
// Connect for the DSN-open/ping idiom this store expects its caller to
// have already run).
func NewMySQLStore(db *sql.DB, logger *zap.Logger) *MySQLStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MySQLStore{db: db, schemas: make(map[string]*schema.DataStructure), logger: logger}
}

// Register tells the store which DataStructure backs an entity code, so
// Get/Write/Remove know which table and columns to address. Entity kinds
// must be registered before any Uid naming them is used.
func (s *MySQLStore) Register(ds *schema.DataStructure) {
	s.schemas[ds.EntityCode()] = ds
}

func (s *MySQLStore) dataStructure(entityCode string) (*schema.DataStructure, error) {
	ds, ok := s.schemas[entityCode]
	if !ok {
		return nil, fmt.Errorf("store: entity code %q is not registered", entityCode)
	}
	return ds, nil
}

// Get implements entity.Collaborator: it loads the requested scalar
// Field properties from the entity's own row and, for any requested
// Dataset property, every row of that dataset's child table.
func (s *MySQLStore) Get(ctx context.Context, uid entity.Uid, properties []schema.PropertyID, _ map[string]any) (entity.GetResponse, error) {
	if uid.Kind() != entity.KindPersistent {
		return entity.GetResponse{}, fmt.Errorf("store: Get requires a persistent Uid, got %s", uid.Kind())
	}
	ds, err := s.dataStructure(uid.EntityCode())
	if err != nil {
		return entity.GetResponse{}, err
	}

	data := dataobject.New(ds)
	var scalarCols []string
	var scalarProps []*schema.DataProperty
	var datasetProps []*schema.DataProperty
	for _, pid := range properties {
		p := ds.Property(pid)
		if p == nil || p.Options.DBReadIgnored {
			continue
		}
		switch p.Kind {
		case schema.KindField:
			scalarCols = append(scalarCols, p.Name)
			scalarProps = append(scalarProps, p)
		case schema.KindDataset:
			datasetProps = append(datasetProps, p)
		}
	}

	if len(scalarCols) > 0 {
		if err := s.loadScalars(ctx, data, uid, scalarCols, scalarProps); err != nil {
			return entity.GetResponse{}, err
		}
	}
	for _, p := range datasetProps {
		if err := s.loadDataset(ctx, data, uid, p); err != nil {
			return entity.GetResponse{}, err
		}
	}

	return entity.GetResponse{Data: data, AccessRights: entity.AccessRights{Direct: true, Relational: true}}, nil
}

func (s *MySQLStore) loadScalars(ctx context.Context, data *dataobject.ModuleDataObject, uid entity.Uid, cols []string, props []*schema.DataProperty) error {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		quoteJoin(cols), quoteIdent(entityTableName(uid.EntityCode())), quoteIdent(idColumnName))
	dest := make([]any, len(cols))
	for i := range dest {
		dest[i] = new(any)
	}
	row := s.db.QueryRowContext(ctx, query, uid.IntID())
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("store: entity %s not found", uid)
		}
		return fmt.Errorf("store: load scalars for %s: %w", uid, err)
	}
	for i, p := range props {
		v := *(dest[i].(*any))
		if err := data.Container().InitValue(p.ID, v, ""); err != nil {
			return fmt.Errorf("store: assign %s.%s: %w", uid.EntityCode(), p.Name, err)
		}
	}
	return nil
}

func (s *MySQLStore) loadDataset(ctx context.Context, data *dataobject.ModuleDataObject, uid entity.Uid, p *schema.DataProperty) error {
	cols := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		cols[i] = c.Name
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE entity_id = ?",
		quoteJoin(cols), quoteIdent(datasetTableName(uid.EntityCode(), p.Name)))
	rows, err := s.db.QueryContext(ctx, query, uid.IntID())
	if err != nil {
		return fmt.Errorf("store: load dataset %s: %w", p.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		dest := make([]any, len(cols))
		for i := range dest {
			dest[i] = new(any)
		}
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("store: scan dataset %s row: %w", p.Name, err)
		}
		if _, err := data.Container().InsertRow(p.ID); err != nil {
			return fmt.Errorf("store: insert row into dataset %s: %w", p.Name, err)
		}
		pos := data.Container().RowCount(p.ID) - 1
		for i := range cols {
			// Re-fetch the row's current id each column: writing the
			// Id-tagged column recomputes it from Generated to Real
			// mid-loop (container.SetCellValue), so a stale id from
			// before that write would no longer resolve.
			id := data.Container().RowIDAt(p.ID, pos)
			v := *(dest[i].(*any))
			if err := data.Container().SetCellValue(p.ID, id, i, v); err != nil {
				return fmt.Errorf("store: dataset %s column %s: %w", p.Name, cols[i], err)
			}
		}
	}
	return rows.Err()
}

// Write implements entity.Collaborator: it inserts (temporary Uid) or
// updates (persistent Uid) the entity's scalar row and rewrites the rows
// of every requested dataset. A temporary Uid is assigned a persistent
// identity via the entity table's AUTO_INCREMENT id.
func (s *MySQLStore) Write(ctx context.Context, uid entity.Uid, properties []schema.PropertyID, data *dataobject.ModuleDataObject, _ map[string]any, _ bool) (entity.WriteResponse, error) {
	ds, err := s.dataStructure(uid.EntityCode())
	if err != nil {
		return entity.WriteResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return entity.WriteResponse{}, fmt.Errorf("store: begin write transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	resp := entity.WriteResponse{}
	entityID := uid.IntID()

	var scalarCols []string
	var scalarVals []any
	var datasetProps []*schema.DataProperty
	for _, pid := range properties {
		p := ds.Property(pid)
		if p == nil || p.Options.DBWriteIgnored {
			continue
		}
		switch p.Kind {
		case schema.KindField:
			v, verr := data.Container().Value(pid, "")
			if verr != nil {
				return entity.WriteResponse{}, fmt.Errorf("store: read %s for write: %w", p.Name, verr)
			}
			scalarCols = append(scalarCols, p.Name)
			scalarVals = append(scalarVals, v)
			resp.WrittenProperties = append(resp.WrittenProperties, pid)
		case schema.KindDataset:
			datasetProps = append(datasetProps, p)
			resp.WrittenProperties = append(resp.WrittenProperties, pid)
		}
	}

	if uid.Kind() == entity.KindTemporary {
		id, werr := s.insertEntity(ctx, tx, uid.EntityCode(), scalarCols, scalarVals)
		if werr != nil {
			return entity.WriteResponse{}, werr
		}
		entityID = id
		resp.PersistentUID = entity.NewPersistent(uid.EntityCode(), uid.DatabaseID(), id)
	} else if len(scalarCols) > 0 {
		if werr := s.updateEntity(ctx, tx, uid.EntityCode(), entityID, scalarCols, scalarVals); werr != nil {
			return entity.WriteResponse{}, werr
		}
	}

	for _, p := range datasetProps {
		if werr := s.writeDataset(ctx, tx, uid.EntityCode(), entityID, data, p); werr != nil {
			return entity.WriteResponse{}, werr
		}
	}

	if err := tx.Commit(); err != nil {
		return entity.WriteResponse{}, fmt.Errorf("store: commit write: %w", err)
	}
	return resp, nil
}

func (s *MySQLStore) insertEntity(ctx context.Context, tx *sql.Tx, entityCode string, cols []string, vals []any) (int64, error) {
	var query string
	if len(cols) == 0 {
		query = fmt.Sprintf("INSERT INTO %s () VALUES ()", quoteIdent(entityTableName(entityCode)))
	} else {
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			quoteIdent(entityTableName(entityCode)), quoteJoin(cols), placeholders(len(cols)))
	}
	res, err := tx.ExecContext(ctx, query, vals...)
	if err != nil {
		return 0, fmt.Errorf("store: insert entity %s: %w", entityCode, err)
	}
	return res.LastInsertId()
}

func (s *MySQLStore) updateEntity(ctx context.Context, tx *sql.Tx, entityCode string, id int64, cols []string, vals []any) error {
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = quoteIdent(c) + " = ?"
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		quoteIdent(entityTableName(entityCode)), strings.Join(sets, ", "), quoteIdent(idColumnName))
	args := append(append([]any{}, vals...), id)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("store: update entity %s#%d: %w", entityCode, id, err)
	}
	return nil
}

// writeDataset replaces a dataset's persisted rows with its current
// in-memory rows: it deletes every child-table row of the entity and
// inserts each in-memory row again, whether or not the dataset declares
// an Id column. No row is updated in place.
func (s *MySQLStore) writeDataset(ctx context.Context, tx *sql.Tx, entityCode string, entityID int64, data *dataobject.ModuleDataObject, p *schema.DataProperty) error {
	table := quoteIdent(datasetTableName(entityCode, p.Name))
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE entity_id = ?", table), entityID); err != nil {
		return fmt.Errorf("store: clear dataset %s: %w", p.Name, err)
	}

	n := data.Container().RowCount(p.ID)
	cols := append([]string{"entity_id"}, columnNames(p.Columns)...)
	for i := 0; i < n; i++ {
		rowID := data.Container().RowIDAt(p.ID, i)
		vals := make([]any, len(cols))
		vals[0] = entityID
		for c := range p.Columns {
			v, err := data.Container().CellValue(p.ID, rowID, c)
			if err != nil {
				return fmt.Errorf("store: read %s row %d col %d: %w", p.Name, i, c, err)
			}
			vals[c+1] = v
		}
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, quoteJoin(cols), placeholders(len(cols)))
		if _, err := tx.ExecContext(ctx, query, vals...); err != nil {
			return fmt.Errorf("store: insert %s row %d: %w", p.Name, i, err)
		}
	}
	return nil
}

// Remove implements entity.Collaborator: it deletes the entity's row
// (child dataset rows cascade via the foreign key's ON DELETE CASCADE).
func (s *MySQLStore) Remove(ctx context.Context, uid entity.Uid, _ map[string]any) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", quoteIdent(entityTableName(uid.EntityCode())), quoteIdent(idColumnName))
	if _, err := s.db.ExecContext(ctx, query, uid.IntID()); err != nil {
		return fmt.Errorf("store: remove %s: %w", uid, err)
	}
	return nil
}

func columnNames(cols []schema.DataProperty) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "?"
	}
	return strings.Join(parts, ", ")
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func quoteJoin(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quoteIdent(n)
	}
	return strings.Join(out, ", ")
}
