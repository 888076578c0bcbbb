package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/shubhammm008/Infosys-Team5/core"
)

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Backend is a core.Backend over the relational schema.
// Rows use snake_case names; array and object values live in JSONB columns.
type Backend struct {
	db *sqlx.DB
}

var (
	_ core.Backend = (*Backend)(nil) // interface compliance check
	_ core.Joiner  = (*Backend)(nil)
)

func NewBackend(db *sqlx.DB) *Backend {
	return &Backend{db: db}
}

func (b *Backend) Naming() core.Naming { return core.SnakeCase }

func ident(name string) (string, error) {
	if !identRe.MatchString(name) {
		return "", errors.Errorf("invalid identifier %q", name)
	}
	return name, nil
}

func tableName(t core.Table) (string, error) {
	return ident(t.Relational())
}

// argValue converts a row value into a driver argument.
func argValue(v interface{}) (interface{}, error) {
	switch v.(type) {
	case []interface{}, map[string]interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	}
	return v, nil
}

func sortedColumns(row core.Row) ([]string, error) {
	cols := make([]string, 0, len(row))
	for col := range row {
		if _, err := ident(col); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols, nil
}

func notFound(table core.Table, id string) error {
	return fmt.Errorf("%s %s: %w", table, id, core.ErrNotFound)
}

func (b *Backend) Create(ctx context.Context, table core.Table, row core.Row) (string, error) {
	tbl, err := tableName(table)
	if err != nil {
		return "", err
	}
	id, _ := row["id"].(string)
	if id == "" {
		id = core.NewID()
	}
	vals := make(core.Row, len(row)+1)
	for k, v := range row {
		vals[k] = v
	}
	vals["id"] = id

	cols, err := sortedColumns(vals)
	if err != nil {
		return "", err
	}
	args := make([]interface{}, 0, len(cols))
	for _, col := range cols {
		arg, err := argValue(vals[col])
		if err != nil {
			return "", errors.Wrapf(err, "encoding %s", col)
		}
		args = append(args, arg)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tbl, strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	if _, err = b.db.ExecContext(ctx, b.db.Rebind(q), args...); err != nil {
		return "", errors.Wrapf(err, "inserting into %s", tbl)
	}
	return id, nil
}

func (b *Backend) Update(ctx context.Context, table core.Table, id string, row core.Row) error {
	tbl, err := tableName(table)
	if err != nil {
		return err
	}
	vals := make(core.Row, len(row))
	for k, v := range row {
		if k != "id" {
			vals[k] = v
		}
	}
	if len(vals) == 0 {
		_, err := b.Fetch(ctx, table, id)
		return err
	}
	cols, err := sortedColumns(vals)
	if err != nil {
		return err
	}
	sets := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols)+1)
	for _, col := range cols {
		arg, err := argValue(vals[col])
		if err != nil {
			return errors.Wrapf(err, "encoding %s", col)
		}
		sets = append(sets, col+" = ?")
		args = append(args, arg)
	}
	args = append(args, id)
	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", tbl, strings.Join(sets, ", "))
	res, err := b.db.ExecContext(ctx, b.db.Rebind(q), args...)
	if err != nil {
		return errors.Wrapf(err, "updating %s", tbl)
	}
	return checkAffected(res, table, id)
}

func checkAffected(res sql.Result, table core.Table, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "counting affected rows")
	}
	if n == 0 {
		return notFound(table, id)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, table core.Table, id string) error {
	tbl, err := tableName(table)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("DELETE FROM %s WHERE id = ?", tbl)
	res, err := b.db.ExecContext(ctx, b.db.Rebind(q), id)
	if err != nil {
		return errors.Wrapf(err, "deleting from %s", tbl)
	}
	return checkAffected(res, table, id)
}

func (b *Backend) Fetch(ctx context.Context, table core.Table, id string) (core.Row, error) {
	rows, err := b.QueryMultiple(ctx, table, core.Filter{Field: "id", Value: id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, notFound(table, id)
	}
	return rows[0], nil
}

func (b *Backend) FetchAll(ctx context.Context, table core.Table) ([]core.Row, error) {
	return b.QueryMultiple(ctx, table)
}

func (b *Backend) Query(ctx context.Context, table core.Table, field string, value interface{}) ([]core.Row, error) {
	return b.QueryMultiple(ctx, table, core.Filter{Field: field, Value: value})
}

func (b *Backend) QueryMultiple(ctx context.Context, table core.Table, filters ...core.Filter) ([]core.Row, error) {
	tbl, err := tableName(table)
	if err != nil {
		return nil, err
	}
	where, args, err := whereClause(filters)
	if err != nil {
		return nil, err
	}
	return b.selectRows(ctx, fmt.Sprintf("SELECT * FROM %s%s", tbl, where), args...)
}

// QueryInner returns the rows of table having a related row in join.Table.
func (b *Backend) QueryInner(ctx context.Context, table core.Table, join core.Join) ([]core.Row, error) {
	tbl, err := tableName(table)
	if err != nil {
		return nil, err
	}
	jtbl, err := tableName(join.Table)
	if err != nil {
		return nil, err
	}
	fk, err := ident(join.ForeignKey)
	if err != nil {
		return nil, err
	}
	fld, err := ident(join.Field)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(
		"SELECT t.* FROM %s t WHERE EXISTS (SELECT 1 FROM %s j WHERE j.%s = t.id AND j.%s = ?)",
		tbl, jtbl, fk, fld,
	)
	return b.selectRows(ctx, q, join.Value)
}

func whereClause(filters []core.Filter) (string, []interface{}, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	conds := make([]string, 0, len(filters))
	args := make([]interface{}, 0, len(filters))
	for _, f := range filters {
		col, err := ident(f.Field)
		if err != nil {
			return "", nil, err
		}
		if f.Value == nil {
			conds = append(conds, col+" IS NULL")
			continue
		}
		conds = append(conds, col+" = ?")
		args = append(args, f.Value)
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func (b *Backend) selectRows(ctx context.Context, q string, args ...interface{}) ([]core.Row, error) {
	rows, err := b.db.QueryxContext(ctx, b.db.Rebind(q), args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying")
	}
	defer func() { _ = rows.Close() }()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, errors.Wrap(err, "reading column types")
	}
	out := make([]core.Row, 0)
	for rows.Next() {
		vals := make(map[string]interface{}, len(colTypes))
		if err = rows.MapScan(vals); err != nil {
			return nil, errors.Wrap(err, "scanning row")
		}
		row := make(core.Row, len(vals))
		for _, ct := range colTypes {
			v, err := columnValue(ct.DatabaseTypeName(), vals[ct.Name()])
			if err != nil {
				return nil, errors.Wrapf(err, "reading column %s", ct.Name())
			}
			row[ct.Name()] = v
		}
		out = append(out, row)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating rows")
	}
	return out, nil
}

// columnValue turns a scanned value into its row form; sqlite has no native booleans or JSON.
func columnValue(dbType string, v interface{}) (interface{}, error) {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil, nil
	}
	switch strings.ToUpper(dbType) {
	case "BOOLEAN", "BOOL":
		switch x := v.(type) {
		case int64:
			return x != 0, nil
		case string:
			return x == "1" || strings.EqualFold(x, "true") || x == "t", nil
		}
	case "JSON", "JSONB":
		if s, ok := v.(string); ok {
			var out interface{}
			if err := json.Unmarshal([]byte(s), &out); err != nil {
				return nil, err
			}
			return out, nil
		}
	}
	if t, ok := v.(time.Time); ok {
		return t.UTC(), nil
	}
	return v, nil
}
