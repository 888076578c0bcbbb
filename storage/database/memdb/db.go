// Package memdb is an in-memory, document-style core.Backend with camelCase field names.
package memdb

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/pkg/errors"

	"github.com/shubhammm008/Infosys-Team5/core"
)

type (
	DB struct {
		sync.RWMutex
		tables map[core.Table]*table
	}

	table struct {
		order []string // insertion order of ids
		rows  map[string]core.Row
	}
)

var _ core.Backend = (*DB)(nil) // interface compliance check

func Open() *DB {
	db := &DB{tables: make(map[core.Table]*table, len(core.Tables))}
	for _, name := range core.Tables {
		db.tables[name] = &table{rows: make(map[string]core.Row)}
	}
	return db
}

func (db *DB) Naming() core.Naming { return core.CamelCase }

func (db *DB) table(name core.Table) (*table, error) {
	tbl, ok := db.tables[name]
	if !ok {
		return nil, errors.Errorf("memdb: unknown table %q", name)
	}
	return tbl, nil
}

// normalize deep-copies v into its JSON form, so stored rows share nothing with callers
// and compare equal to filter values of any Go type.
func normalize(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	err = json.Unmarshal(data, &out)
	return out, err
}

func copyRow(row core.Row) (core.Row, error) {
	v, err := normalize(row)
	if err != nil {
		return nil, errors.Wrap(err, "memdb: copying row")
	}
	out, _ := v.(map[string]interface{})
	if out == nil {
		out = make(map[string]interface{})
	}
	return out, nil
}

func notFound(name core.Table, id string) error {
	return fmt.Errorf("memdb: %s %s: %w", name, id, core.ErrNotFound)
}

func (db *DB) Create(ctx context.Context, name core.Table, row core.Row) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	row, err := copyRow(row)
	if err != nil {
		return "", err
	}
	id, _ := row["id"].(string)
	if id == "" {
		id = core.NewID()
		row["id"] = id
	}

	db.Lock()
	defer db.Unlock()
	tbl, err := db.table(name)
	if err != nil {
		return "", err
	}
	if _, exists := tbl.rows[id]; exists {
		return "", errors.Errorf("memdb: %s %s already exists", name, id)
	}
	tbl.rows[id] = row
	tbl.order = append(tbl.order, id)
	return id, nil
}

func (db *DB) Update(ctx context.Context, name core.Table, id string, row core.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row, err := copyRow(row)
	if err != nil {
		return err
	}

	db.Lock()
	defer db.Unlock()
	tbl, err := db.table(name)
	if err != nil {
		return err
	}
	stored, ok := tbl.rows[id]
	if !ok {
		return notFound(name, id)
	}
	for k, v := range row {
		if k == "id" {
			continue
		}
		if v == nil {
			delete(stored, k)
			continue
		}
		stored[k] = v
	}
	return nil
}

func (db *DB) Delete(ctx context.Context, name core.Table, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.Lock()
	defer db.Unlock()
	tbl, err := db.table(name)
	if err != nil {
		return err
	}
	if _, ok := tbl.rows[id]; !ok {
		return notFound(name, id)
	}
	delete(tbl.rows, id)
	for i, oid := range tbl.order {
		if oid == id {
			tbl.order = append(tbl.order[:i], tbl.order[i+1:]...)
			break
		}
	}
	return nil
}

func (db *DB) Fetch(ctx context.Context, name core.Table, id string) (core.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db.RLock()
	defer db.RUnlock()
	tbl, err := db.table(name)
	if err != nil {
		return nil, err
	}
	row, ok := tbl.rows[id]
	if !ok {
		return nil, notFound(name, id)
	}
	return copyRow(row)
}

func (db *DB) FetchAll(ctx context.Context, name core.Table) ([]core.Row, error) {
	return db.QueryMultiple(ctx, name)
}

func (db *DB) Query(ctx context.Context, name core.Table, field string, value interface{}) ([]core.Row, error) {
	return db.QueryMultiple(ctx, name, core.Filter{Field: field, Value: value})
}

// QueryMultiple returns matching rows in insertion order.
func (db *DB) QueryMultiple(ctx context.Context, name core.Table, filters ...core.Filter) ([]core.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wants := make([]core.Filter, 0, len(filters))
	for _, f := range filters {
		v, err := normalize(f.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "memdb: filter %s", f.Field)
		}
		wants = append(wants, core.Filter{Field: f.Field, Value: v})
	}

	db.RLock()
	defer db.RUnlock()
	tbl, err := db.table(name)
	if err != nil {
		return nil, err
	}
	rows := make([]core.Row, 0)
	for _, id := range tbl.order {
		row := tbl.rows[id]
		if !matches(row, wants) {
			continue
		}
		cp, err := copyRow(row)
		if err != nil {
			return nil, err
		}
		rows = append(rows, cp)
	}
	return rows, nil
}

func matches(row core.Row, filters []core.Filter) bool {
	for _, f := range filters {
		if !reflect.DeepEqual(row[f.Field], f.Value) {
			return false
		}
	}
	return true
}
