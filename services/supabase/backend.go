package supabase

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sendgrid/rest"

	"github.com/shubhammm008/Infosys-Team5/core"
)

const restPath = "/rest/v1/"

// Backend is the PostgREST data backend. Tables use the relational names and snake_case fields.
type Backend struct {
	client *Client
}

var (
	_ core.Backend = (*Backend)(nil) // interface compliance check
	_ core.Joiner  = (*Backend)(nil)
)

func NewBackend(client *Client) *Backend {
	return &Backend{client: client}
}

func (b *Backend) Naming() core.Naming { return core.SnakeCase }

var returnRows = map[string]string{"Prefer": "return=representation"}

// eq renders a PostgREST equality operator.
func eq(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "is.null"
	case bool:
		return "is." + strconv.FormatBool(x)
	case string:
		return "eq." + x
	case fmt.Stringer:
		return "eq." + x.String()
	}
	return fmt.Sprintf("eq.%v", v)
}

func byID(id string) map[string]string {
	return map[string]string{"id": eq(id)}
}

func notFound(table core.Table, id string) error {
	return fmt.Errorf("%s %s: %w", table, id, core.ErrNotFound)
}

func (b *Backend) Create(ctx context.Context, table core.Table, row core.Row) (string, error) {
	id, _ := row["id"].(string)
	if id == "" {
		id = core.NewID()
	}
	body := make(core.Row, len(row)+1)
	for k, v := range row {
		body[k] = v
	}
	body["id"] = id

	var rows []core.Row
	err := b.client.do(ctx, call{
		method:  rest.Post,
		path:    restPath + table.Relational(),
		headers: returnRows,
		body:    body,
	}, &rows)
	if err != nil {
		return "", err
	}
	if len(rows) > 0 {
		if got, ok := rows[0]["id"].(string); ok && got != "" {
			id = got
		}
	}
	return id, nil
}

// Update patches the record; PostgREST answers an empty representation when nothing matched.
func (b *Backend) Update(ctx context.Context, table core.Table, id string, row core.Row) error {
	body := make(core.Row, len(row))
	for k, v := range row {
		if k != "id" {
			body[k] = v
		}
	}
	var rows []core.Row
	err := b.client.do(ctx, call{
		method:  rest.Patch,
		path:    restPath + table.Relational(),
		query:   byID(id),
		headers: returnRows,
		body:    body,
	}, &rows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return notFound(table, id)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, table core.Table, id string) error {
	var rows []core.Row
	err := b.client.do(ctx, call{
		method:  rest.Delete,
		path:    restPath + table.Relational(),
		query:   byID(id),
		headers: returnRows,
	}, &rows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return notFound(table, id)
	}
	return nil
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
	query := map[string]string{"select": "*"}
	for _, f := range filters {
		query[f.Field] = eq(f.Value)
	}
	return b.get(ctx, table, query)
}

// QueryInner uses a PostgREST inner-joined embed: select=*,<join>!inner(<field>)&<join>.<field>=eq.<value>.
func (b *Backend) QueryInner(ctx context.Context, table core.Table, join core.Join) ([]core.Row, error) {
	jt := join.Table.Relational()
	query := map[string]string{
		"select":               fmt.Sprintf("*,%s!inner(%s)", jt, join.Field),
		jt + "." + join.Field: eq(join.Value),
	}
	rows, err := b.get(ctx, table, query)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		delete(row, jt)
	}
	return rows, nil
}

func (b *Backend) get(ctx context.Context, table core.Table, query map[string]string) ([]core.Row, error) {
	rows := make([]core.Row, 0)
	err := b.client.do(ctx, call{
		method: rest.Get,
		path:   restPath + table.Relational(),
		query:  query,
	}, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
