package core

import (
	"context"

	"github.com/pkg/errors"
)

// Typed helpers over a Backend. Entity packages call these instead of touching rows.
// Field names passed here are canonical (camelCase) and get mapped to the backend naming.

func Create(ctx context.Context, b Backend, table Table, entity interface{}) (string, error) {
	row, err := Encode(entity, b.Naming())
	if err != nil {
		return "", err
	}
	id, err := b.Create(ctx, table, row)
	if err != nil {
		return "", errors.Wrapf(err, "creating %s", table)
	}
	return id, nil
}

// Update is a full-record write: absent optional fields are cleared. Last write wins.
func Update(ctx context.Context, b Backend, table Table, id string, entity interface{}) error {
	row, err := EncodeWithNulls(entity, b.Naming())
	if err != nil {
		return err
	}
	delete(row, "id")
	if err := b.Update(ctx, table, id, row); err != nil {
		return errors.Wrapf(err, "updating %s %s", table, id)
	}
	return nil
}

func Delete(ctx context.Context, b Backend, table Table, id string) error {
	if err := b.Delete(ctx, table, id); err != nil {
		return errors.Wrapf(err, "deleting %s %s", table, id)
	}
	return nil
}

func Fetch[T any](ctx context.Context, b Backend, table Table, id string) (T, error) {
	row, err := b.Fetch(ctx, table, id)
	if err != nil {
		var zero T
		return zero, errors.Wrapf(err, "fetching %s %s", table, id)
	}
	return Decode[T](row, b.Naming())
}

func FetchAll[T any](ctx context.Context, b Backend, table Table) ([]T, error) {
	rows, err := b.FetchAll(ctx, table)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %s", table)
	}
	return DecodeAll[T](rows, b.Naming())
}

func Query[T any](ctx context.Context, b Backend, table Table, field string, value interface{}) ([]T, error) {
	rows, err := b.Query(ctx, table, FieldName[T](field, b.Naming()), value)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s by %s", table, field)
	}
	return DecodeAll[T](rows, b.Naming())
}

func QueryMultiple[T any](ctx context.Context, b Backend, table Table, filters ...Filter) ([]T, error) {
	wire := make([]Filter, 0, len(filters))
	for _, f := range filters {
		wire = append(wire, Filter{Field: FieldName[T](f.Field, b.Naming()), Value: f.Value})
	}
	rows, err := b.QueryMultiple(ctx, table, wire...)
	if err != nil {
		return nil, errors.Wrapf(err, "querying %s", table)
	}
	return DecodeAll[T](rows, b.Naming())
}
