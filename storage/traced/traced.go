// Package traced wraps a core.Backend with OpenTelemetry spans.
package traced

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shubhammm008/Infosys-Team5/core"
)

const instrumentation = "github.com/shubhammm008/Infosys-Team5/storage/traced"

type Backend struct {
	next   core.Backend
	tracer trace.Tracer
}

// joinBackend is returned for backends that join, so the capability survives the wrapping.
type joinBackend struct {
	*Backend
	joiner core.Joiner
}

// Wrap returns next with every call traced. tp defaults to the global provider.
func Wrap(next core.Backend, tp trace.TracerProvider) core.Backend {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	b := &Backend{next: next, tracer: tp.Tracer(instrumentation)}
	if j, ok := next.(core.Joiner); ok {
		return &joinBackend{Backend: b, joiner: j}
	}
	return b
}

func (b *Backend) start(ctx context.Context, op string, table core.Table, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("db.operation", op),
		attribute.String("db.table", string(table)),
		attribute.String("db.naming", b.next.Naming().String()),
	)
	return b.tracer.Start(ctx, "backend."+op, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if core.IsNotFound(err) {
			span.SetAttributes(attribute.Bool("db.not_found", true))
		}
	}
	span.End()
}

func endRows(span trace.Span, rows []core.Row, err error) {
	if err == nil {
		span.SetAttributes(attribute.Int("db.rows", len(rows)))
	}
	end(span, err)
}

func (b *Backend) Naming() core.Naming { return b.next.Naming() }

func (b *Backend) Create(ctx context.Context, table core.Table, row core.Row) (string, error) {
	ctx, span := b.start(ctx, "create", table)
	id, err := b.next.Create(ctx, table, row)
	if err == nil {
		span.SetAttributes(attribute.String("db.id", id))
	}
	end(span, err)
	return id, err
}

func (b *Backend) Update(ctx context.Context, table core.Table, id string, row core.Row) error {
	ctx, span := b.start(ctx, "update", table, attribute.String("db.id", id))
	err := b.next.Update(ctx, table, id, row)
	end(span, err)
	return err
}

func (b *Backend) Delete(ctx context.Context, table core.Table, id string) error {
	ctx, span := b.start(ctx, "delete", table, attribute.String("db.id", id))
	err := b.next.Delete(ctx, table, id)
	end(span, err)
	return err
}

func (b *Backend) Fetch(ctx context.Context, table core.Table, id string) (core.Row, error) {
	ctx, span := b.start(ctx, "fetch", table, attribute.String("db.id", id))
	row, err := b.next.Fetch(ctx, table, id)
	end(span, err)
	return row, err
}

func (b *Backend) FetchAll(ctx context.Context, table core.Table) ([]core.Row, error) {
	ctx, span := b.start(ctx, "fetch_all", table)
	rows, err := b.next.FetchAll(ctx, table)
	endRows(span, rows, err)
	return rows, err
}

func (b *Backend) Query(ctx context.Context, table core.Table, field string, value interface{}) ([]core.Row, error) {
	ctx, span := b.start(ctx, "query", table, attribute.StringSlice("db.filters", []string{field}))
	rows, err := b.next.Query(ctx, table, field, value)
	endRows(span, rows, err)
	return rows, err
}

func (b *Backend) QueryMultiple(ctx context.Context, table core.Table, filters ...core.Filter) ([]core.Row, error) {
	fields := make([]string, 0, len(filters))
	for _, f := range filters {
		fields = append(fields, f.Field)
	}
	ctx, span := b.start(ctx, "query_multiple", table, attribute.StringSlice("db.filters", fields))
	rows, err := b.next.QueryMultiple(ctx, table, filters...)
	endRows(span, rows, err)
	return rows, err
}

func (b *joinBackend) QueryInner(ctx context.Context, table core.Table, join core.Join) ([]core.Row, error) {
	ctx, span := b.start(ctx, "query_inner", table,
		attribute.String("db.join_table", string(join.Table)),
		attribute.StringSlice("db.filters", []string{join.Field}),
	)
	rows, err := b.joiner.QueryInner(ctx, table, join)
	endRows(span, rows, err)
	return rows, err
}
