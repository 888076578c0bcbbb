package traced

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/shubhammm008/Infosys-Team5/core"
	"github.com/shubhammm008/Infosys-Team5/core/course"
	"github.com/shubhammm008/Infosys-Team5/storage/database/memdb"
	testutil "github.com/shubhammm008/Infosys-Team5/tests"
)

func newRecorder() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	sr := tracetest.NewSpanRecorder()
	return sr, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
}

func attr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestBackend(t *testing.T) {
	_, tp := newRecorder()
	testutil.RunBackendSuite(t, func(t *testing.T) core.Backend { return Wrap(memdb.Open(), tp) })
}

func TestWrap_spans(t *testing.T) {
	ctx := context.Background()
	sr, tp := newRecorder()
	b := Wrap(memdb.Open(), tp)

	c := testutil.NewCourse("Go", "admin")
	_, err := core.Create(ctx, b, core.TableCourses, c)
	require.NoError(t, err)
	_, err = core.FetchAll[course.Course](ctx, b, core.TableCourses)
	require.NoError(t, err)
	err = core.Delete(ctx, b, core.TableCourses, core.NewID())
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 3)

	assert.Equal(t, "backend.create", spans[0].Name())
	id, ok := attr(spans[0].Attributes(), "db.id")
	require.True(t, ok)
	assert.Equal(t, c.ID, id.AsString())

	assert.Equal(t, "backend.fetch_all", spans[1].Name())
	n, ok := attr(spans[1].Attributes(), "db.rows")
	require.True(t, ok)
	assert.Equal(t, int64(1), n.AsInt64())

	assert.Equal(t, "backend.delete", spans[2].Name())
	assert.Equal(t, codes.Error, spans[2].Status().Code)
	nf, ok := attr(spans[2].Attributes(), "db.not_found")
	require.True(t, ok)
	assert.True(t, nf.AsBool())
}

type fakeJoiner struct {
	core.Backend
	called bool
}

func (f *fakeJoiner) QueryInner(context.Context, core.Table, core.Join) ([]core.Row, error) {
	f.called = true
	return nil, nil
}

func TestWrap_keepsJoinCapability(t *testing.T) {
	_, tp := newRecorder()

	_, ok := Wrap(memdb.Open(), tp).(core.Joiner)
	assert.False(t, ok)

	fj := &fakeJoiner{Backend: memdb.Open()}
	j, ok := Wrap(fj, tp).(core.Joiner)
	require.True(t, ok)
	_, err := j.QueryInner(context.Background(), core.TableCourses, core.Join{Table: core.TableCourseAssignments})
	require.NoError(t, err)
	assert.True(t, fj.called)
}

func TestNewStdoutProvider(t *testing.T) {
	var buf bytes.Buffer
	tp, shutdown, err := NewStdoutProvider(&buf)
	require.NoError(t, err)

	b := Wrap(memdb.Open(), tp)
	_, err = b.FetchAll(context.Background(), core.TableUsers)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "backend.fetch_all")
}
