package core

import "context"

// Table is the canonical name of an entity collection. Backends map it to their physical name.
type Table string

const (
	TableUsers             Table = "users"
	TableOrganizations     Table = "organizations"
	TableCourses           Table = "courses"
	TableModules           Table = "modules"
	TableLessons           Table = "lessons"
	TableContents          Table = "contents"
	TableEnrollments       Table = "enrollments"
	TableProgress          Table = "progress"
	TableCourseAssignments Table = "course_assignments"
)

// Relational returns the table name used by the relational (snake_case) schema.
func (t Table) Relational() string {
	switch t {
	case TableModules:
		return "course_modules"
	case TableProgress:
		return "lesson_progress"
	}
	return string(t)
}

// Tables lists every canonical table.
var Tables = []Table{
	TableUsers, TableOrganizations, TableCourses, TableModules, TableLessons,
	TableContents, TableEnrollments, TableProgress, TableCourseAssignments,
}

// Row is the transport representation of one record, keyed by the backend's field names.
type Row map[string]interface{}

// Filter is an equality predicate on a backend field.
type Filter struct {
	Field string
	Value interface{}
}

type (
	// Backend is a remote tabular data source.
	// Field names in rows and filters follow Naming(). Every call round-trips; nothing is cached.
	Backend interface {
		Naming() Naming
		// Create inserts row and returns its id. A row without an id gets one assigned.
		Create(ctx context.Context, table Table, row Row) (string, error)
		// Update replaces the fields present in row on the record matched by id.
		// A nil value clears the field. Fails with ErrNotFound if nothing matches.
		Update(ctx context.Context, table Table, id string, row Row) error
		// Delete removes the record matched by id. Fails with ErrNotFound if nothing matches.
		Delete(ctx context.Context, table Table, id string) error
		Fetch(ctx context.Context, table Table, id string) (Row, error)
		FetchAll(ctx context.Context, table Table) ([]Row, error)
		Query(ctx context.Context, table Table, field string, value interface{}) ([]Row, error)
		// QueryMultiple returns the records matching every filter.
		QueryMultiple(ctx context.Context, table Table, filters ...Filter) ([]Row, error)
	}

	// Joiner is implemented by backends able to resolve an inner join server-side.
	Joiner interface {
		QueryInner(ctx context.Context, table Table, join Join) ([]Row, error)
	}
)

// Join selects the records of a table having at least one related record in Join.Table
// (related through Join.ForeignKey) whose Join.Field equals Join.Value.
type Join struct {
	Table      Table
	ForeignKey string
	Field      string
	Value      interface{}
}
