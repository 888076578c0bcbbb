package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/shubhammm008/Infosys-Team5/core"
	"github.com/shubhammm008/Infosys-Team5/core/course"
	"github.com/shubhammm008/Infosys-Team5/core/user"
)

// RunBackendSuite checks the core.Backend contract. newBackend must return an empty backend.
func RunBackendSuite(t *testing.T, newBackend func(t *testing.T) core.Backend) {
	ctx := context.Background()

	t.Run("create and fetch", func(t *testing.T) {
		b := newBackend(t)
		usr := NewUser("alice@example.com", user.RoleLearner)
		usr.ProfilePictureURL = null.StringFrom("https://cdn.example.com/alice.png")

		id, err := core.Create(ctx, b, core.TableUsers, usr)
		require.NoError(t, err)
		assert.Equal(t, usr.ID, id)

		got, err := core.Fetch[user.User](ctx, b, core.TableUsers, id)
		require.NoError(t, err)
		assert.Equal(t, usr.Email, got.Email)
		assert.Equal(t, usr.ProfilePictureURL, got.ProfilePictureURL)
		assert.True(t, usr.CreatedAt.Equal(got.CreatedAt))
		assert.False(t, got.LastLogin.Valid)
	})

	t.Run("create assigns missing id", func(t *testing.T) {
		b := newBackend(t)
		usr := NewUser("noid@example.com", user.RoleLearner)
		usr.ID = ""
		row, err := core.Encode(usr, b.Naming())
		require.NoError(t, err)
		delete(row, "id")

		id, err := b.Create(ctx, core.TableUsers, row)
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		_, err = b.Fetch(ctx, core.TableUsers, id)
		assert.NoError(t, err)
	})

	t.Run("fetch missing", func(t *testing.T) {
		b := newBackend(t)
		_, err := core.Fetch[user.User](ctx, b, core.TableUsers, core.NewID())
		assert.True(t, core.IsNotFound(err), "got %v", err)
	})

	t.Run("update clears optional fields", func(t *testing.T) {
		b := newBackend(t)
		usr := NewUser("bob@example.com", user.RoleEducator)
		usr.ProfilePictureURL = null.StringFrom("https://cdn.example.com/bob.png")
		_, err := core.Create(ctx, b, core.TableUsers, usr)
		require.NoError(t, err)

		usr.FirstName = "Robert"
		usr.ProfilePictureURL = null.String{}
		require.NoError(t, core.Update(ctx, b, core.TableUsers, usr.ID, usr))

		got, err := core.Fetch[user.User](ctx, b, core.TableUsers, usr.ID)
		require.NoError(t, err)
		assert.Equal(t, "Robert", got.FirstName)
		assert.False(t, got.ProfilePictureURL.Valid)
	})

	t.Run("update missing", func(t *testing.T) {
		b := newBackend(t)
		usr := NewUser("ghost@example.com", user.RoleLearner)
		err := core.Update(ctx, b, core.TableUsers, usr.ID, usr)
		assert.True(t, core.IsNotFound(err), "got %v", err)
	})

	t.Run("delete twice", func(t *testing.T) {
		b := newBackend(t)
		usr := NewUser("carol@example.com", user.RoleLearner)
		_, err := core.Create(ctx, b, core.TableUsers, usr)
		require.NoError(t, err)

		require.NoError(t, core.Delete(ctx, b, core.TableUsers, usr.ID))
		err = core.Delete(ctx, b, core.TableUsers, usr.ID)
		assert.True(t, core.IsNotFound(err), "second delete: got %v", err)
	})

	t.Run("query", func(t *testing.T) {
		b := newBackend(t)
		for _, u := range []user.User{
			NewUser("l1@example.com", user.RoleLearner),
			NewUser("l2@example.com", user.RoleLearner),
			NewUser("e1@example.com", user.RoleEducator),
		} {
			_, err := core.Create(ctx, b, core.TableUsers, u)
			require.NoError(t, err)
		}

		all, err := core.FetchAll[user.User](ctx, b, core.TableUsers)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		learners, err := core.Query[user.User](ctx, b, core.TableUsers, "role", user.RoleLearner)
		require.NoError(t, err)
		assert.Len(t, learners, 2)

		none, err := core.Query[user.User](ctx, b, core.TableUsers, "email", "nobody@example.com")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("query multiple", func(t *testing.T) {
		b := newBackend(t)
		published := NewCourse("Go", "admin")
		published.IsPublished = true
		draft := NewCourse("Rust", "admin")
		other := NewCourse("Zig", "someone")
		other.IsPublished = true
		for _, c := range []course.Course{published, draft, other} {
			_, err := core.Create(ctx, b, core.TableCourses, c)
			require.NoError(t, err)
		}

		got, err := core.QueryMultiple[course.Course](ctx, b, core.TableCourses,
			core.Filter{Field: "isPublished", Value: true},
			core.Filter{Field: "createdById", Value: "admin"},
		)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, published.ID, got[0].ID)
	})

	t.Run("array fields", func(t *testing.T) {
		b := newBackend(t)
		c := NewCourse("Go", "admin")
		c.Prerequisites = []string{"basics"}
		c.LearningObjectives = []string{"goroutines", "channels"}
		_, err := core.Create(ctx, b, core.TableCourses, c)
		require.NoError(t, err)

		got, err := core.Fetch[course.Course](ctx, b, core.TableCourses, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.Prerequisites, got.Prerequisites)
		assert.Equal(t, c.LearningObjectives, got.LearningObjectives)
		assert.Equal(t, c.Level, got.Level)
		assert.Equal(t, c.DurationHours, got.DurationHours)
	})

	t.Run("inner join", func(t *testing.T) {
		b := newBackend(t)
		joiner, ok := b.(core.Joiner)
		if !ok {
			t.Skip("backend does not join")
		}
		c1, c2 := NewCourse("Go", "admin"), NewCourse("Rust", "admin")
		for _, c := range []course.Course{c1, c2} {
			_, err := core.Create(ctx, b, core.TableCourses, c)
			require.NoError(t, err)
		}
		_, err := core.Create(ctx, b, core.TableCourseAssignments, course.Assignment{
			ID: core.NewID(), CourseID: c2.ID, EducatorID: "edu-1", AssignedAt: core.Now(),
		})
		require.NoError(t, err)

		naming := b.Naming()
		rows, err := joiner.QueryInner(ctx, core.TableCourses, core.Join{
			Table:      core.TableCourseAssignments,
			ForeignKey: core.FieldName[course.Assignment]("courseId", naming),
			Field:      core.FieldName[course.Assignment]("educatorId", naming),
			Value:      "edu-1",
		})
		require.NoError(t, err)
		got, err := core.DecodeAll[course.Course](rows, naming)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, c2.ID, got[0].ID)
	})
}
