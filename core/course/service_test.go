package course_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubhammm008/Infosys-Team5/core"
	"github.com/shubhammm008/Infosys-Team5/core/course"
	"github.com/shubhammm008/Infosys-Team5/core/user"
	"github.com/shubhammm008/Infosys-Team5/storage/database"
	"github.com/shubhammm008/Infosys-Team5/storage/database/memdb"
	testutil "github.com/shubhammm008/Infosys-Team5/tests"
)

var backends = []struct {
	name string
	open func(t *testing.T) core.Backend
}{
	{"memdb", func(*testing.T) core.Backend { return memdb.Open() }},
	{"sqlite", func(t *testing.T) core.Backend {
		ctx := context.Background()
		db, err := database.Open(ctx, core.DatabaseConfig{Engine: database.SQLite, DSN: filepath.Join(t.TempDir(), "ltms.db")})
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		require.NoError(t, database.Migrate(ctx, db, "up"))
		return database.NewBackend(db)
	}},
}

func forEachBackend(t *testing.T, fn func(t *testing.T, svc *course.Service, b core.Backend)) {
	for _, be := range backends {
		t.Run(be.name, func(t *testing.T) {
			b := be.open(t)
			fn(t, course.NewService(b), b)
		})
	}
}

func ids(courses []course.Course) []string {
	out := make([]string, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.ID)
	}
	return out
}

func TestPublishedCourses(t *testing.T) {
	ctx := context.Background()
	forEachBackend(t, func(t *testing.T, svc *course.Service, _ core.Backend) {
		c, err := svc.CreateCourse(ctx, testutil.NewCourse("Draft", "creator"))
		require.NoError(t, err)

		published, err := svc.FetchPublishedCourses(ctx, "")
		require.NoError(t, err)
		assert.NotContains(t, ids(published), c.ID)

		_, err = svc.SetPublished(ctx, c.ID, true)
		require.NoError(t, err)
		published, err = svc.FetchPublishedCourses(ctx, "")
		require.NoError(t, err)
		assert.Contains(t, ids(published), c.ID)

		byOrg, err := svc.FetchPublishedCourses(ctx, core.DefaultOrganizationID)
		require.NoError(t, err)
		assert.Contains(t, ids(byOrg), c.ID)
		other, err := svc.FetchPublishedCourses(ctx, "another-org")
		require.NoError(t, err)
		assert.Empty(t, other)
	})
}

func TestCreateCourse_validation(t *testing.T) {
	ctx := context.Background()
	svc := course.NewService(memdb.Open())

	tests := []struct {
		name  string
		mod   func(*course.Course)
		field string
	}{
		{"title", func(c *course.Course) { c.Title = "  " }, "title"},
		{"creator", func(c *course.Course) { c.CreatedByID = "" }, "createdById"},
		{"level", func(c *course.Course) { c.Level = "expert" }, "level"},
		{"duration", func(c *course.Course) { c.DurationHours = -1 }, "durationHours"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := testutil.NewCourse("Go", "creator")
			tc.mod(&c)
			_, err := svc.CreateCourse(ctx, c)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
			assert.True(t, core.HasField(err, tc.field))
		})
	}
}

func TestCourseCRUD(t *testing.T) {
	ctx := context.Background()
	forEachBackend(t, func(t *testing.T, svc *course.Service, _ core.Backend) {
		c := testutil.NewCourse("Go 101", "creator")
		c.Prerequisites = []string{"none"}
		c.LearningObjectives = []string{"syntax", "tooling"}
		c, err := svc.CreateCourse(ctx, c)
		require.NoError(t, err)

		got, err := svc.FetchCourse(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.LearningObjectives, got.LearningObjectives)
		assert.Equal(t, c.Title, got.Title)

		got.Title = "Go 102"
		_, err = svc.UpdateCourse(ctx, got)
		require.NoError(t, err)
		byCreator, err := svc.FetchCoursesByCreator(ctx, "creator")
		require.NoError(t, err)
		require.Len(t, byCreator, 1)
		assert.Equal(t, "Go 102", byCreator[0].Title)

		require.NoError(t, svc.DeleteCourse(ctx, c.ID))
		assert.ErrorIs(t, svc.DeleteCourse(ctx, c.ID), course.ErrNotFound)
		_, err = svc.FetchCourse(ctx, c.ID)
		assert.ErrorIs(t, err, course.ErrNotFound)
		_, err = svc.UpdateCourse(ctx, got)
		assert.ErrorIs(t, err, course.ErrNotFound)
	})
}

func TestAssignEducator(t *testing.T) {
	ctx := context.Background()
	forEachBackend(t, func(t *testing.T, svc *course.Service, _ core.Backend) {
		c1, err := svc.CreateCourse(ctx, testutil.NewCourse("One", "admin"))
		require.NoError(t, err)
		c2, err := svc.CreateCourse(ctx, testutil.NewCourse("Two", "admin"))
		require.NoError(t, err)
		_, err = svc.CreateCourse(ctx, testutil.NewCourse("Three", "admin"))
		require.NoError(t, err)

		_, err = svc.AssignEducator(ctx, c1.ID, "edu")
		require.NoError(t, err)
		_, err = svc.AssignEducator(ctx, c2.ID, "edu")
		require.NoError(t, err)
		_, err = svc.AssignEducator(ctx, c2.ID, "other")
		require.NoError(t, err)

		assigned, err := svc.FetchAssignedCourses(ctx, "edu")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{c1.ID, c2.ID}, ids(assigned))

		// the latest assignment is the course's educator
		byEducator, err := svc.FetchCoursesByEducator(ctx, "edu")
		require.NoError(t, err)
		assert.Equal(t, []string{c1.ID}, ids(byEducator))

		_, err = svc.AssignEducator(ctx, "missing", "edu")
		assert.ErrorIs(t, err, course.ErrNotFound)
	})
}

func TestModulesAndLessons(t *testing.T) {
	ctx := context.Background()
	forEachBackend(t, func(t *testing.T, svc *course.Service, _ core.Backend) {
		c, err := svc.CreateCourse(ctx, testutil.NewCourse("Ordered", "admin"))
		require.NoError(t, err)

		// created out of order
		for _, idx := range []int{2, 0, 1} {
			_, err := svc.CreateModule(ctx, course.Module{CourseID: c.ID, Title: "Module", OrderIndex: idx})
			require.NoError(t, err)
		}
		_, err = svc.CreateModule(ctx, course.Module{CourseID: c.ID, Title: "Dup", OrderIndex: 1})
		assert.ErrorIs(t, err, course.ErrOrderTaken)
		_, err = svc.CreateModule(ctx, course.Module{CourseID: c.ID, Title: "", OrderIndex: 5})
		assert.ErrorIs(t, err, core.ErrInvalidInput)

		modules, err := svc.FetchModulesByCourse(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, modules, 3)
		for i, m := range modules {
			assert.Equal(t, i, m.OrderIndex)
		}

		for _, idx := range []int{1, 0} {
			_, err := svc.CreateLesson(ctx, course.Lesson{ModuleID: modules[0].ID, Title: "Lesson", OrderIndex: idx})
			require.NoError(t, err)
		}
		_, err = svc.CreateLesson(ctx, course.Lesson{ModuleID: modules[0].ID, Title: "Dup", OrderIndex: 0})
		assert.ErrorIs(t, err, course.ErrOrderTaken)

		t.Run("update keeps order indexes unique", func(t *testing.T) {
			moved := modules[2]
			moved.OrderIndex = modules[0].OrderIndex
			_, err := svc.UpdateModule(ctx, moved)
			assert.ErrorIs(t, err, course.ErrOrderTaken)

			moved.OrderIndex = 7
			_, err = svc.UpdateModule(ctx, moved)
			require.NoError(t, err)
			moved.OrderIndex = 2
			moved.Title = "Renamed"
			_, err = svc.UpdateModule(ctx, moved)
			require.NoError(t, err, "a module keeps its own index")

			moved.Title = " "
			_, err = svc.UpdateModule(ctx, moved)
			assert.ErrorIs(t, err, core.ErrInvalidInput)

			lessons, err := svc.FetchLessonsByModule(ctx, modules[0].ID)
			require.NoError(t, err)
			require.Len(t, lessons, 2)
			second := lessons[1]
			second.OrderIndex = lessons[0].OrderIndex
			_, err = svc.UpdateLesson(ctx, second)
			assert.ErrorIs(t, err, course.ErrOrderTaken)
			second.OrderIndex = -1
			_, err = svc.UpdateLesson(ctx, second)
			assert.ErrorIs(t, err, core.ErrInvalidInput)

			lessons, err = svc.FetchLessonsByModule(ctx, modules[0].ID)
			require.NoError(t, err)
			assert.Equal(t, []int{0, 1}, []int{lessons[0].OrderIndex, lessons[1].OrderIndex})
		})

		outline, err := svc.FetchOutline(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.ID, outline.Course.ID)
		require.Len(t, outline.Modules, 3)
		require.Len(t, outline.Modules[0].Lessons, 2)
		assert.Equal(t, 0, outline.Modules[0].Lessons[0].OrderIndex)
		assert.Empty(t, outline.Modules[1].Lessons)

		require.NoError(t, svc.DeleteLesson(ctx, outline.Modules[0].Lessons[0].ID))
		assert.ErrorIs(t, svc.DeleteLesson(ctx, outline.Modules[0].Lessons[0].ID), course.ErrLessonNotFound)
		require.NoError(t, svc.DeleteModule(ctx, modules[2].ID))
		assert.ErrorIs(t, svc.DeleteModule(ctx, modules[2].ID), course.ErrModuleNotFound)

		_, err = svc.FetchOutline(ctx, "missing")
		assert.ErrorIs(t, err, course.ErrNotFound)
	})
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	forEachBackend(t, func(t *testing.T, svc *course.Service, b core.Backend) {
		users := user.NewService(b)
		for _, u := range []user.User{
			testutil.NewUser("a@example.com", user.RoleAdmin),
			testutil.NewUser("e@example.com", user.RoleEducator),
			testutil.NewUser("l1@example.com", user.RoleLearner),
			testutil.NewUser("l2@example.com", user.RoleLearner),
		} {
			_, err := users.Create(ctx, u)
			require.NoError(t, err)
		}
		c, err := svc.CreateCourse(ctx, testutil.NewCourse("A", "a"))
		require.NoError(t, err)
		_, err = svc.CreateCourse(ctx, testutil.NewCourse("B", "a"))
		require.NoError(t, err)
		_, err = svc.SetPublished(ctx, c.ID, true)
		require.NoError(t, err)

		stats, err := svc.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, course.Stats{Users: 4, Educators: 1, Learners: 2, Courses: 2, Published: 1}, stats)
	})
}
