package course

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shubhammm008/Infosys-Team5/core"
	"github.com/shubhammm008/Infosys-Team5/core/user"
)

var (
	// errors
	ErrNotFound       = fmt.Errorf("course: %w", core.ErrNotFound)
	ErrModuleNotFound = fmt.Errorf("module: %w", core.ErrNotFound)
	ErrLessonNotFound = fmt.Errorf("lesson: %w", core.ErrNotFound)
	ErrOrderTaken     = errors.New("another item already uses this order index")
)

type Service struct {
	backend core.Backend
	// outlineWorkers bounds the concurrent lesson loads of FetchOutline.
	outlineWorkers int
}

func NewService(backend core.Backend) *Service {
	return &Service{backend: backend, outlineWorkers: 4}
}

func trap(err, notFound error) error {
	if core.IsNotFound(err) {
		return notFound
	}
	return err
}

// Courses

func (svc *Service) CreateCourse(ctx context.Context, c Course) (Course, error) {
	if err := c.Validate(); err != nil {
		return Course{}, err
	}
	if c.ID == "" {
		c.ID = core.NewID()
	}
	now := core.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	id, err := core.Create(ctx, svc.backend, core.TableCourses, c)
	if err != nil {
		return Course{}, err
	}
	c.ID = id
	return c, nil
}

// UpdateCourse writes c as a whole. Concurrent edits overwrite each other.
func (svc *Service) UpdateCourse(ctx context.Context, c Course) (Course, error) {
	if err := c.Validate(); err != nil {
		return Course{}, err
	}
	c.UpdatedAt = core.Now()
	if err := core.Update(ctx, svc.backend, core.TableCourses, c.ID, c); err != nil {
		return Course{}, trap(err, ErrNotFound)
	}
	return c, nil
}

func (svc *Service) DeleteCourse(ctx context.Context, id string) error {
	return trap(core.Delete(ctx, svc.backend, core.TableCourses, id), ErrNotFound)
}

func (svc *Service) FetchCourse(ctx context.Context, id string) (Course, error) {
	c, err := core.Fetch[Course](ctx, svc.backend, core.TableCourses, id)
	return c, trap(err, ErrNotFound)
}

func (svc *Service) FetchAllCourses(ctx context.Context) ([]Course, error) {
	return core.FetchAll[Course](ctx, svc.backend, core.TableCourses)
}

func (svc *Service) FetchCoursesByOrganization(ctx context.Context, orgID string) ([]Course, error) {
	return core.Query[Course](ctx, svc.backend, core.TableCourses, "organizationId", orgID)
}

func (svc *Service) FetchCoursesByCreator(ctx context.Context, userID string) ([]Course, error) {
	return core.Query[Course](ctx, svc.backend, core.TableCourses, "createdById", userID)
}

// FetchCoursesByEducator returns the courses whose assignedEducatorId is educatorID.
func (svc *Service) FetchCoursesByEducator(ctx context.Context, educatorID string) ([]Course, error) {
	return core.Query[Course](ctx, svc.backend, core.TableCourses, "assignedEducatorId", educatorID)
}

// FetchPublishedCourses is the learner-facing catalog. An empty orgID spans every organization.
func (svc *Service) FetchPublishedCourses(ctx context.Context, orgID string) ([]Course, error) {
	filters := []core.Filter{{Field: "isPublished", Value: true}}
	if orgID != "" {
		filters = append(filters, core.Filter{Field: "organizationId", Value: orgID})
	}
	return core.QueryMultiple[Course](ctx, svc.backend, core.TableCourses, filters...)
}

func (svc *Service) SetPublished(ctx context.Context, id string, published bool) (Course, error) {
	c, err := svc.FetchCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	c.IsPublished = published
	return svc.UpdateCourse(ctx, c)
}

// AssignEducator records the assignment and sets it as the course's educator.
func (svc *Service) AssignEducator(ctx context.Context, courseID, educatorID string) (Assignment, error) {
	c, err := svc.FetchCourse(ctx, courseID)
	if err != nil {
		return Assignment{}, err
	}
	a := Assignment{
		ID:         core.NewID(),
		CourseID:   courseID,
		EducatorID: educatorID,
		AssignedAt: core.Now(),
	}
	if _, err := core.Create(ctx, svc.backend, core.TableCourseAssignments, a); err != nil {
		return Assignment{}, err
	}
	c.AssignedEducatorID = null.StringFrom(educatorID)
	if _, err := svc.UpdateCourse(ctx, c); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

// FetchAssignedCourses returns the courses an educator has an assignment for.
// Backends able to join do it in one round-trip.
func (svc *Service) FetchAssignedCourses(ctx context.Context, educatorID string) ([]Course, error) {
	naming := svc.backend.Naming()
	if joiner, ok := svc.backend.(core.Joiner); ok {
		rows, err := joiner.QueryInner(ctx, core.TableCourses, core.Join{
			Table:      core.TableCourseAssignments,
			ForeignKey: core.FieldName[Assignment]("courseId", naming),
			Field:      core.FieldName[Assignment]("educatorId", naming),
			Value:      educatorID,
		})
		if err != nil {
			return nil, errors.Wrap(err, "querying assigned courses")
		}
		return core.DecodeAll[Course](rows, naming)
	}

	assignments, err := core.Query[Assignment](ctx, svc.backend, core.TableCourseAssignments, "educatorId", educatorID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(assignments))
	courses := make([]Course, 0, len(assignments))
	for _, a := range assignments {
		if seen[a.CourseID] {
			continue
		}
		seen[a.CourseID] = true
		c, err := svc.FetchCourse(ctx, a.CourseID)
		if errors.Is(err, ErrNotFound) {
			continue // dangling assignment
		} else if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, nil
}

// Stats counts users per role and courses.
func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	users, err := core.FetchAll[user.User](ctx, svc.backend, core.TableUsers)
	if err != nil {
		return Stats{}, err
	}
	courses, err := svc.FetchAllCourses(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Users: len(users), Courses: len(courses)}
	for _, u := range users {
		switch u.Role {
		case user.RoleEducator:
			stats.Educators++
		case user.RoleLearner:
			stats.Learners++
		}
	}
	for _, c := range courses {
		if c.IsPublished {
			stats.Published++
		}
	}
	return stats, nil
}

// Modules

// checkModule validates m and rejects an orderIndex used by another module of the same course.
func (svc *Service) checkModule(ctx context.Context, m Module) error {
	if core.CleanString(m.Title) == "" || m.CourseID == "" || m.OrderIndex < 0 {
		return core.NewValidationError(errors.Wrap(core.ErrInvalidInput, "module"),
			core.FieldError{Field: "module", Error: "title, courseId and a non-negative orderIndex are required"})
	}
	siblings, err := svc.FetchModulesByCourse(ctx, m.CourseID)
	if err != nil {
		return err
	}
	for _, s := range siblings {
		if s.ID != m.ID && s.OrderIndex == m.OrderIndex {
			return core.NewValidationError(ErrOrderTaken, core.FieldError{Field: "orderIndex", Error: ErrOrderTaken.Error()})
		}
	}
	return nil
}

func (svc *Service) CreateModule(ctx context.Context, m Module) (Module, error) {
	if err := svc.checkModule(ctx, m); err != nil {
		return Module{}, err
	}
	if m.ID == "" {
		m.ID = core.NewID()
	}
	now := core.Now()
	m.CreatedAt, m.UpdatedAt = now, now
	id, err := core.Create(ctx, svc.backend, core.TableModules, m)
	if err != nil {
		return Module{}, err
	}
	m.ID = id
	return m, nil
}

func (svc *Service) UpdateModule(ctx context.Context, m Module) (Module, error) {
	if err := svc.checkModule(ctx, m); err != nil {
		return Module{}, err
	}
	m.UpdatedAt = core.Now()
	if err := core.Update(ctx, svc.backend, core.TableModules, m.ID, m); err != nil {
		return Module{}, trap(err, ErrModuleNotFound)
	}
	return m, nil
}

func (svc *Service) DeleteModule(ctx context.Context, id string) error {
	return trap(core.Delete(ctx, svc.backend, core.TableModules, id), ErrModuleNotFound)
}

// FetchModulesByCourse returns the modules of a course sorted by ascending orderIndex,
// whatever order the backend returned them in.
func (svc *Service) FetchModulesByCourse(ctx context.Context, courseID string) ([]Module, error) {
	modules, err := core.Query[Module](ctx, svc.backend, core.TableModules, "courseId", courseID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(modules, func(i, j int) bool { return modules[i].OrderIndex < modules[j].OrderIndex })
	return modules, nil
}

// Lessons

// checkLesson validates l and rejects an orderIndex used by another lesson of the same module.
func (svc *Service) checkLesson(ctx context.Context, l Lesson) error {
	if core.CleanString(l.Title) == "" || l.ModuleID == "" || l.OrderIndex < 0 {
		return core.NewValidationError(errors.Wrap(core.ErrInvalidInput, "lesson"),
			core.FieldError{Field: "lesson", Error: "title, moduleId and a non-negative orderIndex are required"})
	}
	siblings, err := svc.FetchLessonsByModule(ctx, l.ModuleID)
	if err != nil {
		return err
	}
	for _, s := range siblings {
		if s.ID != l.ID && s.OrderIndex == l.OrderIndex {
			return core.NewValidationError(ErrOrderTaken, core.FieldError{Field: "orderIndex", Error: ErrOrderTaken.Error()})
		}
	}
	return nil
}

func (svc *Service) CreateLesson(ctx context.Context, l Lesson) (Lesson, error) {
	if err := svc.checkLesson(ctx, l); err != nil {
		return Lesson{}, err
	}
	if l.ID == "" {
		l.ID = core.NewID()
	}
	now := core.Now()
	l.CreatedAt, l.UpdatedAt = now, now
	id, err := core.Create(ctx, svc.backend, core.TableLessons, l)
	if err != nil {
		return Lesson{}, err
	}
	l.ID = id
	return l, nil
}

func (svc *Service) UpdateLesson(ctx context.Context, l Lesson) (Lesson, error) {
	if err := svc.checkLesson(ctx, l); err != nil {
		return Lesson{}, err
	}
	l.UpdatedAt = core.Now()
	if err := core.Update(ctx, svc.backend, core.TableLessons, l.ID, l); err != nil {
		return Lesson{}, trap(err, ErrLessonNotFound)
	}
	return l, nil
}

func (svc *Service) DeleteLesson(ctx context.Context, id string) error {
	return trap(core.Delete(ctx, svc.backend, core.TableLessons, id), ErrLessonNotFound)
}

// FetchLessonsByModule returns the lessons of a module sorted by ascending orderIndex.
func (svc *Service) FetchLessonsByModule(ctx context.Context, moduleID string) ([]Lesson, error) {
	lessons, err := core.Query[Lesson](ctx, svc.backend, core.TableLessons, "moduleId", moduleID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(lessons, func(i, j int) bool { return lessons[i].OrderIndex < lessons[j].OrderIndex })
	return lessons, nil
}
