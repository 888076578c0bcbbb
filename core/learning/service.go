// Package learning covers what learners consume and produce: lesson content, enrollments and progress.
package learning

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shubhammm008/Infosys-Team5/core"
)

var (
	// errors
	ErrContentNotFound    = fmt.Errorf("content: %w", core.ErrNotFound)
	ErrEnrollmentNotFound = fmt.Errorf("enrollment: %w", core.ErrNotFound)
	ErrProgressNotFound   = fmt.Errorf("progress: %w", core.ErrNotFound)
)

type Service struct {
	backend core.Backend
}

func NewService(backend core.Backend) *Service {
	return &Service{backend: backend}
}

func trap(err, notFound error) error {
	if core.IsNotFound(err) {
		return notFound
	}
	return err
}

// Content

func validateContent(c Content) error {
	var flds []core.FieldError
	if core.CleanString(c.Title) == "" {
		flds = append(flds, core.FieldError{Field: "title", Error: "this field is required"})
	}
	if c.LessonID == "" {
		flds = append(flds, core.FieldError{Field: "lessonId", Error: "this field is required"})
	}
	switch c.ContentType {
	case ContentText:
		if !c.TextContent.Valid || core.CleanString(c.TextContent.String) == "" {
			flds = append(flds, core.FieldError{Field: "textContent", Error: "text content requires a body"})
		}
	case ContentVideo, ContentPDF, ContentSlide:
		if !c.FileURL.Valid || core.CleanString(c.FileURL.String) == "" {
			flds = append(flds, core.FieldError{Field: "fileURL", Error: fmt.Sprintf("%s content requires a file", c.ContentType)})
		}
	default:
		flds = append(flds, core.FieldError{Field: "contentType", Error: "invalid content type"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(errors.Wrap(core.ErrInvalidInput, "content"), flds...)
	}
	return nil
}

// CreateContent stores the first version of a piece of content.
func (svc *Service) CreateContent(ctx context.Context, c Content) (Content, error) {
	if err := validateContent(c); err != nil {
		return Content{}, err
	}
	if c.ID == "" {
		c.ID = core.NewID()
	}
	now := core.Now()
	c.Version = 1
	c.CreatedAt, c.UpdatedAt = now, now
	id, err := core.Create(ctx, svc.backend, core.TableContents, c)
	if err != nil {
		return Content{}, err
	}
	c.ID = id
	return c, nil
}

// UpdateContent writes c as the next version of the stored content.
func (svc *Service) UpdateContent(ctx context.Context, c Content) (Content, error) {
	if err := validateContent(c); err != nil {
		return Content{}, err
	}
	stored, err := core.Fetch[Content](ctx, svc.backend, core.TableContents, c.ID)
	if err != nil {
		return Content{}, trap(err, ErrContentNotFound)
	}
	c.Version = stored.Version + 1
	c.CreatedAt = stored.CreatedAt
	c.UpdatedAt = core.Now()
	if err := core.Update(ctx, svc.backend, core.TableContents, c.ID, c); err != nil {
		return Content{}, trap(err, ErrContentNotFound)
	}
	return c, nil
}

func (svc *Service) DeleteContent(ctx context.Context, id string) error {
	return trap(core.Delete(ctx, svc.backend, core.TableContents, id), ErrContentNotFound)
}

func (svc *Service) FetchContentByLesson(ctx context.Context, lessonID string) ([]Content, error) {
	contents, err := core.Query[Content](ctx, svc.backend, core.TableContents, "lessonId", lessonID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(contents, func(i, j int) bool { return contents[i].CreatedAt.Before(contents[j].CreatedAt) })
	return contents, nil
}

// Enrollments

// EnrollInCourse enrolls a learner: active, 0% complete.
// Enrolling again in the same course returns the existing enrollment.
func (svc *Service) EnrollInCourse(ctx context.Context, learnerID, courseID string) (Enrollment, error) {
	existing, err := core.QueryMultiple[Enrollment](ctx, svc.backend, core.TableEnrollments,
		core.Filter{Field: "learnerId", Value: learnerID},
		core.Filter{Field: "courseId", Value: courseID},
	)
	if err != nil {
		return Enrollment{}, err
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	now := core.Now()
	e := Enrollment{
		ID:             core.NewID(),
		LearnerID:      learnerID,
		CourseID:       courseID,
		EnrollmentDate: now,
		Status:         StatusActive,
		LastAccessed:   null.TimeFrom(now),
	}
	id, err := core.Create(ctx, svc.backend, core.TableEnrollments, e)
	if err != nil {
		return Enrollment{}, err
	}
	e.ID = id
	return e, nil
}

func (svc *Service) FetchEnrollmentsByLearner(ctx context.Context, learnerID string) ([]Enrollment, error) {
	return core.Query[Enrollment](ctx, svc.backend, core.TableEnrollments, "learnerId", learnerID)
}

func (svc *Service) FetchEnrollmentsByCourse(ctx context.Context, courseID string) ([]Enrollment, error) {
	return core.Query[Enrollment](ctx, svc.backend, core.TableEnrollments, "courseId", courseID)
}

// UpdateEnrollment writes e as a whole. The percentage is clamped to [0, 100];
// the status is stored as given.
func (svc *Service) UpdateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error) {
	switch {
	case e.CompletionPercentage < 0:
		e.CompletionPercentage = 0
	case e.CompletionPercentage > 100:
		e.CompletionPercentage = 100
	}
	if err := core.Update(ctx, svc.backend, core.TableEnrollments, e.ID, e); err != nil {
		return Enrollment{}, trap(err, ErrEnrollmentNotFound)
	}
	return e, nil
}

// Progress

// RecordProgress upserts the progress of one lesson within an enrollment.
// Time spent never goes backwards; completing a lesson stamps completedAt once.
func (svc *Service) RecordProgress(ctx context.Context, p Progress) (Progress, error) {
	if p.EnrollmentID == "" || p.LessonID == "" {
		return Progress{}, core.NewValidationError(errors.Wrap(core.ErrInvalidInput, "progress"),
			core.FieldError{Field: "progress", Error: "enrollmentId and lessonId are required"})
	}
	if p.TimeSpentSeconds < 0 {
		p.TimeSpentSeconds = 0
	}

	existing, err := core.QueryMultiple[Progress](ctx, svc.backend, core.TableProgress,
		core.Filter{Field: "enrollmentId", Value: p.EnrollmentID},
		core.Filter{Field: "lessonId", Value: p.LessonID},
	)
	if err != nil {
		return Progress{}, err
	}

	now := core.Now()
	p.UpdatedAt = now
	if len(existing) == 0 {
		if p.ID == "" {
			p.ID = core.NewID()
		}
		if p.IsCompleted && !p.CompletedAt.Valid {
			p.CompletedAt = null.TimeFrom(now)
		}
		id, err := core.Create(ctx, svc.backend, core.TableProgress, p)
		if err != nil {
			return Progress{}, err
		}
		p.ID = id
		return p, nil
	}

	stored := existing[0]
	p.ID = stored.ID
	if p.TimeSpentSeconds < stored.TimeSpentSeconds {
		p.TimeSpentSeconds = stored.TimeSpentSeconds
	}
	if !p.LastPosition.Valid {
		p.LastPosition = stored.LastPosition
	}
	switch {
	case stored.CompletedAt.Valid:
		p.CompletedAt = stored.CompletedAt
	case p.IsCompleted && !p.CompletedAt.Valid:
		p.CompletedAt = null.TimeFrom(now)
	}
	p.IsCompleted = p.IsCompleted || stored.IsCompleted
	if err := core.Update(ctx, svc.backend, core.TableProgress, p.ID, p); err != nil {
		return Progress{}, trap(err, ErrProgressNotFound)
	}
	return p, nil
}

func (svc *Service) FetchProgressByEnrollment(ctx context.Context, enrollmentID string) ([]Progress, error) {
	return core.Query[Progress](ctx, svc.backend, core.TableProgress, "enrollmentId", enrollmentID)
}
