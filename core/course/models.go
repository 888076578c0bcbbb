package course

import (
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shubhammm008/Infosys-Team5/core"
)

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

func (l Level) DisplayName() string { return core.DisplayName(string(l)) }

func (l *Level) UnmarshalJSON(data []byte) error {
	s, err := core.UnmarshalEnum(data, string(LevelBeginner), string(LevelIntermediate), string(LevelAdvanced))
	if err != nil {
		return err
	}
	*l = Level(s)
	return nil
}

type Course struct {
	ID                 string      `json:"id"`
	OrganizationID     null.String `json:"organizationId,omitempty"`
	Title              string      `json:"title"`
	Description        string      `json:"courseDescription"`
	Level              Level       `json:"level"`
	DurationHours      int         `json:"durationHours"`
	ThumbnailURL       null.String `json:"thumbnailURL,omitempty"`
	IsPublished        bool        `json:"isPublished"`
	CreatedByID        string      `json:"createdById"`
	AssignedEducatorID null.String `json:"assignedEducatorId,omitempty"`
	Prerequisites      []string    `json:"prerequisites,omitempty"`
	LearningObjectives []string    `json:"learningObjectives,omitempty"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

func (Course) SnakeFields() map[string]string {
	return map[string]string{
		"courseDescription": "description",
		"level":             "difficulty_level",
		"createdById":       "created_by",
	}
}

func (c Course) Validate() error {
	var flds []core.FieldError
	if core.CleanString(c.Title) == "" {
		flds = append(flds, core.FieldError{Field: "title", Error: "this field is required"})
	}
	if c.CreatedByID == "" {
		flds = append(flds, core.FieldError{Field: "createdById", Error: "this field is required"})
	}
	switch c.Level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
	default:
		flds = append(flds, core.FieldError{Field: "level", Error: "invalid level"})
	}
	if c.DurationHours < 0 {
		flds = append(flds, core.FieldError{Field: "durationHours", Error: "must not be negative"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(errors.Wrap(core.ErrInvalidInput, "course"), flds...)
	}
	return nil
}

type Module struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"courseId"`
	Title       string    `json:"title"`
	Description string    `json:"moduleDescription"`
	OrderIndex  int       `json:"orderIndex"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Module) SnakeFields() map[string]string {
	return map[string]string{"moduleDescription": "description"}
}

type Lesson struct {
	ID                 string      `json:"id"`
	ModuleID           string      `json:"moduleId"`
	Title              string      `json:"title"`
	Description        string      `json:"lessonDescription"`
	OrderIndex         int         `json:"orderIndex"`
	LearningObjectives null.String `json:"learningObjectives,omitempty"`
	Prerequisites      null.String `json:"prerequisites,omitempty"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

func (Lesson) SnakeFields() map[string]string {
	return map[string]string{"lessonDescription": "description"}
}

// Assignment links an educator to a course they teach.
type Assignment struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"courseId"`
	EducatorID string    `json:"educatorId"`
	AssignedAt time.Time `json:"assignedAt"`
}

// Outline is a course with its modules and their lessons, all in display order.
type Outline struct {
	Course  Course
	Modules []ModuleOutline
}

type ModuleOutline struct {
	Module  Module
	Lessons []Lesson
}

// Stats are the admin dashboard counters.
type Stats struct {
	Users     int
	Educators int
	Learners  int
	Courses   int
	Published int
}
