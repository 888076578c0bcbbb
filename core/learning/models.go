package learning

import (
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/shubhammm008/Infosys-Team5/core"
)

type ContentType string

const (
	ContentVideo ContentType = "video"
	ContentPDF   ContentType = "pdf"
	ContentSlide ContentType = "slide"
	ContentText  ContentType = "text"
)

func (ct ContentType) DisplayName() string {
	switch ct {
	case ContentPDF:
		return "PDF Document"
	case ContentSlide:
		return "Presentation"
	case ContentText:
		return "Text Content"
	default:
		return core.DisplayName(string(ct))
	}
}

func (ct *ContentType) UnmarshalJSON(data []byte) error {
	s, err := core.UnmarshalEnum(data, string(ContentVideo), string(ContentPDF), string(ContentSlide), string(ContentText))
	if err != nil {
		return err
	}
	*ct = ContentType(s)
	return nil
}

type Content struct {
	ID          string      `json:"id"`
	LessonID    string      `json:"lessonId"`
	ContentType ContentType `json:"contentType"`
	Title       string      `json:"title"`
	FileURL     null.String `json:"fileURL,omitempty"`     // required unless text
	TextContent null.String `json:"textContent,omitempty"` // required for text
	Metadata    null.String `json:"metadata,omitempty"`
	Version     int         `json:"version"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type EnrollmentStatus string

const (
	StatusActive    EnrollmentStatus = "active"
	StatusCompleted EnrollmentStatus = "completed"
	StatusDropped   EnrollmentStatus = "dropped"
)

func (s EnrollmentStatus) DisplayName() string { return core.DisplayName(string(s)) }

func (s *EnrollmentStatus) UnmarshalJSON(data []byte) error {
	v, err := core.UnmarshalEnum(data, string(StatusActive), string(StatusCompleted), string(StatusDropped))
	if err != nil {
		return err
	}
	*s = EnrollmentStatus(v)
	return nil
}

// Enrollment links a learner to a course.
// CompletionPercentage and Status are set independently; neither is derived from the other.
type Enrollment struct {
	ID                   string           `json:"id"`
	LearnerID            string           `json:"learnerId"`
	CourseID             string           `json:"courseId"`
	EnrollmentDate       time.Time        `json:"enrollmentDate"`
	CompletionPercentage float64          `json:"completionPercentage"`
	Status               EnrollmentStatus `json:"status"`
	LastAccessed         null.Time        `json:"lastAccessed,omitempty"`
}

// Progress tracks one lesson of an enrollment.
type Progress struct {
	ID               string      `json:"id"`
	EnrollmentID     string      `json:"enrollmentId"`
	LessonID         string      `json:"lessonId"`
	IsCompleted      bool        `json:"isCompleted"`
	TimeSpentSeconds int         `json:"timeSpentSeconds"`
	LastPosition     null.String `json:"lastPosition,omitempty"`
	CompletedAt      null.Time   `json:"completedAt,omitempty"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// TimeSpentFormatted renders the time spent as "1h 5m", or "5m" under an hour.
func (p Progress) TimeSpentFormatted() string {
	hours := p.TimeSpentSeconds / 3600
	minutes := (p.TimeSpentSeconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
