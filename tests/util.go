// Package testutil holds fixtures and helpers shared by the package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/shubhammm008/Infosys-Team5/core"
	"github.com/shubhammm008/Infosys-Team5/core/course"
	"github.com/shubhammm008/Infosys-Team5/core/user"
)

// FixedTime is a round UTC instant for tests pinning the clock.
var FixedTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// FixedNow pins core.NowFunc to t0 for the duration of the test.
func FixedNow(t *testing.T, t0 time.Time) {
	t.Helper()
	orig := core.NowFunc
	core.NowFunc = func() time.Time { return t0 }
	t.Cleanup(func() { core.NowFunc = orig })
}

// NewUser returns an active user with a fresh id. createdAt defaults to now.
func NewUser(email string, role user.Role, createdAt ...time.Time) user.User {
	tstamp := core.Now()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC().Truncate(time.Millisecond)
	}
	return user.User{
		ID:        core.NewID(),
		Email:     email,
		Role:      role,
		FirstName: "Test",
		LastName:  string(role),
		IsActive:  true,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
}

// NewCourse returns an unpublished beginner course created by creatorID.
func NewCourse(title, creatorID string) course.Course {
	now := core.Now()
	return course.Course{
		ID:             core.NewID(),
		OrganizationID: null.StringFrom(core.DefaultOrganizationID),
		Title:          title,
		Description:    title + " course",
		Level:          course.LevelBeginner,
		DurationHours:  4,
		CreatedByID:    creatorID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
