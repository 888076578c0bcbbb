package core_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/shubhammm008/Infosys-Team5/core"
	"github.com/shubhammm008/Infosys-Team5/core/course"
	"github.com/shubhammm008/Infosys-Team5/core/learning"
	"github.com/shubhammm008/Infosys-Team5/core/user"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func goCourse() course.Course {
	return course.Course{
		ID:                 "c-1",
		OrganizationID:     null.StringFrom("org-1"),
		Title:              "Go 101",
		Description:        "Basics",
		Level:              course.LevelBeginner,
		DurationHours:      12,
		CreatedByID:        "u-1",
		Prerequisites:      []string{"none"},
		LearningObjectives: []string{"syntax", "tooling"},
		CreatedAt:          t0,
		UpdatedAt:          t0,
	}
}

func TestEncode_golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for name, naming := range map[string]core.Naming{"course_camel": core.CamelCase, "course_snake": core.SnakeCase} {
		t.Run(name, func(t *testing.T) {
			row, err := core.Encode(goCourse(), naming)
			require.NoError(t, err)
			data, err := json.MarshalIndent(row, "", "  ")
			require.NoError(t, err)
			g.Assert(t, name, append(data, '\n'))
		})
	}
}

func TestCodec_roundTrip(t *testing.T) {
	usr := user.User{
		ID:                "u-1",
		Email:             "jane@example.com",
		Role:              user.RoleEducator,
		FirstName:         "Jane",
		LastName:          "Doe",
		ProfilePictureURL: null.StringFrom("https://cdn/jane.png"),
		IsActive:          true,
		CreatedAt:         t0,
		UpdatedAt:         t0,
		LastLogin:         null.TimeFrom(t0.Add(time.Hour)),
	}
	enrollment := learning.Enrollment{
		ID: "e-1", LearnerID: "u-1", CourseID: "c-1", EnrollmentDate: t0,
		CompletionPercentage: 37.5, Status: learning.StatusActive,
	}

	for _, naming := range []core.Naming{core.CamelCase, core.SnakeCase} {
		t.Run(naming.String(), func(t *testing.T) {
			row, err := core.Encode(usr, naming)
			require.NoError(t, err)
			gotUser, err := core.Decode[user.User](row, naming)
			require.NoError(t, err)
			assert.Equal(t, usr, gotUser)

			row, err = core.Encode(goCourse(), naming)
			require.NoError(t, err)
			gotCourse, err := core.Decode[course.Course](row, naming)
			require.NoError(t, err)
			assert.Equal(t, goCourse(), gotCourse)

			row, err = core.Encode(enrollment, naming)
			require.NoError(t, err)
			gotEnrollment, err := core.Decode[learning.Enrollment](row, naming)
			require.NoError(t, err)
			assert.Equal(t, enrollment, gotEnrollment)
		})
	}
}

func TestEncode_optionalFields(t *testing.T) {
	c := goCourse()
	row, err := core.Encode(c, core.SnakeCase)
	require.NoError(t, err)
	assert.NotContains(t, row, "thumbnail_url")
	assert.NotContains(t, row, "assigned_educator_id")

	row, err = core.EncodeWithNulls(c, core.SnakeCase)
	require.NoError(t, err)
	assert.Contains(t, row, "thumbnail_url")
	assert.Nil(t, row["thumbnail_url"])
}

func TestDecode_errors(t *testing.T) {
	valid := func() core.Row {
		row, err := core.Encode(goCourse(), core.SnakeCase)
		require.NoError(t, err)
		return row
	}

	tests := []struct {
		name      string
		row       func() core.Row
		wantField string
	}{
		{"empty payload", func() core.Row { return nil }, ""},
		{"missing title", func() core.Row { r := valid(); delete(r, "title"); return r }, "title"},
		{"null required", func() core.Row { r := valid(); r["is_published"] = nil; return r }, "isPublished"},
		{"wrong type", func() core.Row { r := valid(); r["duration_hours"] = "twelve"; return r }, "durationHours"},
		{"bad enum", func() core.Row { r := valid(); r["difficulty_level"] = "expert"; return r }, "level"},
		{"bad time", func() core.Row { r := valid(); r["created_at"] = "yesterday"; return r }, "createdAt"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := core.Decode[course.Course](tc.row(), core.SnakeCase)
			var derr *core.DecodeError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, "course", derr.Entity)
			assert.Equal(t, tc.wantField, derr.Field)
		})
	}

	t.Run("unknown keys are ignored", func(t *testing.T) {
		row := valid()
		row["extra_column"] = 1
		_, err := core.Decode[course.Course](row, core.SnakeCase)
		assert.NoError(t, err)
	})

	t.Run("camel row with snake naming", func(t *testing.T) {
		row, err := core.Encode(goCourse(), core.CamelCase)
		require.NoError(t, err)
		_, err = core.Decode[course.Course](row, core.SnakeCase)
		assert.Error(t, err)
	})
}

func TestFieldName(t *testing.T) {
	tests := []struct {
		canonical string
		naming    core.Naming
		want      string
	}{
		{"courseDescription", core.SnakeCase, "description"},
		{"courseDescription", core.CamelCase, "courseDescription"},
		{"createdById", core.SnakeCase, "created_by"},
		{"thumbnailURL", core.SnakeCase, "thumbnail_url"},
		{"isPublished", core.SnakeCase, "is_published"},
		{"notAField", core.SnakeCase, "not_a_field"},
		{"notAField", core.CamelCase, "notAField"},
	}
	for _, tc := range tests {
		t.Run(tc.canonical+"/"+tc.naming.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, core.FieldName[course.Course](tc.canonical, tc.naming))
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"id":                "id",
		"organizationId":    "organization_id",
		"profilePictureURL": "profile_picture_url",
		"fileURL":           "file_url",
		"URLPath":           "url_path",
		"timeSpentSeconds":  "time_spent_seconds",
		"step2Done":         "step2_done",
		"already_snake":     "already_snake",
	}
	for in, want := range tests {
		assert.Equal(t, want, core.ToSnakeCase(in), in)
	}
}

func TestUnmarshalEnum(t *testing.T) {
	var r user.Role
	require.NoError(t, json.Unmarshal([]byte(`"learner"`), &r))
	assert.Equal(t, user.RoleLearner, r)
	assert.Error(t, json.Unmarshal([]byte(`"owner"`), &r))
	assert.Error(t, json.Unmarshal([]byte(`3`), &r))
}
