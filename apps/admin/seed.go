package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"gopkg.in/yaml.v3"

	"github.com/shubhammm008/Infosys-Team5/core"
	"github.com/shubhammm008/Infosys-Team5/core/course"
	"github.com/shubhammm008/Infosys-Team5/core/org"
	"github.com/shubhammm008/Infosys-Team5/core/user"
)

type (
	seedFile struct {
		Organizations []seedOrganization `yaml:"organizations"`
		Users         []seedUser         `yaml:"users"`
		Courses       []seedCourse       `yaml:"courses"`
	}

	seedOrganization struct {
		ID          string `yaml:"id"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	}

	seedUser struct {
		Email        string `yaml:"email"`
		Password     string `yaml:"password"` // optional; adds a local account
		FirstName    string `yaml:"firstName"`
		LastName     string `yaml:"lastName"`
		Role         string `yaml:"role"`
		Organization string `yaml:"organization"`
	}

	seedCourse struct {
		Title         string       `yaml:"title"`
		Description   string       `yaml:"description"`
		Level         string       `yaml:"level"`
		DurationHours int          `yaml:"durationHours"`
		Published     bool         `yaml:"published"`
		Organization  string       `yaml:"organization"`
		CreatedBy     string       `yaml:"createdBy"` // email
		Educator      string       `yaml:"educator"`  // email
		Prerequisites []string     `yaml:"prerequisites"`
		Objectives    []string     `yaml:"objectives"`
		Modules       []seedModule `yaml:"modules"`
	}

	seedModule struct {
		Title       string   `yaml:"title"`
		Description string   `yaml:"description"`
		Lessons     []string `yaml:"lessons"`
	}
)

func readSeedFile(path string) (seedFile, error) {
	var sf seedFile
	data, err := os.ReadFile(path)
	if err != nil {
		return sf, err
	}
	if err = yaml.Unmarshal(data, &sf); err != nil {
		return sf, errors.Wrapf(err, "parsing %s", path)
	}
	return sf, nil
}

// seed loads a YAML file through the services, in dependency order.
// Users are matched by email so that courses can reference them. Courses are
// mirrored into the local store, which backs the stats command offline.
func (cli *commandLine) seed(ctx context.Context, path string) error {
	sf, err := readSeedFile(path)
	if err != nil {
		return err
	}

	for _, so := range sf.Organizations {
		if _, err := cli.orgs.Create(ctx, org.Organization{ID: so.ID, Name: so.Name, Description: so.Description, IsActive: true}); err != nil {
			return errors.Wrapf(err, "organization %q", so.Name)
		}
	}

	userIDs := make(map[string]string, len(sf.Users))
	for _, su := range sf.Users {
		usr := user.User{
			ID:        core.NewID(),
			Email:     core.CleanString(su.Email, true /* lower */),
			Role:      user.Role(su.Role),
			FirstName: su.FirstName,
			LastName:  su.LastName,
			IsActive:  true,
		}
		if !usr.Role.IsValid() {
			return errors.Errorf("user %q: invalid role %q", su.Email, su.Role)
		}
		if su.Organization != "" {
			usr.OrganizationID = null.StringFrom(su.Organization)
		}
		if usr, err = cli.users.Create(ctx, usr); err != nil {
			return errors.Wrapf(err, "user %q", su.Email)
		}
		if su.Password != "" {
			if err = cli.local.AddUser(ctx, usr, su.Password); err != nil {
				return errors.Wrapf(err, "local account %q", su.Email)
			}
		}
		userIDs[usr.Email] = usr.ID
	}

	lookup := func(email string) (string, error) {
		email = core.CleanString(email, true /* lower */)
		if id, ok := userIDs[email]; ok {
			return id, nil
		}
		usr, err := cli.users.FetchByEmail(ctx, email)
		if err != nil {
			return "", errors.Wrapf(err, "looking up %q", email)
		}
		return usr.ID, nil
	}

	var modules, lessons int
	for _, sc := range sf.Courses {
		creatorID, err := lookup(sc.CreatedBy)
		if err != nil {
			return err
		}
		c := course.Course{
			Title:              sc.Title,
			Description:        sc.Description,
			Level:              course.Level(sc.Level),
			DurationHours:      sc.DurationHours,
			IsPublished:        sc.Published,
			CreatedByID:        creatorID,
			Prerequisites:      sc.Prerequisites,
			LearningObjectives: sc.Objectives,
		}
		if c.Level == "" {
			c.Level = course.LevelBeginner
		}
		if sc.Organization != "" {
			c.OrganizationID = null.StringFrom(sc.Organization)
		}
		if c, err = cli.courses.CreateCourse(ctx, c); err != nil {
			return errors.Wrapf(err, "course %q", sc.Title)
		}
		if sc.Educator != "" {
			educatorID, err := lookup(sc.Educator)
			if err != nil {
				return err
			}
			if _, err = cli.courses.AssignEducator(ctx, c.ID, educatorID); err != nil {
				return errors.Wrapf(err, "assigning %q", sc.Educator)
			}
			c.AssignedEducatorID = null.StringFrom(educatorID)
		}
		if _, err = cli.local.AddCourse(ctx, c); err != nil {
			return errors.Wrapf(err, "local course %q", sc.Title)
		}
		for i, sm := range sc.Modules {
			m, err := cli.courses.CreateModule(ctx, course.Module{CourseID: c.ID, Title: sm.Title, Description: sm.Description, OrderIndex: i})
			if err != nil {
				return errors.Wrapf(err, "module %q", sm.Title)
			}
			modules++
			for j, title := range sm.Lessons {
				if _, err := cli.courses.CreateLesson(ctx, course.Lesson{ModuleID: m.ID, Title: title, OrderIndex: j}); err != nil {
					return errors.Wrapf(err, "lesson %q", title)
				}
				lessons++
			}
		}
	}

	fmt.Fprintf(cli.out, "seeded %d organization(s), %d user(s), %d course(s), %d module(s), %d lesson(s)\n",
		len(sf.Organizations), len(sf.Users), len(sf.Courses), modules, lessons)
	return nil
}
