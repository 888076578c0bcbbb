package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/shubhammm008/Infosys-Team5/core/course"
	"github.com/shubhammm008/Infosys-Team5/storage/fallback"
)

// stats prints the local store's dashboard counters. With an educator email
// it also lists the courses assigned to that educator.
func (cli *commandLine) stats(_ context.Context, educatorEmail string) error {
	total, educators, learners := cli.local.UserStats()
	fmt.Fprintf(cli.out, "users: %d\neducators: %d\nlearners: %d\ncourses: %d\n",
		total, educators, learners, len(cli.local.GetCourses()))
	if educatorEmail == "" {
		return nil
	}

	usr, ok := cli.local.GetUserByEmail(educatorEmail)
	if !ok {
		return errors.Wrapf(fallback.ErrUserNotFound, "%q", educatorEmail)
	}
	courses := cli.local.GetCoursesByEducator(usr.ID)
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TITLE\tLEVEL\tPUBLISHED")
	for _, c := range courses {
		fmt.Fprintf(w, "%s\t%s\t%t\n", c.Title, levelName(c.Level), c.IsPublished)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d course(s) assigned to %s\n", len(courses), usr.Email)
	return nil
}

func levelName(l course.Level) string {
	if l == "" {
		return "-"
	}
	return string(l)
}
