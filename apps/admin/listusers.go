package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/shubhammm008/Infosys-Team5/core/user"
)

func (cli *commandLine) listUsers(ctx context.Context, qf user.QueryFilter) error {
	users, err := cli.users.Search(ctx, qf)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tNAME\tROLE\tACTIVE\tLAST LOGIN")
	for _, u := range users {
		lastLogin := "-"
		if u.LastLogin.Valid {
			lastLogin = u.LastLogin.Time.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", u.Email, u.FullName(), u.Role.DisplayName(), u.IsActive, lastLogin)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d user(s)\n", len(users))
	return nil
}
