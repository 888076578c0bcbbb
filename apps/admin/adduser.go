package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/shubhammm008/Infosys-Team5/core"
	"github.com/shubhammm008/Infosys-Team5/core/user"
)

// addUser updates or creates a local account and its profile.
func (cli *commandLine) addUser(ctx context.Context, email, first, last string, role user.Role, pwd string) error {
	nu := user.NewUser{Email: email, Password: pwd, FirstName: first, LastName: last, Role: role}
	v := core.NewValidator()
	user.RegisterValidators(v)
	if err := nu.Validate(v); err != nil {
		return err
	}

	usr, exists := cli.local.GetUserByEmail(nu.Email)
	if exists {
		usr.FirstName, usr.LastName, usr.Role = nu.FirstName, nu.LastName, nu.Role
		usr.IsActive = true
		if err := cli.local.UpdateUser(ctx, usr); err != nil {
			return err
		}
		if err := cli.local.UpdatePassword(ctx, usr.Email, pwd); err != nil {
			return err
		}
	} else {
		usr = nu.User(core.NewID(), core.Now())
		if err := cli.local.AddUser(ctx, usr, pwd); err != nil {
			return err
		}
	}

	// mirror the profile on the backend
	if _, err := cli.users.Fetch(ctx, usr.ID); errors.Is(err, user.ErrNotFound) {
		_, err = cli.users.Create(ctx, usr)
		return err
	} else if err != nil {
		return err
	}
	_, err := cli.users.Update(ctx, usr)
	return err
}
