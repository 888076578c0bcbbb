package main

import (
	"context"
	"fmt"

	"github.com/shubhammm008/Infosys-Team5/core"
)

var errPasswordTooShort = fmt.Errorf("password must contain at least %d characters", core.MinimumPasswordLength)

// resetPassword replaces the local credential of email.
func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	if len([]rune(pwd)) < core.MinimumPasswordLength {
		return errPasswordTooShort
	}
	return cli.local.UpdatePassword(ctx, email, pwd)
}
