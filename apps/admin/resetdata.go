package main

import (
	"context"
	"fmt"

	"github.com/shubhammm008/Infosys-Team5/storage/fallback"
)

func (cli *commandLine) resetData(ctx context.Context) error {
	if err := cli.local.ClearAllData(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "local store reset, sign in as %s\n", fallback.AdminEmail)
	return nil
}
