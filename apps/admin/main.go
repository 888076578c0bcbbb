package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shubhammm008/Infosys-Team5/apps/di"
	"github.com/shubhammm008/Infosys-Team5/core"
)

func main() {
	ctx := context.Background()

	conf, err := core.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	c, err := di.New(ctx, conf, di.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "setting up: %v\n", err)
		os.Exit(1)
	}

	// start CLI
	cli := commandLine{
		local:   c.Local,
		users:   c.Users,
		orgs:    c.Orgs,
		courses: c.Courses,
		db:      c.DB,
		out:     os.Stdout,
	}
	err = cli.run(ctx, os.Args)
	if cerr := c.Close(); cerr != nil {
		c.Logger.Error("closing", cerr)
	}
	if err != nil {
		if err != errHelp {
			c.Logger.Error(fmt.Sprintf("%s failed", cli.command(os.Args)), err)
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
