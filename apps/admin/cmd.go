package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/shubhammm008/Infosys-Team5/core/course"
	"github.com/shubhammm008/Infosys-Team5/core/org"
	"github.com/shubhammm008/Infosys-Team5/core/user"
	"github.com/shubhammm008/Infosys-Team5/storage/fallback"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	local   *fallback.Store
	users   *user.Service
	orgs    *org.Service
	courses *course.Service
	db      *sqlx.DB // nil unless the sql backend is configured
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -email EMAIL -first NAME -last NAME [-role ROLE] - add or update a local account, prompts for the password")
	fmt.Fprintln(cli.out, "  listusers [-role ROLE] [-q TEXT] - list the user profiles")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL - reset a local account's password")
	fmt.Fprintln(cli.out, "  stats [-educator EMAIL] - print the local store's counters")
	fmt.Fprintln(cli.out, "  resetdata - wipe the local store and restore the default admin")
	fmt.Fprintln(cli.out, "  seed -file FILE - load organizations, users and courses from a YAML file")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...] - run database migrations (sql backend only)")
}

func (cli *commandLine) command(args []string) string {
	if len(args) < 2 {
		return "admin"
	}
	return args[1]
}

// promptPassword reads a password without echo. An empty one is a usage error.
func (cli *commandLine) promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserFirst := addUserCmd.String("first", "", "The user's first name.")
	addUserLast := addUserCmd.String("last", "", "The user's last name.")
	addUserRole := addUserCmd.String("role", string(user.RoleAdmin), "admin, educator or learner.")

	listUsersCmd := flag.NewFlagSet("listusers", flag.ContinueOnError)
	listUsersRole := listUsersCmd.String("role", "", "Only list users with this role.")
	listUsersQuery := listUsersCmd.String("q", "", "Only list users whose name or email contains this text.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	statsCmd := flag.NewFlagSet("stats", flag.ContinueOnError)
	statsEducator := statsCmd.String("educator", "", "Also list the courses assigned to this educator.")

	seedCmd := flag.NewFlagSet("seed", flag.ContinueOnError)
	seedFile := seedCmd.String("file", "", "The YAML file to load.")

	for _, fs := range []*flag.FlagSet{addUserCmd, listUsersCmd, resetPasswordCmd, statsCmd, seedCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserEmail == "" || *addUserFirst == "" || *addUserLast == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(ctx, *addUserEmail, *addUserFirst, *addUserLast, user.Role(*addUserRole), pwd)

	case "listusers":
		if err := listUsersCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.listUsers(ctx, user.QueryFilter{Role: user.Role(*listUsersRole), Search: *listUsersQuery})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(ctx, *resetPasswordEmail, pwd)

	case "stats":
		if err := statsCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.stats(ctx, *statsEducator)

	case "resetdata":
		return cli.resetData(ctx)

	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *seedFile == "" {
			seedCmd.Usage()
			return errHelp
		}
		return cli.seed(ctx, *seedFile)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])

	default:
		cli.printUsage()
		return errHelp
	}
}
