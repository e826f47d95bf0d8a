// Command admin is the operator console. It bootstraps administrator
// accounts directly against the database, which is how the first admin of a
// fresh installation is created.
package main

import (
	"bufio"
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/atinyakov/sneakvault/internal/config"
	"github.com/atinyakov/sneakvault/internal/db"
	"github.com/atinyakov/sneakvault/internal/logger"
	"github.com/atinyakov/sneakvault/internal/models"
	"github.com/atinyakov/sneakvault/internal/repository"
	"github.com/atinyakov/sneakvault/internal/service"
	"github.com/atinyakov/sneakvault/internal/validation"
	"go.uber.org/zap"
)

var (
	version   string
	buildDate string
)

// accounts is the part of service.UserService the console uses.
type accounts interface {
	Create(ctx context.Context, in service.UserInput) (*models.User, error)
	List(ctx context.Context) (service.UserList, error)
}

// repl runs the interactive shell loop until exit or end of input.
func repl(ctx context.Context, in io.Reader, out io.Writer, users accounts) {
	scanner := bufio.NewScanner(in)

	prompt := func(label string) (string, bool) {
		fmt.Fprintf(out, "%s: ", label)
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	for {
		fmt.Fprint(out, "sneakvault> ")
		if !scanner.Scan() {
			return
		}
		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Fprintln(out, "Available commands: help, create, list, exit")
		case "create":
			username, ok := prompt("Username")
			if !ok {
				return
			}
			email, ok := prompt("Email")
			if !ok {
				return
			}
			password, ok := prompt("Password")
			if !ok {
				return
			}
			createAdmin(ctx, out, users, username, email, password)
		case "list":
			listUsers(ctx, out, users)
		case "exit":
			fmt.Fprintln(out, "Bye")
			return
		default:
			fmt.Fprintln(out, "Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func createAdmin(ctx context.Context, out io.Writer, users accounts, username, email, password string) {
	u, err := users.Create(ctx, service.UserInput{
		Username: username,
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
	})
	var errs validation.Errors
	switch {
	case errors.As(err, &errs):
		for _, msg := range errs {
			fmt.Fprintln(out, msg)
		}
	case err != nil:
		fmt.Fprintf(out, "Failed to create admin: %v\n", err)
	default:
		fmt.Fprintf(out, "Admin %q created (id %d)\n", u.Username, u.ID)
	}
}

func listUsers(ctx context.Context, out io.Writer, users accounts) {
	list, err := users.List(ctx)
	if err != nil {
		fmt.Fprintf(out, "Failed to list users: %v\n", err)
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tROLE\tCOMMENTS")
	for _, u := range list.Users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", u.ID, u.Username, u.Email, u.Role, u.CommentCount)
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "%d admins, %d users\n", list.Admins, list.Others)
}

func main() {
	var showVer bool
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	fs.BoolVar(&showVer, "version", false, "show build version and date")
	_ = fs.Parse(versionArgs(os.Args[1:]))
	if showVer {
		fmt.Printf("SneakVault admin\nVersion: %s\nBuild Date: %s\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		return
	}

	options, err := config.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logger.New()
	if err := log.Init(options.LogLevel, options.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = log.Log.Sync() }()

	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		log.Log.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	users := service.NewUserService(repository.NewPostgresUserRepository(postgresDB))
	repl(context.Background(), os.Stdin, os.Stdout, users)
}

// versionArgs keeps only -version so the remaining flags reach config.Parse.
func versionArgs(args []string) []string {
	for _, a := range args {
		if a == "-version" || a == "--version" {
			return []string{a}
		}
	}
	return nil
}
