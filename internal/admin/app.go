package admin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/flagx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Service is the part of services.AuthService the admin tool drives.
type Service interface {
	CreatePrincipal(ctx context.Context, role, email, password, displayName string) (*models.Principal, error)
	Verify(ctx context.Context, role, email, password string) (*models.Principal, error)
	SetStatus(ctx context.Context, principalID string, status models.PrincipalStatus) error
	RevokeAll(ctx context.Context, principalID string) error
}

type App struct {
	svc Service
	out io.Writer
}

func NewApp(svc Service, out io.Writer) *App {
	return &App{svc: svc, out: out}
}

type command struct {
	flags []string
	run   func(a *App, ctx context.Context, fs *flag.FlagSet, args []string) error
}

var commands = map[string]command{
	"create":     {flags: []string{"-role", "-email", "-name"}, run: (*App).create},
	"verify":     {flags: []string{"-role", "-email"}, run: (*App).verify},
	"ban":        {flags: []string{"-id"}, run: statusCommand(models.StatusSuspended, "banned")},
	"unban":      {flags: []string{"-id"}, run: statusCommand(models.StatusActive, "unbanned")},
	"delete":     {flags: []string{"-id"}, run: statusCommand(models.StatusDeleted, "deleted")},
	"revoke-all": {flags: []string{"-id"}, run: (*App).revokeAll},
}

// Run executes the command named by args[0] and returns the process exit
// code.
func (a *App) Run(ctx context.Context, args []string) int {
	name, rest := flagx.SplitCommand(args)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(a.out, "unknown command %q\n", name)
		a.usage()
		return 2
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)

	if err := cmd.run(a, ctx, fs, flagx.FilterArgs(rest, cmd.flags)); err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return 1
	}
	return 0
}

func (a *App) usage() {
	names := slices.Sorted(maps.Keys(commands))
	fmt.Fprintf(a.out, "commands: %s\n", strings.Join(names, ", "))
}

func (a *App) password(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

func required(values map[string]string) error {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(values)) {
		if values[name] == "" {
			errs = append(errs, fmt.Errorf("-%s is required", name))
		}
	}
	return errors.Join(errs...)
}

func (a *App) create(ctx context.Context, fs *flag.FlagSet, args []string) error {
	role := fs.String("role", "", "principal role")
	email := fs.String("email", "", "login identifier")
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(map[string]string{"role": *role, "email": *email}); err != nil {
		return err
	}

	pw, err := a.password("Enter password: ")
	if err != nil {
		return err
	}

	p, err := a.svc.CreatePrincipal(ctx, *role, *email, pw, *name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created %s %s id=%s\n", p.Role, p.Email, p.ID)
	return nil
}

func (a *App) verify(ctx context.Context, fs *flag.FlagSet, args []string) error {
	role := fs.String("role", "", "principal role")
	email := fs.String("email", "", "login identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(map[string]string{"role": *role, "email": *email}); err != nil {
		return err
	}

	pw, err := a.password("Enter password: ")
	if err != nil {
		return err
	}

	p, err := a.svc.Verify(ctx, *role, *email, pw)
	switch {
	case errors.Is(err, common.ErrAccountNotActive):
		fmt.Fprintln(a.out, "password ok, account is not active")
		return nil
	case err != nil:
		return err
	}
	fmt.Fprintf(a.out, "password ok id=%s\n", p.ID)
	return nil
}

func statusCommand(status models.PrincipalStatus, done string) func(*App, context.Context, *flag.FlagSet, []string) error {
	return func(a *App, ctx context.Context, fs *flag.FlagSet, args []string) error {
		id := fs.String("id", "", "principal id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := required(map[string]string{"id": *id}); err != nil {
			return err
		}
		if err := a.svc.SetStatus(ctx, *id, status); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s %s\n", done, *id)
		return nil
	}
}

func (a *App) revokeAll(ctx context.Context, fs *flag.FlagSet, args []string) error {
	id := fs.String("id", "", "principal id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(map[string]string{"id": *id}); err != nil {
		return err
	}
	if err := a.svc.RevokeAll(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "sessions revoked %s\n", *id)
	return nil
}
