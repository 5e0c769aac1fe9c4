package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/google/subcommands"

	"fintrack/internal/core"
	"fintrack/internal/kv"
	"fintrack/internal/session"
)

type registerCmd struct {
	app                                    *App
	first, last, nickname, email, password string
}

func (*registerCmd) Name() string     { return "register" }
func (*registerCmd) Synopsis() string { return "create a user and sign in" }
func (*registerCmd) Usage() string {
	return `register -first <name> -email <email> -password <password> [-last <name>] [-nickname <name>]

  Creates a local user. The email must be unique; the password is stored as a
  bcrypt hash. The new user is signed in.
`
}

func (c *registerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.first, "first", "", "First name (required)")
	f.StringVar(&c.last, "last", "", "Last name")
	f.StringVar(&c.nickname, "nickname", "", "Nickname, shown instead of the full name")
	f.StringVar(&c.email, "email", "", "Email (required)")
	f.StringVar(&c.password, "password", "", "Password (required)")
}

func (c *registerCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p, err := c.app.Sessions.Register(ctx, core.Profile{
		FirstName: c.first, LastName: c.last, Nickname: c.nickname, Email: c.email,
	}, c.password)
	if err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Registered and signed in as %s (%s)\n", p.DisplayName(), p.ID)
	return subcommands.ExitSuccess
}

type loginCmd struct {
	app             *App
	email, password string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "sign in" }
func (*loginCmd) Usage() string    { return "login -email <email> -password <password>\n" }

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "Email (required)")
	f.StringVar(&c.password, "password", "", "Password (required)")
}

func (c *loginCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p, err := c.app.Sessions.Login(ctx, c.email, c.password)
	if err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Signed in as %s\n", p.DisplayName())
	return subcommands.ExitSuccess
}

type logoutCmd struct{ app *App }

func (*logoutCmd) Name() string             { return "logout" }
func (*logoutCmd) Synopsis() string         { return "sign out" }
func (*logoutCmd) Usage() string            { return "logout\n" }
func (*logoutCmd) SetFlags(_ *flag.FlagSet) {}

func (c *logoutCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.app.Sessions.Logout(ctx); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Signed out\n")
	return subcommands.ExitSuccess
}

type whoamiCmd struct{ app *App }

func (*whoamiCmd) Name() string             { return "whoami" }
func (*whoamiCmd) Synopsis() string         { return "show the signed-in user" }
func (*whoamiCmd) Usage() string            { return "whoami\n" }
func (*whoamiCmd) SetFlags(_ *flag.FlagSet) {}

func (c *whoamiCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	p, err := c.app.Sessions.Current(ctx)
	if errors.Is(err, session.ErrNotSignedIn) {
		c.app.printf("Not signed in; data is stored under %q\n", kv.AnonymousUser)
		return subcommands.ExitSuccess
	}
	if err != nil {
		return c.app.fail(err)
	}
	c.app.printf("%s <%s> (%s)\n", p.DisplayName(), p.Email, p.ID)
	return subcommands.ExitSuccess
}

type profileCmd struct{ app *App }

func (*profileCmd) Name() string             { return "profile" }
func (*profileCmd) Synopsis() string         { return "show the current user's profile" }
func (*profileCmd) Usage() string            { return "profile\n" }
func (*profileCmd) SetFlags(_ *flag.FlagSet) {}

func (c *profileCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	p, err := svc.Profile.Get(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	birth := "-"
	if p.DateOfBirth != nil {
		birth = p.DateOfBirth.String()
	}

	w := tabwriter.NewWriter(c.app.Out, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Name:\t%s\n", p.DisplayName())
	fmt.Fprintf(w, "First name:\t%s\n", p.FirstName)
	fmt.Fprintf(w, "Last name:\t%s\n", p.LastName)
	fmt.Fprintf(w, "Nickname:\t%s\n", p.Nickname)
	fmt.Fprintf(w, "Email:\t%s\n", p.Email)
	fmt.Fprintf(w, "Date of birth:\t%s\n", birth)
	return subcommands.ExitSuccess
}

type profileEditCmd struct {
	app                          *App
	first, last, nickname, birth string
}

func (*profileEditCmd) Name() string     { return "profile-edit" }
func (*profileEditCmd) Synopsis() string { return "change the current user's profile" }
func (*profileEditCmd) Usage() string {
	return `profile-edit [-first <name>] [-last <name>] [-nickname <name>] [-birth YYYY-MM-DD]

  Changes only the given fields. An empty -birth removes the date of birth.
  The sign-in email is not part of the profile and cannot be changed here.
`
}

func (c *profileEditCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.first, "first", "", "First name")
	f.StringVar(&c.last, "last", "", "Last name")
	f.StringVar(&c.nickname, "nickname", "", "Nickname, shown instead of the full name")
	f.StringVar(&c.birth, "birth", "", "Date of birth, YYYY-MM-DD")
}

func (c *profileEditCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	p, err := svc.Profile.Get(ctx)
	if err != nil {
		return c.app.fail(err)
	}

	set := visited(f)
	if set["first"] {
		p.FirstName = c.first
	}
	if set["last"] {
		p.LastName = c.last
	}
	if set["nickname"] {
		p.Nickname = c.nickname
	}
	if set["birth"] {
		p.DateOfBirth = nil
		if c.birth != "" {
			d, err := core.ParseDate(c.birth)
			if err != nil {
				return c.app.usage("invalid -birth %q: %v", c.birth, err)
			}
			p.DateOfBirth = &d
		}
	}

	if err := svc.Profile.Update(ctx, p); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Updated profile of %s\n", p.DisplayName())
	return subcommands.ExitSuccess
}
