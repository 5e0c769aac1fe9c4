package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/google/subcommands"

	"fintrack/internal/core"
)

type accountsCmd struct {
	app   *App
	types bool
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list accounts" }
func (*accountsCmd) Usage() string {
	return `accounts [-types]

  Lists the accounts of the current user. With -types, lists the catalog of
  account types accepted by account-add instead.
`
}

func (c *accountsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.types, "types", false, "List the account type catalog")
}

func (c *accountsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	w := tabwriter.NewWriter(c.app.Out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	if c.types {
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY")
		for _, t := range svc.Accounts.AccountTypes() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Name, t.Category)
		}
		return subcommands.ExitSuccess
	}

	accounts, err := svc.Accounts.List(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tSTATUS")
	for _, a := range accounts {
		typ := "-"
		if a.AccountType != nil {
			typ = a.AccountType.Name
		}
		status := a.Status
		if status == "" {
			status = core.StatusActive
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Name, typ, status)
	}
	return subcommands.ExitSuccess
}

type accountAddCmd struct {
	app        *App
	name, kind string
	owners     string
}

func (*accountAddCmd) Name() string     { return "account-add" }
func (*accountAddCmd) Synopsis() string { return "add an account" }
func (*accountAddCmd) Usage() string {
	return `account-add -name <name> [-type <type id>] [-owners <id,id>]

  Adds an active account. Without -owners the current user owns it.
`
}

func (c *accountAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Account name (required)")
	f.StringVar(&c.kind, "type", "", "Account type id, see 'accounts -types'")
	f.StringVar(&c.owners, "owners", "", "Comma separated owner ids")
}

func (c *accountAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a := core.Account{Name: c.name}
	if c.kind != "" {
		t, ok := core.LookupAccountType(c.kind)
		if !ok {
			return c.app.usage("unknown account type %q", c.kind)
		}
		a.AccountType = &t
	}
	a.OwnerIDs = splitList(c.owners)

	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	created, err := svc.Accounts.Create(ctx, a)
	if err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Added account %s (%s)\n", created.Name, created.ID)
	return subcommands.ExitSuccess
}

type accountEditCmd struct {
	app        *App
	id         string
	name, kind string
	owners     string
}

func (*accountEditCmd) Name() string     { return "account-edit" }
func (*accountEditCmd) Synopsis() string { return "change an account's details" }
func (*accountEditCmd) Usage() string {
	return `account-edit -id <account id> [-name <name>] [-type <type id>] [-owners <id,id>]

  Changes only the given fields. An empty -type removes the account type.
  Use account-close and account-reopen to change the status.
`
}

func (c *accountEditCmd) SetFlags(f *flag.FlagSet) {
	idFlag(f, &c.id, "Account")
	f.StringVar(&c.name, "name", "", "Account name")
	f.StringVar(&c.kind, "type", "", "Account type id, see 'accounts -types'")
	f.StringVar(&c.owners, "owners", "", "Comma separated owner ids")
}

func (c *accountEditCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return c.app.usage("-id is required")
	}
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	a, err := svc.Accounts.Get(ctx, c.id)
	if err != nil {
		return c.app.fail(err)
	}

	set := visited(f)
	if set["name"] {
		a.Name = c.name
	}
	if set["type"] {
		a.AccountType = nil
		if c.kind != "" {
			t, ok := core.LookupAccountType(c.kind)
			if !ok {
				return c.app.usage("unknown account type %q", c.kind)
			}
			a.AccountType = &t
		}
	}
	if set["owners"] {
		a.OwnerIDs = splitList(c.owners)
	}

	if err := svc.Accounts.Update(ctx, a); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Updated account %s\n", a.ID)
	return subcommands.ExitSuccess
}

// accountStatusCmd covers the commands that act on one account by id.
type accountStatusCmd struct {
	app *App
	id  string
}

func (c *accountStatusCmd) SetFlags(f *flag.FlagSet) { idFlag(f, &c.id, "Account") }

func (c *accountStatusCmd) run(ctx context.Context, done string, op func(context.Context, string) error) subcommands.ExitStatus {
	if c.id == "" {
		return c.app.usage("-id is required")
	}
	if err := op(ctx, c.id); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("%s account %s\n", done, c.id)
	return subcommands.ExitSuccess
}

type accountCloseCmd accountStatusCmd

func (*accountCloseCmd) Name() string     { return "account-close" }
func (*accountCloseCmd) Synopsis() string { return "mark an account inactive" }
func (*accountCloseCmd) Usage() string {
	return `account-close -id <account id>

  Refused while an active credit card is charged to the account.
`
}
func (c *accountCloseCmd) SetFlags(f *flag.FlagSet) { (*accountStatusCmd)(c).SetFlags(f) }

func (c *accountCloseCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	return (*accountStatusCmd)(c).run(ctx, "Closed", svc.Accounts.Close)
}

type accountReopenCmd accountStatusCmd

func (*accountReopenCmd) Name() string               { return "account-reopen" }
func (*accountReopenCmd) Synopsis() string           { return "mark an account active again" }
func (*accountReopenCmd) Usage() string              { return "account-reopen -id <account id>\n" }
func (c *accountReopenCmd) SetFlags(f *flag.FlagSet) { (*accountStatusCmd)(c).SetFlags(f) }

func (c *accountReopenCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	return (*accountStatusCmd)(c).run(ctx, "Reopened", svc.Accounts.Reactivate)
}

type accountDeleteCmd accountStatusCmd

func (*accountDeleteCmd) Name() string     { return "account-delete" }
func (*accountDeleteCmd) Synopsis() string { return "delete an account" }
func (*accountDeleteCmd) Usage() string {
	return `account-delete -id <account id>

  Refused while any credit card, active or not, references the account.
`
}
func (c *accountDeleteCmd) SetFlags(f *flag.FlagSet) { (*accountStatusCmd)(c).SetFlags(f) }

func (c *accountDeleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	return (*accountStatusCmd)(c).run(ctx, "Deleted", svc.Accounts.Delete)
}
