package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/google/subcommands"

	"fintrack/internal/core"
)

type cardsCmd struct {
	app     *App
	account string
}

func (*cardsCmd) Name() string     { return "cards" }
func (*cardsCmd) Synopsis() string { return "list credit cards" }
func (*cardsCmd) Usage() string {
	return `cards [-account <account id>]

  Lists credit cards. Active cards past their expiry are marked inactive with
  reason "expired" before they are shown.
`
}

func (c *cardsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Only cards charged to this account")
}

func (c *cardsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	var cards []core.CreditCard
	if c.account != "" {
		cards, err = svc.CreditCards.ListByAccount(ctx, c.account)
	} else {
		cards, err = svc.CreditCards.List(ctx)
	}
	if err != nil {
		return c.app.fail(err)
	}

	w := tabwriter.NewWriter(c.app.Out, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "ID\tNAME\tACCOUNT\tCHARGE DAY\tEXPIRY\tSTATUS")
	for _, card := range cards {
		expiry := "-"
		if card.Expiry != nil {
			expiry = card.Expiry.String()
		}
		status := string(core.StatusActive)
		if !card.IsActive() {
			status = string(core.StatusInactive)
			if card.CancellationReason != "" {
				status += " (" + string(card.CancellationReason) + ")"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			card.ID, card.DisplayName, card.ChargeAccountID, card.MonthlyChargeDay, expiry, status)
	}
	return subcommands.ExitSuccess
}

type cardAddCmd struct {
	app           *App
	name, account string
	chargeDay     int
	expiry        string
	virtual       bool
}

func (*cardAddCmd) Name() string     { return "card-add" }
func (*cardAddCmd) Synopsis() string { return "add a credit card" }
func (*cardAddCmd) Usage() string {
	return `card-add -name <name> -account <account id> -charge-day <1-31> [-expiry MM/YY] [-virtual]

  The charge account must exist.
`
}

func (c *cardAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Display name (required)")
	f.StringVar(&c.account, "account", "", "Charge account id (required)")
	f.IntVar(&c.chargeDay, "charge-day", 0, "Day of month the card is charged (required)")
	f.StringVar(&c.expiry, "expiry", "", "Expiry as MM/YY")
	f.BoolVar(&c.virtual, "virtual", false, "Virtual card")
}

func (c *cardAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	card := core.CreditCard{
		DisplayName:      c.name,
		ChargeAccountID:  c.account,
		MonthlyChargeDay: c.chargeDay,
	}
	if c.virtual {
		v := true
		card.IsVirtual = &v
	}
	if c.expiry != "" {
		e, err := core.ParseExpiry(c.expiry)
		if err != nil {
			return c.app.fail(err)
		}
		card.Expiry = &e
	}

	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	created, err := svc.CreditCards.Create(ctx, card)
	if err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Added card %s (%s)\n", created.DisplayName, created.ID)
	return subcommands.ExitSuccess
}

type cardEditCmd struct {
	app           *App
	id            string
	name, account string
	chargeDay     int
	expiry        string
	virtual       bool
}

func (*cardEditCmd) Name() string     { return "card-edit" }
func (*cardEditCmd) Synopsis() string { return "change a credit card's details" }
func (*cardEditCmd) Usage() string {
	return `card-edit -id <card id> [-name <name>] [-account <account id>] [-charge-day <1-31>]
          [-expiry MM/YY] [-virtual=true|false]

  Changes only the given fields. An empty -expiry removes the expiry. The
  status is kept; use card-cancel and card-reactivate to change it.
`
}

func (c *cardEditCmd) SetFlags(f *flag.FlagSet) {
	idFlag(f, &c.id, "Card")
	f.StringVar(&c.name, "name", "", "Display name")
	f.StringVar(&c.account, "account", "", "Charge account id")
	f.IntVar(&c.chargeDay, "charge-day", 0, "Day of month the card is charged")
	f.StringVar(&c.expiry, "expiry", "", "Expiry as MM/YY")
	f.BoolVar(&c.virtual, "virtual", false, "Virtual card")
}

func (c *cardEditCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return c.app.usage("-id is required")
	}
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	card, err := svc.CreditCards.Get(ctx, c.id)
	if err != nil {
		return c.app.fail(err)
	}

	set := visited(f)
	if set["name"] {
		card.DisplayName = c.name
	}
	if set["account"] {
		card.ChargeAccountID = c.account
	}
	if set["charge-day"] {
		card.MonthlyChargeDay = c.chargeDay
	}
	if set["expiry"] {
		card.Expiry = nil
		if c.expiry != "" {
			e, err := core.ParseExpiry(c.expiry)
			if err != nil {
				return c.app.fail(err)
			}
			card.Expiry = &e
		}
	}
	if set["virtual"] {
		v := c.virtual
		card.IsVirtual = &v
	}

	if err := svc.CreditCards.Update(ctx, card); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Updated card %s\n", card.ID)
	return subcommands.ExitSuccess
}

type cardCancelCmd struct {
	app              *App
	id, reason, note string
}

func (*cardCancelCmd) Name() string     { return "card-cancel" }
func (*cardCancelCmd) Synopsis() string { return "cancel a credit card" }
func (*cardCancelCmd) Usage() string {
	return `card-cancel -id <card id> [-reason cancelled|expired|lostOrStolen|other] [-note <text>]
`
}

func (c *cardCancelCmd) SetFlags(f *flag.FlagSet) {
	idFlag(f, &c.id, "Card")
	f.StringVar(&c.reason, "reason", string(core.ReasonCancelled), "Cancellation reason")
	f.StringVar(&c.note, "note", "", "Free text note")
}

func (c *cardCancelCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return c.app.usage("-id is required")
	}
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	if err := svc.CreditCards.Cancel(ctx, c.id, core.CancellationReason(c.reason), c.note); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Cancelled card %s\n", c.id)
	return subcommands.ExitSuccess
}

type cardReactivateCmd struct {
	app *App
	id  string
}

func (*cardReactivateCmd) Name() string     { return "card-reactivate" }
func (*cardReactivateCmd) Synopsis() string { return "reactivate a credit card" }
func (*cardReactivateCmd) Usage() string {
	return `card-reactivate -id <card id>

  Refused when the card has expired or its charge account is inactive.
`
}
func (c *cardReactivateCmd) SetFlags(f *flag.FlagSet) { idFlag(f, &c.id, "Card") }

func (c *cardReactivateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return c.app.usage("-id is required")
	}
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	if err := svc.CreditCards.Reactivate(ctx, c.id); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Reactivated card %s\n", c.id)
	return subcommands.ExitSuccess
}

type cardDeleteCmd struct {
	app *App
	id  string
}

func (*cardDeleteCmd) Name() string               { return "card-delete" }
func (*cardDeleteCmd) Synopsis() string           { return "delete a credit card" }
func (*cardDeleteCmd) Usage() string              { return "card-delete -id <card id>\n" }
func (c *cardDeleteCmd) SetFlags(f *flag.FlagSet) { idFlag(f, &c.id, "Card") }

func (c *cardDeleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return c.app.usage("-id is required")
	}
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	if err := svc.CreditCards.Delete(ctx, c.id); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Deleted card %s\n", c.id)
	return subcommands.ExitSuccess
}
