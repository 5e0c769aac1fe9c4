package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/google/subcommands"

	"fintrack/internal/core"
	"fintrack/internal/report"
)

// paymentFlags selects the account or card a transaction moves money through.
type paymentFlags struct {
	account, card string
}

func (p *paymentFlags) set(f *flag.FlagSet) {
	f.StringVar(&p.account, "account", "", "Account id")
	f.StringVar(&p.card, "card", "", "Credit card id")
}

func (p *paymentFlags) target() (core.TargetType, error) {
	switch {
	case p.account != "" && p.card != "":
		return "", fmt.Errorf("%w: use either -account or -card, not both", core.ErrValidation)
	case p.card != "":
		return core.TargetCard, nil
	case p.account != "":
		return core.TargetAccount, nil
	}
	return "", fmt.Errorf("%w: one of -account or -card is required", core.ErrValidation)
}

type expenseAddCmd struct {
	app                               *App
	amount, description, date, budget string
	payment                           paymentFlags
}

func (*expenseAddCmd) Name() string     { return "expense-add" }
func (*expenseAddCmd) Synopsis() string { return "record an expense" }
func (*expenseAddCmd) Usage() string {
	return `expense-add -amount <amount> -description <text> -budget <budget id>
            (-card <card id> | -account <account id>) [-date YYYY-MM-DD]

  The budget and the card or account must exist. The date defaults to today.
`
}

func (c *expenseAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "amount", "", "Amount, e.g. 42.50 (required)")
	f.StringVar(&c.description, "description", "", "Description (required)")
	f.StringVar(&c.date, "date", "", "Execution date, YYYY-MM-DD")
	f.StringVar(&c.budget, "budget", "", "Budget id (required)")
	c.payment.set(f)
}

func (c *expenseAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := core.ParseMoney(c.amount)
	if err != nil {
		return c.app.usage("invalid -amount %q: %v", c.amount, err)
	}
	date, err := c.app.parseDate(c.date)
	if err != nil {
		return c.app.fail(err)
	}
	method, err := c.payment.target()
	if err != nil {
		return c.app.fail(err)
	}

	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	created, err := svc.Transactions.CreateExpense(ctx, core.Expense{
		Amount:           amount,
		Description:      c.description,
		ExecutionDate:    date,
		BudgetID:         c.budget,
		PaymentMethod:    method,
		CreditCardID:     c.payment.card,
		PaymentAccountID: c.payment.account,
	})
	if err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Recorded expense %s of %s\n", created.ID, c.app.Money(created.Amount))
	return subcommands.ExitSuccess
}

type incomeAddCmd struct {
	app                       *App
	amount, description, date string
	payment                   paymentFlags
}

func (*incomeAddCmd) Name() string     { return "income-add" }
func (*incomeAddCmd) Synopsis() string { return "record an income" }
func (*incomeAddCmd) Usage() string {
	return `income-add -amount <amount> (-account <account id> | -card <card id>)
           [-description <text>] [-date YYYY-MM-DD]
`
}

func (c *incomeAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "amount", "", "Amount (required)")
	f.StringVar(&c.description, "description", "", "Description")
	f.StringVar(&c.date, "date", "", "Receipt date, YYYY-MM-DD")
	c.payment.set(f)
}

func (c *incomeAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := core.ParseMoney(c.amount)
	if err != nil {
		return c.app.usage("invalid -amount %q: %v", c.amount, err)
	}
	date, err := c.app.parseDate(c.date)
	if err != nil {
		return c.app.fail(err)
	}
	target, err := c.payment.target()
	if err != nil {
		return c.app.fail(err)
	}

	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	created, err := svc.Transactions.CreateIncome(ctx, core.Income{
		Amount:                amount,
		Description:           c.description,
		ReceiptDate:           date,
		TargetType:            target,
		ReceivingAccountID:    c.payment.account,
		ReceivingCreditCardID: c.payment.card,
	})
	if err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Recorded income %s of %s\n", created.ID, c.app.Money(created.Amount))
	return subcommands.ExitSuccess
}

// changed reports whether -account or -card was given.
func (p *paymentFlags) changed(set map[string]bool) bool {
	return set["account"] || set["card"]
}

// expenseEditCmd reuses expense-add's flags.
type expenseEditCmd struct {
	expenseAddCmd
	id string
}

func (*expenseEditCmd) Name() string     { return "expense-edit" }
func (*expenseEditCmd) Synopsis() string { return "change an expense" }
func (*expenseEditCmd) Usage() string {
	return `expense-edit -id <expense id> [-amount <amount>] [-description <text>] [-date YYYY-MM-DD]
             [-budget <budget id>] [-card <card id> | -account <account id>]

  Changes only the given fields. The budget and the card or account must exist.
`
}

func (c *expenseEditCmd) SetFlags(f *flag.FlagSet) {
	idFlag(f, &c.id, "Expense")
	c.expenseAddCmd.SetFlags(f)
}

func (c *expenseEditCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return c.app.usage("-id is required")
	}
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	e, err := svc.Transactions.GetExpense(ctx, c.id)
	if err != nil {
		return c.app.fail(err)
	}

	set := visited(f)
	if set["amount"] {
		if e.Amount, err = core.ParseMoney(c.amount); err != nil {
			return c.app.usage("invalid -amount %q: %v", c.amount, err)
		}
	}
	if set["description"] {
		e.Description = c.description
	}
	if set["date"] {
		if e.ExecutionDate, err = c.app.parseDate(c.date); err != nil {
			return c.app.fail(err)
		}
	}
	if set["budget"] {
		e.BudgetID = c.budget
	}
	if c.payment.changed(set) {
		if e.PaymentMethod, err = c.payment.target(); err != nil {
			return c.app.fail(err)
		}
		e.CreditCardID, e.PaymentAccountID = c.payment.card, c.payment.account
	}

	if err := svc.Transactions.UpdateExpense(ctx, e); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Updated expense %s\n", e.ID)
	return subcommands.ExitSuccess
}

// incomeEditCmd reuses income-add's flags.
type incomeEditCmd struct {
	incomeAddCmd
	id string
}

func (*incomeEditCmd) Name() string     { return "income-edit" }
func (*incomeEditCmd) Synopsis() string { return "change an income" }
func (*incomeEditCmd) Usage() string {
	return `income-edit -id <income id> [-amount <amount>] [-description <text>] [-date YYYY-MM-DD]
            [-account <account id> | -card <card id>]

  Changes only the given fields.
`
}

func (c *incomeEditCmd) SetFlags(f *flag.FlagSet) {
	idFlag(f, &c.id, "Income")
	c.incomeAddCmd.SetFlags(f)
}

func (c *incomeEditCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return c.app.usage("-id is required")
	}
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	i, err := svc.Transactions.GetIncome(ctx, c.id)
	if err != nil {
		return c.app.fail(err)
	}

	set := visited(f)
	if set["amount"] {
		if i.Amount, err = core.ParseMoney(c.amount); err != nil {
			return c.app.usage("invalid -amount %q: %v", c.amount, err)
		}
	}
	if set["description"] {
		i.Description = c.description
	}
	if set["date"] {
		if i.ReceiptDate, err = c.app.parseDate(c.date); err != nil {
			return c.app.fail(err)
		}
	}
	if c.payment.changed(set) {
		if i.TargetType, err = c.payment.target(); err != nil {
			return c.app.fail(err)
		}
		i.ReceivingAccountID, i.ReceivingCreditCardID = c.payment.account, c.payment.card
	}

	if err := svc.Transactions.UpdateIncome(ctx, i); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Updated income %s\n", i.ID)
	return subcommands.ExitSuccess
}

type transactionDeleteCmd struct {
	app *App
	id  string
}

func (*transactionDeleteCmd) Name() string     { return "transaction-delete" }
func (*transactionDeleteCmd) Synopsis() string { return "delete an expense or income" }
func (*transactionDeleteCmd) Usage() string    { return "transaction-delete -id <expense or income id>\n" }
func (c *transactionDeleteCmd) SetFlags(f *flag.FlagSet) {
	idFlag(f, &c.id, "Expense or income")
}

func (c *transactionDeleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return c.app.usage("-id is required")
	}
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	if err := svc.Transactions.Delete(ctx, c.id); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Deleted transaction %s\n", c.id)
	return subcommands.ExitSuccess
}

type transactionsCmd struct {
	app   *App
	year  int
	years bool
}

func (*transactionsCmd) Name() string     { return "transactions" }
func (*transactionsCmd) Synopsis() string { return "list transactions grouped by month" }
func (*transactionsCmd) Usage() string {
	return `transactions [-year <yyyy>] [-years]

  Lists one year's expenses and incomes grouped by month, newest first, with
  monthly and yearly totals. -years lists the years that hold transactions.
`
}

func (c *transactionsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "Year to show, defaults to the current year")
	f.BoolVar(&c.years, "years", false, "List available years")
}

func (c *transactionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	txs, err := svc.Transactions.All(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	now := c.app.Now()

	if c.years {
		for _, y := range report.Years(txs, now) {
			c.app.printf("%d\n", y)
		}
		return subcommands.ExitSuccess
	}

	year := c.year
	if year == 0 {
		year = now.Year()
	}
	groups := report.GroupByMonth(txs, year, now)

	w := tabwriter.NewWriter(c.app.Out, 0, 0, 2, ' ', 0)
	defer w.Flush()
	for _, g := range groups {
		fmt.Fprintf(w, "%s %d\tincome %s\texpenses %s\tnet %s\n", g.Month, g.Year,
			c.app.Money(g.TotalIncome), c.app.Money(g.TotalExpense), c.app.Money(g.Net()))
		for _, tx := range g.Transactions {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", tx.Date(), tx.Kind, c.app.signed(tx), tx.Description())
		}
	}
	t := report.YearTotals(groups)
	fmt.Fprintf(w, "Total %d\tincome %s\texpenses %s\tnet %s\n", year,
		c.app.Money(t.Income), c.app.Money(t.Expense), c.app.Money(t.Net()))
	return subcommands.ExitSuccess
}

// signed renders expenses negative and incomes positive.
func (a *App) signed(tx core.Transaction) string {
	if tx.Kind == core.KindExpense {
		return "-" + a.Money(tx.Amount())
	}
	return "+" + a.Money(tx.Amount())
}
