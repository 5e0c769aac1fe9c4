package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"fintrack/internal/core"
	"fintrack/internal/report"
)

type overviewCmd struct {
	app    *App
	pretty bool
	style  string
}

func (*overviewCmd) Name() string     { return "overview" }
func (*overviewCmd) Synopsis() string { return "summarize the current month" }
func (*overviewCmd) Usage() string {
	return `overview [-pretty] [-style dark|light|notty]

  Prints this month's expenses, income and progress against the monthly
  budgets, followed by the most recent transactions. The report is markdown;
  -pretty renders it for the terminal.
`
}

func (c *overviewCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.pretty, "pretty", false, "Render the markdown for the terminal")
	f.StringVar(&c.style, "style", "dark", "Terminal style used with -pretty")
}

func (c *overviewCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	txs, err := svc.Transactions.All(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	budgets, err := svc.Budgets.List(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	profile, err := svc.Profile.Get(ctx)
	if err != nil {
		return c.app.fail(err)
	}

	now := c.app.Now()
	var b strings.Builder
	title := "Overview"
	if name := profile.DisplayName(); name != "" {
		title += " for " + name
	}
	var expenses []core.Expense
	for _, tx := range txs {
		if tx.Kind == core.KindExpense {
			expenses = append(expenses, *tx.Expense)
		}
	}
	c.app.renderOverview(&b, title+", "+now.Format("January 2006"),
		report.BuildOverview(txs, budgets, now),
		report.ExpensesByBudget(expenses, budgets, now.Year(), now.Month()))

	md := b.String()
	if c.pretty {
		out, err := glamour.Render(md, c.style)
		if err != nil {
			return c.app.fail(fmt.Errorf("render overview: %w", err))
		}
		md = out
	}
	c.app.printf("%s", md)
	return subcommands.ExitSuccess
}

func (a *App) renderOverview(w io.Writer, title string, o report.Overview, byBudget []report.BudgetSeries) {
	fmt.Fprintf(w, "# %s\n\n", title)
	fmt.Fprintf(w, "| | |\n|---|---:|\n")
	fmt.Fprintf(w, "| Expenses | %s |\n", a.Money(o.MonthExpenses))
	fmt.Fprintf(w, "| Income | %s |\n", a.Money(o.MonthIncome))
	if o.MonthlyBudget.Cents > 0 {
		fmt.Fprintf(w, "| Monthly budget | %s |\n", a.Money(o.MonthlyBudget))
		fmt.Fprintf(w, "| Budget used | %s%% |\n", o.BudgetProgress.StringFixed(1))
	} else {
		fmt.Fprintf(w, "| Monthly budget | none |\n")
	}

	if len(byBudget) > 0 {
		fmt.Fprintf(w, "\n## Spending by budget\n\n| Budget | Spent |\n|---|---:|\n")
		for _, s := range byBudget {
			fmt.Fprintf(w, "| %s | %s |\n", s.Name, a.Money(s.Total))
		}
	}

	fmt.Fprintf(w, "\n## Recent transactions\n\n")
	if len(o.Recent) == 0 {
		fmt.Fprintf(w, "No transactions yet.\n")
		return
	}
	fmt.Fprintf(w, "| Date | Description | Amount |\n|---|---|---:|\n")
	for _, tx := range o.Recent {
		fmt.Fprintf(w, "| %s | %s | %s |\n", tx.Date(), tx.Description(), a.signed(tx))
	}
}
