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

type budgetsCmd struct{ app *App }

func (*budgetsCmd) Name() string     { return "budgets" }
func (*budgetsCmd) Synopsis() string { return "list budgets with spending in the current cycle" }
func (*budgetsCmd) Usage() string {
	return `budgets

  Lists budgets with the amount spent against each in its current cycle.
`
}
func (*budgetsCmd) SetFlags(_ *flag.FlagSet) {}

func (c *budgetsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	budgets, err := svc.Budgets.List(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	expenses, err := svc.Transactions.ListExpenses(ctx)
	if err != nil {
		return c.app.fail(err)
	}

	w := tabwriter.NewWriter(c.app.Out, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "ID\tNAME\tCYCLE\tWINDOW\tAMOUNT\tSPENT\tUSED")
	for _, u := range report.ComputeBudgetUsage(budgets, expenses, c.app.Now()) {
		used := u.Percent.StringFixed(0) + "%"
		if u.Over() {
			used += " over"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			u.Budget.ID, u.Budget.Name, cycleLabel(u.Budget.Cycle), u.Window,
			c.app.Money(u.Budget.Amount), c.app.Money(u.Spent), used)
	}
	return subcommands.ExitSuccess
}

func cycleLabel(c core.BudgetCycle) string {
	if c.Type == core.CycleCustom {
		return fmt.Sprintf("every %d %s", c.CustomValue, c.CustomUnit)
	}
	return string(c.Type)
}

type budgetAddCmd struct {
	app                       *App
	name, amount, description string
	cycle, customUnit         string
	customValue               int
	importance                string
	accumulating              bool
}

func (*budgetAddCmd) Name() string     { return "budget-add" }
func (*budgetAddCmd) Synopsis() string { return "add a budget" }
func (*budgetAddCmd) Usage() string {
	return `budget-add -name <name> -amount <amount> [-cycle monthly|bi-monthly|yearly|custom]
           [-custom-value <n> -custom-unit month|year] [-importance high|medium|low]
           [-description <text>] [-accumulating]
`
}

func (c *budgetAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Budget name (required)")
	f.StringVar(&c.amount, "amount", "", "Amount per cycle, e.g. 1500 or 99.90 (required)")
	f.StringVar(&c.cycle, "cycle", string(core.CycleMonthly), "Cycle type")
	f.IntVar(&c.customValue, "custom-value", 0, "Custom cycle length")
	f.StringVar(&c.customUnit, "custom-unit", string(core.UnitMonth), "Custom cycle unit")
	f.StringVar(&c.importance, "importance", string(core.ImportanceMedium), "Importance")
	f.StringVar(&c.description, "description", "", "Description")
	f.BoolVar(&c.accumulating, "accumulating", false, "Unused amount carries over")
}

func (c *budgetAddCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	amount, err := core.ParseMoney(c.amount)
	if err != nil {
		return c.app.usage("invalid -amount %q: %v", c.amount, err)
	}
	b := core.Budget{
		Name:           c.name,
		Description:    c.description,
		Amount:         amount,
		Cycle:          core.BudgetCycle{Type: core.CycleType(c.cycle)},
		Importance:     core.Importance(c.importance),
		IsAccumulating: c.accumulating,
	}
	if b.Cycle.Type == core.CycleCustom {
		b.Cycle.CustomValue = c.customValue
		b.Cycle.CustomUnit = core.CycleUnit(c.customUnit)
	}

	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	created, err := svc.Budgets.Create(ctx, b)
	if err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Added budget %s (%s)\n", created.Name, created.ID)
	return subcommands.ExitSuccess
}

// budgetEditCmd reuses budget-add's flags.
type budgetEditCmd struct {
	budgetAddCmd
	id string
}

func (*budgetEditCmd) Name() string     { return "budget-edit" }
func (*budgetEditCmd) Synopsis() string { return "change a budget" }
func (*budgetEditCmd) Usage() string {
	return `budget-edit -id <budget id> [-name <name>] [-amount <amount>]
            [-cycle monthly|bi-monthly|yearly|custom] [-custom-value <n> -custom-unit month|year]
            [-importance high|medium|low] [-description <text>] [-accumulating=true|false]

  Changes only the given fields.
`
}

func (c *budgetEditCmd) SetFlags(f *flag.FlagSet) {
	idFlag(f, &c.id, "Budget")
	c.budgetAddCmd.SetFlags(f)
}

func (c *budgetEditCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return c.app.usage("-id is required")
	}
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	b, err := svc.Budgets.Get(ctx, c.id)
	if err != nil {
		return c.app.fail(err)
	}

	set := visited(f)
	if set["name"] {
		b.Name = c.name
	}
	if set["amount"] {
		amount, err := core.ParseMoney(c.amount)
		if err != nil {
			return c.app.usage("invalid -amount %q: %v", c.amount, err)
		}
		b.Amount = amount
	}
	if set["cycle"] {
		b.Cycle.Type = core.CycleType(c.cycle)
	}
	if set["custom-value"] {
		b.Cycle.CustomValue = c.customValue
	}
	if set["custom-unit"] {
		b.Cycle.CustomUnit = core.CycleUnit(c.customUnit)
	}
	switch {
	case b.Cycle.Type != core.CycleCustom:
		b.Cycle.CustomValue, b.Cycle.CustomUnit = 0, ""
	case b.Cycle.CustomUnit == "":
		b.Cycle.CustomUnit = core.CycleUnit(c.customUnit)
	}
	if set["importance"] {
		b.Importance = core.Importance(c.importance)
	}
	if set["description"] {
		b.Description = c.description
	}
	if set["accumulating"] {
		b.IsAccumulating = c.accumulating
	}

	if err := svc.Budgets.Update(ctx, b); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Updated budget %s\n", b.ID)
	return subcommands.ExitSuccess
}

type budgetDeleteCmd struct {
	app *App
	id  string
}

func (*budgetDeleteCmd) Name() string               { return "budget-delete" }
func (*budgetDeleteCmd) Synopsis() string           { return "delete a budget" }
func (*budgetDeleteCmd) Usage() string              { return "budget-delete -id <budget id>\n" }
func (c *budgetDeleteCmd) SetFlags(f *flag.FlagSet) { idFlag(f, &c.id, "Budget") }

func (c *budgetDeleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id == "" {
		return c.app.usage("-id is required")
	}
	svc, err := c.app.Services(ctx)
	if err != nil {
		return c.app.fail(err)
	}
	if err := svc.Budgets.Delete(ctx, c.id); err != nil {
		return c.app.fail(err)
	}
	c.app.printf("Deleted budget %s\n", c.id)
	return subcommands.ExitSuccess
}
