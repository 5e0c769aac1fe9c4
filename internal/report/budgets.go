package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// BudgetUsage is a budget's spending within its current cycle.
type BudgetUsage struct {
	Budget    core.Budget
	Window    Period
	Spent     core.Money
	Remaining core.Money
	Percent   decimal.Decimal
}

// Over reports whether spending exceeded the budget.
func (u BudgetUsage) Over() bool { return u.Spent.Cents > u.Budget.Amount.Cents }

// ComputeBudgetUsage measures each budget against the expenses linked to it.
// Budgets with an unknown cycle type are measured per calendar month.
func ComputeBudgetUsage(budgets []core.Budget, expenses []core.Expense, now time.Time) []BudgetUsage {
	out := make([]BudgetUsage, 0, len(budgets))
	for _, b := range budgets {
		strategy, err := GetCycleWindow(b.Cycle.Type)
		if err != nil {
			strategy = MonthlyWindow{}
		}
		u := BudgetUsage{Budget: b, Window: strategy.Window(b.Cycle, now)}
		for _, e := range expenses {
			if e.BudgetID == b.ID && u.Window.Contains(e.ExecutionDate) {
				u.Spent = u.Spent.Add(e.Amount)
			}
		}
		u.Remaining = core.Money{Cents: b.Amount.Cents - u.Spent.Cents}
		u.Percent = percent(u.Spent, b.Amount)
		out = append(out, u)
	}
	return out
}

// BudgetSeries is one chart bar: spending per budget within a month.
type BudgetSeries struct {
	BudgetID string
	Name     string
	Total    core.Money
}

// UnassignedName labels expenses whose budget no longer exists.
const UnassignedName = "Unassigned"

// ExpensesByBudget totals the month's expenses per budget, largest first.
func ExpensesByBudget(expenses []core.Expense, budgets []core.Budget, year int, month time.Month) []BudgetSeries {
	names := make(map[string]string, len(budgets))
	for _, b := range budgets {
		names[b.ID] = b.Name
	}

	totals := make(map[string]core.Money)
	var order []string
	for _, e := range expenses {
		d := e.ExecutionDate
		if d.Year() != year || d.Time.Month() != month {
			continue
		}
		key := e.BudgetID
		if _, ok := names[key]; !ok {
			key = ""
		}
		if _, seen := totals[key]; !seen {
			order = append(order, key)
		}
		totals[key] = totals[key].Add(e.Amount)
	}

	series := make([]BudgetSeries, 0, len(order))
	for _, id := range order {
		name := names[id]
		if id == "" {
			name = UnassignedName
		}
		series = append(series, BudgetSeries{BudgetID: id, Name: name, Total: totals[id]})
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Total.Cents > series[j].Total.Cents
	})
	return series
}
