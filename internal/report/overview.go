package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// RecentCount is how many transactions the overview lists.
const RecentCount = 5

type Overview struct {
	MonthExpenses core.Money
	MonthIncome   core.Money
	// MonthlyBudget sums the amounts of budgets on a monthly cycle.
	MonthlyBudget core.Money
	// BudgetProgress is MonthExpenses as a percentage of MonthlyBudget, 0 without a budget.
	BudgetProgress decimal.Decimal
	Recent         []core.Transaction
}

// BuildOverview summarizes the current month.
func BuildOverview(txs []core.Transaction, budgets []core.Budget, now time.Time) Overview {
	var o Overview
	for _, tx := range txs {
		d := tx.Date()
		if d.Year() != now.Year() || d.Time.Month() != now.Month() {
			continue
		}
		switch tx.Kind {
		case core.KindExpense:
			o.MonthExpenses = o.MonthExpenses.Add(tx.Amount())
		case core.KindIncome:
			o.MonthIncome = o.MonthIncome.Add(tx.Amount())
		}
	}

	for _, b := range budgets {
		if b.Cycle.Type == core.CycleMonthly {
			o.MonthlyBudget = o.MonthlyBudget.Add(b.Amount)
		}
	}
	o.BudgetProgress = percent(o.MonthExpenses, o.MonthlyBudget)

	sorted := append([]core.Transaction(nil), txs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date().After(sorted[j].Date().Time)
	})
	if len(sorted) > RecentCount {
		sorted = sorted[:RecentCount]
	}
	o.Recent = sorted
	return o
}

func percent(part, whole core.Money) decimal.Decimal {
	if whole.Cents == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part.Cents).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(whole.Cents), 1)
}
