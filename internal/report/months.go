package report

import (
	"sort"
	"time"

	"fintrack/internal/core"
)

// MonthGroup holds one month's transactions, newest first.
type MonthGroup struct {
	Year         int
	Month        time.Month
	Transactions []core.Transaction
	TotalIncome  core.Money
	TotalExpense core.Money
}

// Net is income minus expenses.
func (g MonthGroup) Net() core.Money {
	return core.Money{Cents: g.TotalIncome.Cents - g.TotalExpense.Cents}
}

// GroupByMonth partitions the transactions dated in year by month.
//
// For the current year it lists January through the current month, plus any
// later month that already holds transactions. Past years list all twelve
// months; future years list only months with data. Groups come newest month
// first and may be empty.
func GroupByMonth(txs []core.Transaction, year int, now time.Time) []MonthGroup {
	byMonth := make(map[time.Month][]core.Transaction)
	for _, tx := range txs {
		d := tx.Date()
		if d.IsEmpty() || d.Year() != year {
			continue
		}
		m := d.Time.Month()
		byMonth[m] = append(byMonth[m], tx)
	}

	var last time.Month
	switch {
	case year < now.Year():
		last = time.December
	case year == now.Year():
		last = now.Month()
	}

	groups := make([]MonthGroup, 0, 12)
	for m := time.December; m >= time.January; m-- {
		items, hasData := byMonth[m]
		if m > last && !hasData {
			continue
		}
		groups = append(groups, newMonthGroup(year, m, items))
	}
	return groups
}

func newMonthGroup(year int, month time.Month, items []core.Transaction) MonthGroup {
	g := MonthGroup{Year: year, Month: month, Transactions: append([]core.Transaction(nil), items...)}
	sort.SliceStable(g.Transactions, func(i, j int) bool {
		return g.Transactions[i].Date().After(g.Transactions[j].Date().Time)
	})
	for _, tx := range g.Transactions {
		switch tx.Kind {
		case core.KindIncome:
			g.TotalIncome = g.TotalIncome.Add(tx.Amount())
		case core.KindExpense:
			g.TotalExpense = g.TotalExpense.Add(tx.Amount())
		}
	}
	return g
}

// Totals sums a set of month groups.
type Totals struct {
	Income  core.Money
	Expense core.Money
}

func (t Totals) Net() core.Money {
	return core.Money{Cents: t.Income.Cents - t.Expense.Cents}
}

// YearTotals sums income and expenses across groups.
func YearTotals(groups []MonthGroup) Totals {
	var t Totals
	for _, g := range groups {
		t.Income = t.Income.Add(g.TotalIncome)
		t.Expense = t.Expense.Add(g.TotalExpense)
	}
	return t
}

// Years returns the distinct years holding transactions plus now's year, newest first.
func Years(txs []core.Transaction, now time.Time) []int {
	seen := map[int]bool{now.Year(): true}
	for _, tx := range txs {
		if d := tx.Date(); !d.IsEmpty() {
			seen[d.Year()] = true
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
