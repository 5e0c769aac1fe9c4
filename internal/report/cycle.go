// Package report derives read-only views from transactions and budgets.
//
// This file implements the strategy pattern for budget cycle windows. Each
// cycle type has its own strategy that decides which calendar period the
// budget is currently measured against.
package report

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// Period is a half-open [Start, End) range of whole days.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d core.Date) bool {
	return !d.Before(p.Start) && d.Before(p.End)
}

func (p Period) String() string {
	return fmt.Sprintf("%s..%s", p.Start.Format("2006-01-02"), p.End.AddDate(0, 0, -1).Format("2006-01-02"))
}

// CycleWindow is the strategy interface for budget cycles.
type CycleWindow interface {
	// Window returns the period containing now for the given cycle.
	Window(cycle core.BudgetCycle, now time.Time) Period
}

// MonthlyWindow is the calendar month of now.
type MonthlyWindow struct{}

func (MonthlyWindow) Window(_ core.BudgetCycle, now time.Time) Period {
	return alignedMonths(now, 1)
}

// BiMonthlyWindow covers Jan-Feb, Mar-Apr and so on.
type BiMonthlyWindow struct{}

func (BiMonthlyWindow) Window(_ core.BudgetCycle, now time.Time) Period {
	return alignedMonths(now, 2)
}

// YearlyWindow is the calendar year of now.
type YearlyWindow struct{}

func (YearlyWindow) Window(_ core.BudgetCycle, now time.Time) Period {
	return alignedMonths(now, 12)
}

// CustomWindow is a rolling window of the cycle's length ending with the
// current month.
type CustomWindow struct{}

func (CustomWindow) Window(cycle core.BudgetCycle, now time.Time) Period {
	n := cycle.Months()
	if n < 1 {
		n = 1
	}
	end := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: end.AddDate(0, -n, 0), End: end}
}

// alignedMonths returns the block of n months, counted from January, holding now.
func alignedMonths(now time.Time, n int) Period {
	m0 := (int(now.Month()) - 1) / n * n
	start := time.Date(now.Year(), time.Month(m0+1), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, n, 0)}
}

var cycleWindows = map[core.CycleType]CycleWindow{
	core.CycleMonthly:   MonthlyWindow{},
	core.CycleBiMonthly: BiMonthlyWindow{},
	core.CycleYearly:    YearlyWindow{},
	core.CycleCustom:    CustomWindow{},
}

// GetCycleWindow returns the strategy for a cycle type.
func GetCycleWindow(t core.CycleType) (CycleWindow, error) {
	w, ok := cycleWindows[t]
	if !ok {
		return nil, fmt.Errorf("unknown cycle type: %s", t)
	}
	return w, nil
}
