package core

import "strings"

type (
	CycleType  string
	CycleUnit  string
	Importance string
)

const (
	CycleMonthly   CycleType = "monthly"
	CycleBiMonthly CycleType = "bi-monthly"
	CycleYearly    CycleType = "yearly"
	CycleCustom    CycleType = "custom"

	UnitMonth CycleUnit = "month"
	UnitYear  CycleUnit = "year"

	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

type (
	// BudgetCycle is the spending period a budget target applies to.
	BudgetCycle struct {
		Type        CycleType `json:"type"`
		CustomValue int       `json:"customValue,omitempty"`
		CustomUnit  CycleUnit `json:"customUnit,omitempty"`
	}

	Budget struct {
		ID             string      `json:"id"`
		Name           string      `json:"name"`
		Description    string      `json:"description,omitempty"`
		Cycle          BudgetCycle `json:"cycle"`
		Amount         Money       `json:"amount"`
		IsAccumulating bool        `json:"isAccumulating"`
		Importance     Importance  `json:"importance"`
	}
)

// Months returns the cycle length in months.
func (c BudgetCycle) Months() int {
	switch c.Type {
	case CycleMonthly:
		return 1
	case CycleBiMonthly:
		return 2
	case CycleYearly:
		return 12
	case CycleCustom:
		if c.CustomUnit == UnitYear {
			return c.CustomValue * 12
		}
		return c.CustomValue
	}
	return 0
}

func (c BudgetCycle) Validate() error {
	switch c.Type {
	case CycleMonthly, CycleBiMonthly, CycleYearly:
		return nil
	case CycleCustom:
		if c.CustomValue < 1 {
			return invalid("custom cycle value must be at least 1")
		}
		if c.CustomUnit != UnitMonth && c.CustomUnit != UnitYear {
			return invalid("invalid custom cycle unit %q", c.CustomUnit)
		}
		return nil
	}
	return invalid("invalid cycle type %q", c.Type)
}

func (i Importance) IsValid() bool {
	switch i {
	case ImportanceHigh, ImportanceMedium, ImportanceLow:
		return true
	}
	return false
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return invalid("budget name is required")
	}
	if len(b.Description) > 200 {
		return invalid("description too long (max 200 characters)")
	}
	if err := b.Cycle.Validate(); err != nil {
		return err
	}
	if err := b.Amount.Validate(); err != nil {
		return invalid("budget amount: %v", err)
	}
	if !b.Importance.IsValid() {
		return invalid("invalid importance %q", b.Importance)
	}
	return nil
}
