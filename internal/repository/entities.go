package repository

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/kv"
)

type (
	Accounts    = Repository[core.Account]
	CreditCards = Repository[core.CreditCard]
	Budgets     = Repository[core.Budget]
	Expenses    = Repository[core.Expense]
	Incomes     = Repository[core.Income]
)

func NewAccounts(store kv.Store) *Accounts {
	return newRepository(store, CollectionAccounts, "account", func(a *core.Account) *string { return &a.ID })
}

func NewCreditCards(store kv.Store) *CreditCards {
	return newRepository(store, CollectionCreditCards, "card", func(c *core.CreditCard) *string { return &c.ID })
}

func NewBudgets(store kv.Store) *Budgets {
	return newRepository(store, CollectionBudgets, "budget", func(b *core.Budget) *string { return &b.ID })
}

func NewExpenses(store kv.Store) *Expenses {
	return newRepository(store, CollectionExpenses, "exp", func(e *core.Expense) *string { return &e.ID })
}

func NewIncomes(store kv.Store) *Incomes {
	return newRepository(store, CollectionIncomes, "inc", func(i *core.Income) *string { return &i.ID })
}

// Profiles reads and writes the single profile document of a user.
type Profiles struct {
	store kv.Store
}

func NewProfiles(store kv.Store) *Profiles {
	return &Profiles{store: store}
}

// Get returns the stored profile; found is false when none was saved yet.
func (p *Profiles) Get(ctx context.Context) (profile core.Profile, found bool, err error) {
	found, err = kv.GetJSON(ctx, p.store, KeyProfile, &profile)
	if err != nil {
		return core.Profile{}, false, fmt.Errorf("load %s: %w", KeyProfile, err)
	}
	return profile, found, nil
}

func (p *Profiles) Save(ctx context.Context, profile core.Profile) error {
	if err := kv.SetJSON(ctx, p.store, KeyProfile, profile); err != nil {
		return fmt.Errorf("save %s: %w", KeyProfile, err)
	}
	return nil
}

// Set bundles the repositories of one namespace.
type Set struct {
	Accounts    *Accounts
	CreditCards *CreditCards
	Budgets     *Budgets
	Expenses    *Expenses
	Incomes     *Incomes
	Profiles    *Profiles
}

// NewSet builds every repository over store, normally a kv.Namespaced store.
func NewSet(store kv.Store) *Set {
	return &Set{
		Accounts:    NewAccounts(store),
		CreditCards: NewCreditCards(store),
		Budgets:     NewBudgets(store),
		Expenses:    NewExpenses(store),
		Incomes:     NewIncomes(store),
		Profiles:    NewProfiles(store),
	}
}
