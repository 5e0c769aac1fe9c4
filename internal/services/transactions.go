package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/repository"
)

// TransactionService manages expenses and incomes.
type TransactionService struct {
	*base
}

func (s *TransactionService) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return s.repos.Expenses.List(ctx)
}

func (s *TransactionService) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	return s.repos.Expenses.Get(ctx, id)
}

// CreateExpense stores an expense whose budget and payment source exist.
func (s *TransactionService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := s.checkExpense(ctx, log.OpCreate, e); err != nil {
		return e, err
	}
	created, err := s.repos.Expenses.Create(ctx, e)
	if err != nil {
		return created, err
	}
	s.changed(ctx, repository.CollectionExpenses, log.OpCreate, created.ID)
	return created, nil
}

func (s *TransactionService) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := s.checkExpense(ctx, log.OpUpdate, e); err != nil {
		return err
	}
	if err := s.repos.Expenses.Update(ctx, e); err != nil {
		return err
	}
	s.changed(ctx, repository.CollectionExpenses, log.OpUpdate, e.ID)
	return nil
}

func (s *TransactionService) DeleteExpense(ctx context.Context, id string) error {
	if err := s.repos.Expenses.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, repository.CollectionExpenses, log.OpDelete, id)
	return nil
}

func (s *TransactionService) ListIncomes(ctx context.Context) ([]core.Income, error) {
	return s.repos.Incomes.List(ctx)
}

func (s *TransactionService) GetIncome(ctx context.Context, id string) (core.Income, error) {
	return s.repos.Incomes.Get(ctx, id)
}

// CreateIncome stores an income whose receiving account or card exists.
func (s *TransactionService) CreateIncome(ctx context.Context, i core.Income) (core.Income, error) {
	if err := s.checkIncome(ctx, log.OpCreate, i); err != nil {
		return i, err
	}
	created, err := s.repos.Incomes.Create(ctx, i)
	if err != nil {
		return created, err
	}
	s.changed(ctx, repository.CollectionIncomes, log.OpCreate, created.ID)
	return created, nil
}

func (s *TransactionService) UpdateIncome(ctx context.Context, i core.Income) error {
	if err := s.checkIncome(ctx, log.OpUpdate, i); err != nil {
		return err
	}
	if err := s.repos.Incomes.Update(ctx, i); err != nil {
		return err
	}
	s.changed(ctx, repository.CollectionIncomes, log.OpUpdate, i.ID)
	return nil
}

func (s *TransactionService) DeleteIncome(ctx context.Context, id string) error {
	if err := s.repos.Incomes.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, repository.CollectionIncomes, log.OpDelete, id)
	return nil
}

// Delete removes an expense or income by id.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	err := s.DeleteExpense(ctx, id)
	if !errors.Is(err, core.ErrNotFound) {
		return err
	}
	if err := s.DeleteIncome(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NewNotFoundError("transactions", id)
		}
		return err
	}
	return nil
}

// All returns expenses and incomes together, newest first.
func (s *TransactionService) All(ctx context.Context) ([]core.Transaction, error) {
	expenses, err := s.repos.Expenses.List(ctx)
	if err != nil {
		return nil, err
	}
	incomes, err := s.repos.Incomes.List(ctx)
	if err != nil {
		return nil, err
	}

	txs := make([]core.Transaction, 0, len(expenses)+len(incomes))
	for _, e := range expenses {
		txs = append(txs, core.ExpenseTransaction(e))
	}
	for _, i := range incomes {
		txs = append(txs, core.IncomeTransaction(i))
	}
	SortNewestFirst(txs)
	return txs, nil
}

// SortNewestFirst orders transactions by date descending, keeping input order for ties.
func SortNewestFirst(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date().After(txs[j].Date().Time)
	})
}

func (s *TransactionService) checkExpense(ctx context.Context, op string, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.requireRef(ctx, op, repository.CollectionBudgets, e.BudgetID, func() error {
		_, err := s.repos.Budgets.Get(ctx, e.BudgetID)
		return err
	}); err != nil {
		return err
	}
	if e.PaymentMethod == core.TargetCard {
		return s.requireRef(ctx, op, repository.CollectionCreditCards, e.CreditCardID, func() error {
			_, err := s.repos.CreditCards.Get(ctx, e.CreditCardID)
			return err
		})
	}
	return s.requireRef(ctx, op, repository.CollectionAccounts, e.PaymentAccountID, func() error {
		_, err := s.repos.Accounts.Get(ctx, e.PaymentAccountID)
		return err
	})
}

func (s *TransactionService) checkIncome(ctx context.Context, op string, i core.Income) error {
	if err := i.Validate(); err != nil {
		return err
	}
	if i.TargetType == core.TargetCard {
		return s.requireRef(ctx, op, repository.CollectionCreditCards, i.ReceivingCreditCardID, func() error {
			_, err := s.repos.CreditCards.Get(ctx, i.ReceivingCreditCardID)
			return err
		})
	}
	return s.requireRef(ctx, op, repository.CollectionAccounts, i.ReceivingAccountID, func() error {
		_, err := s.repos.Accounts.Get(ctx, i.ReceivingAccountID)
		return err
	})
}

func (s *TransactionService) requireRef(ctx context.Context, op, collection, id string, lookup func() error) error {
	found, err := exists(lookup())
	if err != nil {
		return err
	}
	if !found {
		return s.refused(ctx, op, core.NewIntegrityError(core.RuleMissingReference,
			fmt.Sprintf("%s %s does not exist", collection, id)))
	}
	return nil
}
