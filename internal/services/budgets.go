package services

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/repository"
)

type BudgetService struct {
	*base
}

func (s *BudgetService) List(ctx context.Context) ([]core.Budget, error) {
	return s.repos.Budgets.List(ctx)
}

func (s *BudgetService) Get(ctx context.Context, id string) (core.Budget, error) {
	return s.repos.Budgets.Get(ctx, id)
}

func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return b, err
	}
	created, err := s.repos.Budgets.Create(ctx, b)
	if err != nil {
		return created, err
	}
	s.changed(ctx, repository.CollectionBudgets, log.OpCreate, created.ID)
	return created, nil
}

func (s *BudgetService) Update(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.repos.Budgets.Update(ctx, b); err != nil {
		return err
	}
	s.changed(ctx, repository.CollectionBudgets, log.OpUpdate, b.ID)
	return nil
}

func (s *BudgetService) Delete(ctx context.Context, id string) error {
	if err := s.repos.Budgets.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, repository.CollectionBudgets, log.OpDelete, id)
	return nil
}
