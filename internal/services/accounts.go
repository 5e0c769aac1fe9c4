package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/repository"
	"fintrack/internal/rules"
)

type AccountService struct {
	*base
	cards *CreditCardService
}

func (s *AccountService) List(ctx context.Context) ([]core.Account, error) {
	return s.repos.Accounts.List(ctx)
}

func (s *AccountService) Get(ctx context.Context, id string) (core.Account, error) {
	return s.repos.Accounts.Get(ctx, id)
}

// AccountTypes returns the catalog of banks and wallets.
func (s *AccountService) AccountTypes() []core.AccountType {
	return core.AccountTypes
}

// Create stores a new active account. The current user becomes its owner
// when none is given.
func (s *AccountService) Create(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return a, err
	}
	if len(a.OwnerIDs) == 0 {
		a.OwnerIDs = []string{s.userID}
	}
	a.Status = core.StatusActive

	created, err := s.repos.Accounts.Create(ctx, a)
	if err != nil {
		return created, err
	}
	s.changed(ctx, repository.CollectionAccounts, log.OpCreate, created.ID)
	return created, nil
}

// Update replaces the account's details. The stored status is kept; it
// changes only through Close and Reactivate.
func (s *AccountService) Update(ctx context.Context, a core.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	stored, err := s.repos.Accounts.Get(ctx, a.ID)
	if err != nil {
		return err
	}
	a.Status = stored.Status
	if len(a.OwnerIDs) == 0 {
		a.OwnerIDs = stored.OwnerIDs
	}
	if err := s.repos.Accounts.Update(ctx, a); err != nil {
		return err
	}
	s.changed(ctx, repository.CollectionAccounts, log.OpUpdate, a.ID)
	return nil
}

// Close marks the account inactive unless an active card still charges it.
func (s *AccountService) Close(ctx context.Context, id string) error {
	account, err := s.repos.Accounts.Get(ctx, id)
	if err != nil {
		return err
	}
	cards, err := s.cards.List(ctx)
	if err != nil {
		return fmt.Errorf("close account %s: %w", id, err)
	}
	if err := rules.CanCloseAccount(id, cards); err != nil {
		return s.refused(ctx, log.OpClose, err)
	}

	account.Status = core.StatusInactive
	if err := s.repos.Accounts.Update(ctx, account); err != nil {
		return err
	}
	s.changed(ctx, repository.CollectionAccounts, log.OpClose, id)
	return nil
}

func (s *AccountService) Reactivate(ctx context.Context, id string) error {
	account, err := s.repos.Accounts.Get(ctx, id)
	if err != nil {
		return err
	}
	account.Status = core.StatusActive
	if err := s.repos.Accounts.Update(ctx, account); err != nil {
		return err
	}
	s.changed(ctx, repository.CollectionAccounts, log.OpReactivate, id)
	return nil
}

// Delete removes the account unless any card, active or not, references it.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	if _, err := s.repos.Accounts.Get(ctx, id); err != nil {
		return err
	}
	cards, err := s.repos.CreditCards.List(ctx)
	if err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}
	if err := rules.CanDeleteAccount(id, cards); err != nil {
		return s.refused(ctx, log.OpDelete, err)
	}
	if err := s.repos.Accounts.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, repository.CollectionAccounts, log.OpDelete, id)
	return nil
}
