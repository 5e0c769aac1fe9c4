package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/repository"
	"fintrack/internal/rules"
)

type CreditCardService struct {
	*base
}

// List returns every card after marking expired ones inactive. Corrections
// are persisted before List returns.
func (s *CreditCardService) List(ctx context.Context) ([]core.CreditCard, error) {
	cards, _, err := s.expire(ctx)
	return cards, err
}

// ExpireNow runs expiry maintenance and returns how many cards it changed.
func (s *CreditCardService) ExpireNow(ctx context.Context) (int, error) {
	_, n, err := s.expire(ctx)
	return n, err
}

func (s *CreditCardService) expire(ctx context.Context) ([]core.CreditCard, int, error) {
	cards, err := s.repos.CreditCards.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	cards, changed := rules.ExpireCards(cards, s.now())
	if len(changed) == 0 {
		return cards, 0, nil
	}
	if err := s.repos.CreditCards.SaveAll(ctx, cards); err != nil {
		return nil, 0, fmt.Errorf("persist expired cards: %w", err)
	}
	for _, id := range changed {
		s.changed(ctx, repository.CollectionCreditCards, log.OpExpire, id)
	}
	return cards, len(changed), nil
}

func (s *CreditCardService) Get(ctx context.Context, id string) (core.CreditCard, error) {
	cards, err := s.List(ctx)
	if err != nil {
		return core.CreditCard{}, err
	}
	for _, c := range cards {
		if c.ID == id {
			return c, nil
		}
	}
	return core.CreditCard{}, core.NewNotFoundError(repository.CollectionCreditCards, id)
}

// ListByAccount returns the cards charged to accountID.
func (s *CreditCardService) ListByAccount(ctx context.Context, accountID string) ([]core.CreditCard, error) {
	cards, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.CreditCard
	for _, c := range cards {
		if c.ChargeAccountID == accountID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *CreditCardService) HasActiveCards(ctx context.Context, accountID string) (bool, error) {
	cards, err := s.ListByAccount(ctx, accountID)
	if err != nil {
		return false, err
	}
	for _, c := range cards {
		if c.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (s *CreditCardService) HasAnyCards(ctx context.Context, accountID string) (bool, error) {
	cards, err := s.ListByAccount(ctx, accountID)
	if err != nil {
		return false, err
	}
	return len(cards) > 0, nil
}

// Create stores a new active card charged to an existing account.
func (s *CreditCardService) Create(ctx context.Context, c core.CreditCard) (core.CreditCard, error) {
	if err := c.Validate(); err != nil {
		return c, err
	}
	if err := s.requireAccount(ctx, log.OpCreate, c.ChargeAccountID); err != nil {
		return c, err
	}
	c.Status = core.StatusActive
	c.CancellationReason = ""
	c.CancellationNote = ""

	created, err := s.repos.CreditCards.Create(ctx, c)
	if err != nil {
		return created, err
	}
	s.changed(ctx, repository.CollectionCreditCards, log.OpCreate, created.ID)
	return created, nil
}

// Update replaces the card's details. Status, cancellation reason and note
// are kept from the stored card; they change only through Cancel,
// Reactivate and expiry maintenance.
func (s *CreditCardService) Update(ctx context.Context, c core.CreditCard) error {
	if err := c.Validate(); err != nil {
		return err
	}
	stored, err := s.Get(ctx, c.ID)
	if err != nil {
		return err
	}
	if err := s.requireAccount(ctx, log.OpUpdate, c.ChargeAccountID); err != nil {
		return err
	}
	c.Status = stored.Status
	c.CancellationReason = stored.CancellationReason
	c.CancellationNote = stored.CancellationNote
	if err := s.repos.CreditCards.Update(ctx, c); err != nil {
		return err
	}
	s.changed(ctx, repository.CollectionCreditCards, log.OpUpdate, c.ID)
	return nil
}

// Cancel marks the card inactive and records why.
func (s *CreditCardService) Cancel(ctx context.Context, id string, reason core.CancellationReason, note string) error {
	if !reason.IsValid() {
		return fmt.Errorf("%w: invalid cancellation reason %q", core.ErrValidation, reason)
	}
	card, err := s.repos.CreditCards.Get(ctx, id)
	if err != nil {
		return err
	}
	card.Status = core.StatusInactive
	card.CancellationReason = reason
	card.CancellationNote = note
	if err := s.repos.CreditCards.Update(ctx, card); err != nil {
		return err
	}
	s.changed(ctx, repository.CollectionCreditCards, log.OpCancel, id)
	return nil
}

// Reactivate makes the card active again unless it has expired or its
// charge account is inactive. The cancellation reason and note are cleared.
func (s *CreditCardService) Reactivate(ctx context.Context, id string) error {
	card, err := s.repos.CreditCards.Get(ctx, id)
	if err != nil {
		return err
	}

	var account *core.Account
	a, err := s.repos.Accounts.Get(ctx, card.ChargeAccountID)
	found, err := exists(err)
	if err != nil {
		return err
	}
	if found {
		account = &a
	}

	if err := rules.CanReactivateCard(card, account, s.now()); err != nil {
		return s.refused(ctx, log.OpReactivate, err)
	}

	card.Status = core.StatusActive
	card.CancellationReason = ""
	card.CancellationNote = ""
	if err := s.repos.CreditCards.Update(ctx, card); err != nil {
		return err
	}
	s.changed(ctx, repository.CollectionCreditCards, log.OpReactivate, id)
	return nil
}

func (s *CreditCardService) Delete(ctx context.Context, id string) error {
	if err := s.repos.CreditCards.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, repository.CollectionCreditCards, log.OpDelete, id)
	return nil
}

func (s *CreditCardService) requireAccount(ctx context.Context, op, accountID string) error {
	_, err := s.repos.Accounts.Get(ctx, accountID)
	found, err := exists(err)
	if err != nil {
		return err
	}
	if !found {
		return s.refused(ctx, op, core.NewIntegrityError(core.RuleMissingReference,
			fmt.Sprintf("charge account %s does not exist", accountID)))
	}
	return nil
}
