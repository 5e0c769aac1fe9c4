// Package rules holds the referential-integrity checks between accounts and
// credit cards, and the lazy card-expiry correction. Every function is pure:
// callers load the collections, apply a rule and persist the result.
package rules

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// CanCloseAccount refuses to close an account still charged by an active card.
func CanCloseAccount(accountID string, cards []core.CreditCard) error {
	if n := countCards(accountID, cards, true); n > 0 {
		return core.NewIntegrityError(core.RuleActiveCardsOnClose,
			fmt.Sprintf("account %s is charged by %d active credit card(s); cancel them first", accountID, n))
	}
	return nil
}

// CanDeleteAccount refuses to delete an account referenced by any card.
func CanDeleteAccount(accountID string, cards []core.CreditCard) error {
	if n := countCards(accountID, cards, false); n > 0 {
		return core.NewIntegrityError(core.RuleCardsExistOnDelete,
			fmt.Sprintf("account %s is referenced by %d credit card(s); delete them first", accountID, n))
	}
	return nil
}

// CanReactivateCard checks expiry first, then the charge account's status.
// A nil account means the charge account no longer exists.
func CanReactivateCard(card core.CreditCard, account *core.Account, now time.Time) error {
	if IsExpired(card.Expiry, now) {
		return core.NewIntegrityError(core.RuleExpiredOnReactivate,
			fmt.Sprintf("credit card %s expired in %s", card.ID, card.Expiry))
	}
	if account == nil {
		return core.NewIntegrityError(core.RuleMissingReference,
			fmt.Sprintf("charge account %s of credit card %s does not exist", card.ChargeAccountID, card.ID))
	}
	if !account.IsActive() {
		return core.NewIntegrityError(core.RuleInactiveAccount,
			fmt.Sprintf("charge account %s is inactive; reactivate it first", account.ID))
	}
	return nil
}

// IsExpired reports whether expiry lies in a month before now's month.
// A card expiring this month is still valid.
func IsExpired(expiry *core.Expiry, now time.Time) bool {
	return expiry != nil && expiry.ExpiredAt(now)
}

// ExpireCards marks active, expired cards inactive with reason "expired".
// It returns a new slice and the ids it changed; cards already inactive keep
// their recorded reason. Applying it twice changes nothing the second time.
func ExpireCards(cards []core.CreditCard, now time.Time) ([]core.CreditCard, []string) {
	out := make([]core.CreditCard, len(cards))
	var changed []string
	for i, c := range cards {
		if c.IsActive() && IsExpired(c.Expiry, now) {
			c.Status = core.StatusInactive
			c.CancellationReason = core.ReasonExpired
			changed = append(changed, c.ID)
		}
		out[i] = c
	}
	return out, changed
}

func countCards(accountID string, cards []core.CreditCard, activeOnly bool) int {
	n := 0
	for _, c := range cards {
		if c.ChargeAccountID != accountID {
			continue
		}
		if activeOnly && !c.IsActive() {
			continue
		}
		n++
	}
	return n
}
