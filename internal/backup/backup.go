// Package backup exports one user's collections to a single JSON document
// and imports such a document back, replacing every collection.
package backup

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"fintrack/internal/core"
	"fintrack/internal/repository"
)

// Version is the snapshot format written by Export.
const Version = 1

//go:embed schema.json
var schemaJSON string

var schema = mustSchema()

func mustSchema() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("backup: invalid embedded schema: %v", err))
	}
	return s
}

// Snapshot is the exported document.
type Snapshot struct {
	Version     int               `json:"version"`
	ExportedAt  time.Time         `json:"exportedAt"`
	UserID      string            `json:"userId"`
	Profile     *core.Profile     `json:"profile,omitempty"`
	Accounts    []core.Account    `json:"accounts"`
	CreditCards []core.CreditCard `json:"credit-cards"`
	Budgets     []core.Budget     `json:"budgets"`
	Expenses    []core.Expense    `json:"expenses"`
	Incomes     []core.Income     `json:"incomes"`
}

// Counts returns the number of entities per collection.
func (s Snapshot) Counts() map[string]int {
	return map[string]int{
		repository.CollectionAccounts:    len(s.Accounts),
		repository.CollectionCreditCards: len(s.CreditCards),
		repository.CollectionBudgets:     len(s.Budgets),
		repository.CollectionExpenses:    len(s.Expenses),
		repository.CollectionIncomes:     len(s.Incomes),
	}
}

// Export reads every collection of repos.
func Export(ctx context.Context, repos *repository.Set, userID string, now time.Time) (Snapshot, error) {
	snap := Snapshot{Version: Version, ExportedAt: now.UTC(), UserID: userID}
	var err error
	if snap.Accounts, err = repos.Accounts.List(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.CreditCards, err = repos.CreditCards.List(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Budgets, err = repos.Budgets.List(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Expenses, err = repos.Expenses.List(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Incomes, err = repos.Incomes.List(ctx); err != nil {
		return Snapshot{}, err
	}
	profile, found, err := repos.Profiles.Get(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if found {
		snap.Profile = &profile
	}
	return snap, nil
}

// Marshal renders the snapshot as indented JSON with empty collections as [].
func Marshal(snap Snapshot) ([]byte, error) {
	if snap.Accounts == nil {
		snap.Accounts = []core.Account{}
	}
	if snap.CreditCards == nil {
		snap.CreditCards = []core.CreditCard{}
	}
	if snap.Budgets == nil {
		snap.Budgets = []core.Budget{}
	}
	if snap.Expenses == nil {
		snap.Expenses = []core.Expense{}
	}
	if snap.Incomes == nil {
		snap.Incomes = []core.Income{}
	}
	return json.MarshalIndent(snap, "", "  ")
}

// Parse validates data against the backup schema and decodes it. Cards must
// reference accounts present in the same document.
func Parse(data []byte) (Snapshot, error) {
	res, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: backup is not valid JSON: %v", core.ErrValidation, err)
	}
	if !res.Valid() {
		details := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			details = append(details, e.String())
		}
		return Snapshot{}, fmt.Errorf("%w: backup does not match schema: %s", core.ErrValidation, strings.Join(details, "; "))
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decode backup: %v", core.ErrValidation, err)
	}

	accounts := make(map[string]bool, len(snap.Accounts))
	for _, a := range snap.Accounts {
		accounts[a.ID] = true
	}
	for _, c := range snap.CreditCards {
		if !accounts[c.ChargeAccountID] {
			return Snapshot{}, core.NewIntegrityError(core.RuleMissingReference,
				fmt.Sprintf("credit card %s references unknown account %s", c.ID, c.ChargeAccountID))
		}
	}
	return snap, nil
}

// Import parses data and replaces every collection of repos with its content.
func Import(ctx context.Context, repos *repository.Set, data []byte) (Snapshot, error) {
	snap, err := Parse(data)
	if err != nil {
		return Snapshot{}, err
	}
	if err := repos.Accounts.SaveAll(ctx, snap.Accounts); err != nil {
		return Snapshot{}, err
	}
	if err := repos.CreditCards.SaveAll(ctx, snap.CreditCards); err != nil {
		return Snapshot{}, err
	}
	if err := repos.Budgets.SaveAll(ctx, snap.Budgets); err != nil {
		return Snapshot{}, err
	}
	if err := repos.Expenses.SaveAll(ctx, snap.Expenses); err != nil {
		return Snapshot{}, err
	}
	if err := repos.Incomes.SaveAll(ctx, snap.Incomes); err != nil {
		return Snapshot{}, err
	}
	if snap.Profile != nil {
		if err := repos.Profiles.Save(ctx, *snap.Profile); err != nil {
			return Snapshot{}, err
		}
	}
	return snap, nil
}
