package backup

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/kv"
	"fintrack/internal/kv/memory"
	"fintrack/internal/repository"
)

func seed(t *testing.T, repos *repository.Set) {
	t.Helper()
	ctx := context.Background()
	if err := repos.Accounts.SaveAll(ctx, []core.Account{{ID: "account-1", Name: "Checking", Status: core.StatusActive}}); err != nil {
		t.Fatal(err)
	}
	if err := repos.CreditCards.SaveAll(ctx, []core.CreditCard{{
		ID: "card-1", DisplayName: "Visa", MonthlyChargeDay: 10, ChargeAccountID: "account-1",
		Status: core.StatusActive, Expiry: &core.Expiry{Month: 4, Year: 2027},
	}}); err != nil {
		t.Fatal(err)
	}
	if err := repos.Budgets.SaveAll(ctx, []core.Budget{{
		ID: "budget-1", Name: "Food", Amount: core.Money{Cents: 150000},
		Cycle: core.BudgetCycle{Type: core.CycleMonthly}, Importance: core.ImportanceHigh,
	}}); err != nil {
		t.Fatal(err)
	}
	if err := repos.Expenses.SaveAll(ctx, []core.Expense{{
		ID: "exp-1", Amount: core.Money{Cents: 4550}, Description: "Groceries",
		ExecutionDate: core.NewDate(2024, 3, 2), BudgetID: "budget-1",
		PaymentMethod: core.TargetCard, CreditCardID: "card-1",
	}}); err != nil {
		t.Fatal(err)
	}
	if err := repos.Profiles.Save(ctx, core.Profile{ID: "user-1", FirstName: "Dana"}); err != nil {
		t.Fatal(err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	src := repository.NewSet(kv.Namespace(store, "user-1"))
	seed(t, src)

	snap, err := Export(ctx, src, "user-1", time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	data, err := Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"incomes": []`) {
		t.Errorf("empty collection not rendered as []: %s", data)
	}

	dst := repository.NewSet(kv.Namespace(store, "user-2"))
	imported, err := Import(ctx, dst, data)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	counts := imported.Counts()
	if counts[repository.CollectionAccounts] != 1 || counts[repository.CollectionExpenses] != 1 || counts[repository.CollectionIncomes] != 0 {
		t.Errorf("Counts() = %v", counts)
	}

	exp, err := dst.Expenses.Get(ctx, "exp-1")
	if err != nil {
		t.Fatal(err)
	}
	if exp.Amount.Cents != 4550 || !exp.ExecutionDate.SameDay(core.NewDate(2024, 3, 2)) {
		t.Errorf("imported expense = %+v", exp)
	}
	p, found, _ := dst.Profiles.Get(ctx)
	if !found || p.FirstName != "Dana" {
		t.Errorf("imported profile = %+v", p)
	}
}

func TestImportReplacesCollections(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewSet(kv.Namespace(memory.New(), "user-1"))
	seed(t, repos)

	data := []byte(`{"version":1,"accounts":[],"credit-cards":[],"budgets":[],"expenses":[],"incomes":[]}`)
	if _, err := Import(ctx, repos, data); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	accounts, _ := repos.Accounts.List(ctx)
	expenses, _ := repos.Expenses.List(ctx)
	if len(accounts) != 0 || len(expenses) != 0 {
		t.Errorf("collections not replaced: %d accounts, %d expenses", len(accounts), len(expenses))
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"not json", `{`, core.ErrValidation},
		{"wrong version", `{"version":2,"accounts":[],"credit-cards":[],"budgets":[],"expenses":[],"incomes":[]}`, core.ErrValidation},
		{"missing collection", `{"version":1,"accounts":[]}`, core.ErrValidation},
		{"negative amount", `{"version":1,"accounts":[],"credit-cards":[],"budgets":[],"incomes":[],
			"expenses":[{"id":"exp-1","amount":-5,"executionDate":"2024-01-01","budgetId":"b","paymentMethod":"card"}]}`, core.ErrValidation},
		{"bad charge day", `{"version":1,"accounts":[{"id":"a","name":"A"}],"budgets":[],"expenses":[],"incomes":[],
			"credit-cards":[{"id":"c","displayName":"V","monthlyChargeDate":32,"chargeAccountId":"a"}]}`, core.ErrValidation},
		{"dangling card", `{"version":1,"accounts":[],"budgets":[],"expenses":[],"incomes":[],
			"credit-cards":[{"id":"c","displayName":"V","monthlyChargeDate":3,"chargeAccountId":"a"}]}`, core.ErrIntegrityViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}
}
