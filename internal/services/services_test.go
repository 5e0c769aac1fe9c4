package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/kv"
	"fintrack/internal/kv/memory"
	"fintrack/internal/repository"
)

var march2024 = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.ChangeEvent
	err    error
}

func (p *recordingPublisher) PublishChange(_ context.Context, ev amqp.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Collection + ":" + ev.Operation
	}
	return out
}

func newTestServices(t *testing.T, store kv.Store, opts ...Option) *Services {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return march2024 })}, opts...)
	return New(store, "user-1", opts...)
}

func mustAccount(t *testing.T, s *Services, name string) core.Account {
	t.Helper()
	a, err := s.Accounts.Create(context.Background(), core.Account{Name: name})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func mustCard(t *testing.T, s *Services, accountID string, expiry *core.Expiry) core.CreditCard {
	t.Helper()
	c, err := s.CreditCards.Create(context.Background(), core.CreditCard{
		DisplayName:      "Visa",
		MonthlyChargeDay: 10,
		ChargeAccountID:  accountID,
		Expiry:           expiry,
	})
	if err != nil {
		t.Fatalf("create card: %v", err)
	}
	return c
}

func ruleOf(err error) string {
	var ie *core.IntegrityError
	if errors.As(err, &ie) {
		return ie.Rule
	}
	return ""
}

func TestAccountCreateDefaults(t *testing.T) {
	s := newTestServices(t, memory.New())
	a := mustAccount(t, s, "Checking")

	if a.Status != core.StatusActive {
		t.Errorf("Status = %q, want active", a.Status)
	}
	if len(a.OwnerIDs) != 1 || a.OwnerIDs[0] != "user-1" {
		t.Errorf("OwnerIDs = %v", a.OwnerIDs)
	}

	if _, err := s.Accounts.Create(context.Background(), core.Account{Name: " "}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("blank name error = %v", err)
	}
}

func TestCloseAccountWithActiveCard(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t, memory.New())
	a := mustAccount(t, s, "Checking")
	c := mustCard(t, s, a.ID, &core.Expiry{Month: 12, Year: 2026})

	err := s.Accounts.Close(ctx, a.ID)
	if !errors.Is(err, core.ErrIntegrityViolation) || ruleOf(err) != core.RuleActiveCardsOnClose {
		t.Fatalf("Close() error = %v", err)
	}
	got, _ := s.Accounts.Get(ctx, a.ID)
	if got.Status != core.StatusActive {
		t.Fatalf("status changed to %q after refused close", got.Status)
	}

	if err := s.CreditCards.Cancel(ctx, c.ID, core.ReasonCancelled, ""); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if err := s.Accounts.Close(ctx, a.ID); err != nil {
		t.Fatalf("Close() after cancel error = %v", err)
	}
	got, _ = s.Accounts.Get(ctx, a.ID)
	if got.Status != core.StatusInactive {
		t.Fatalf("status = %q, want inactive", got.Status)
	}

	if err := s.Accounts.Reactivate(ctx, a.ID); err != nil {
		t.Fatalf("Reactivate() error = %v", err)
	}
	got, _ = s.Accounts.Get(ctx, a.ID)
	if got.Status != core.StatusActive {
		t.Fatalf("status = %q after reactivate", got.Status)
	}
}

func TestCloseAccountIgnoresExpiredCard(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := newTestServices(t, store)
	a := mustAccount(t, s, "Checking")
	c := mustCard(t, s, a.ID, &core.Expiry{Month: 1, Year: 2024})

	if err := s.Accounts.Close(ctx, a.ID); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	card, err := s.Repos.CreditCards.Get(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if card.Status != core.StatusInactive || card.CancellationReason != core.ReasonExpired {
		t.Errorf("stored card = %+v", card)
	}
}

func TestDeleteAccountWithAnyCard(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t, memory.New())
	a := mustAccount(t, s, "Checking")
	c := mustCard(t, s, a.ID, nil)
	if err := s.CreditCards.Cancel(ctx, c.ID, core.ReasonLostOrStolen, "stolen in Rome"); err != nil {
		t.Fatal(err)
	}

	err := s.Accounts.Delete(ctx, a.ID)
	if ruleOf(err) != core.RuleCardsExistOnDelete {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Accounts.Get(ctx, a.ID); err != nil {
		t.Fatalf("account removed despite refusal: %v", err)
	}

	if err := s.CreditCards.Delete(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.Accounts.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Accounts.Get(ctx, a.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Get() after delete error = %v", err)
	}
}

func TestMissingTargetsFail(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t, memory.New())

	tests := []struct {
		name string
		op   func() error
	}{
		{"close account", func() error { return s.Accounts.Close(ctx, "account-x") }},
		{"reactivate account", func() error { return s.Accounts.Reactivate(ctx, "account-x") }},
		{"delete account", func() error { return s.Accounts.Delete(ctx, "account-x") }},
		{"update account", func() error { return s.Accounts.Update(ctx, core.Account{ID: "account-x", Name: "n"}) }},
		{"get card", func() error { _, err := s.CreditCards.Get(ctx, "card-x"); return err }},
		{"cancel card", func() error { return s.CreditCards.Cancel(ctx, "card-x", core.ReasonOther, "") }},
		{"reactivate card", func() error { return s.CreditCards.Reactivate(ctx, "card-x") }},
		{"delete budget", func() error { return s.Budgets.Delete(ctx, "budget-x") }},
		{"delete transaction", func() error { return s.Transactions.Delete(ctx, "exp-x") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.op(); !errors.Is(err, core.ErrNotFound) {
				t.Errorf("error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestCardRequiresExistingAccount(t *testing.T) {
	s := newTestServices(t, memory.New())
	_, err := s.CreditCards.Create(context.Background(), core.CreditCard{
		DisplayName: "Orphan", MonthlyChargeDay: 2, ChargeAccountID: "account-missing",
	})
	if ruleOf(err) != core.RuleMissingReference {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestReactivateCard(t *testing.T) {
	ctx := context.Background()

	t.Run("clears cancellation details", func(t *testing.T) {
		s := newTestServices(t, memory.New())
		a := mustAccount(t, s, "Checking")
		c := mustCard(t, s, a.ID, &core.Expiry{Month: 3, Year: 2024})
		if err := s.CreditCards.Cancel(ctx, c.ID, core.ReasonOther, "paused"); err != nil {
			t.Fatal(err)
		}
		if err := s.CreditCards.Reactivate(ctx, c.ID); err != nil {
			t.Fatalf("Reactivate() error = %v", err)
		}
		got, _ := s.CreditCards.Get(ctx, c.ID)
		if got.Status != core.StatusActive || got.CancellationReason != "" || got.CancellationNote != "" {
			t.Errorf("card = %+v", got)
		}
	})

	t.Run("expired card stays inactive", func(t *testing.T) {
		s := newTestServices(t, memory.New())
		a := mustAccount(t, s, "Checking")
		c := mustCard(t, s, a.ID, &core.Expiry{Month: 2, Year: 2024})

		err := s.CreditCards.Reactivate(ctx, c.ID)
		if ruleOf(err) != core.RuleExpiredOnReactivate {
			t.Fatalf("Reactivate() error = %v", err)
		}
		got, _ := s.CreditCards.Get(ctx, c.ID)
		if got.IsActive() {
			t.Errorf("expired card reactivated: %+v", got)
		}
	})

	t.Run("inactive account blocks", func(t *testing.T) {
		s := newTestServices(t, memory.New())
		a := mustAccount(t, s, "Checking")
		c := mustCard(t, s, a.ID, nil)
		if err := s.CreditCards.Cancel(ctx, c.ID, core.ReasonCancelled, ""); err != nil {
			t.Fatal(err)
		}
		if err := s.Accounts.Close(ctx, a.ID); err != nil {
			t.Fatal(err)
		}

		err := s.CreditCards.Reactivate(ctx, c.ID)
		if ruleOf(err) != core.RuleInactiveAccount {
			t.Fatalf("Reactivate() error = %v", err)
		}
		got, _ := s.CreditCards.Get(ctx, c.ID)
		if got.CancellationReason != core.ReasonCancelled {
			t.Errorf("refused reactivation altered card: %+v", got)
		}
	})
}

func TestUpdateKeepsAccountStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t, memory.New())
	a := mustAccount(t, s, "Checking")
	mustCard(t, s, a.ID, &core.Expiry{Month: 12, Year: 2026})

	a.Name = "Main"
	a.Status = core.StatusInactive
	if err := s.Accounts.Update(ctx, a); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _ := s.Accounts.Get(ctx, a.ID)
	if got.Name != "Main" {
		t.Errorf("Name = %q, want Main", got.Name)
	}
	if got.Status != core.StatusActive {
		t.Errorf("Status = %q, want active while a card still charges the account", got.Status)
	}

	got.OwnerIDs = nil
	if err := s.Accounts.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _ = s.Accounts.Get(ctx, a.ID)
	if len(got.OwnerIDs) != 1 || got.OwnerIDs[0] != "user-1" {
		t.Errorf("OwnerIDs = %v, want stored owners kept", got.OwnerIDs)
	}
}

func TestUpdateKeepsCardStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("expired card", func(t *testing.T) {
		s := newTestServices(t, memory.New())
		a := mustAccount(t, s, "Checking")
		c := mustCard(t, s, a.ID, &core.Expiry{Month: 2, Year: 2024})
		if err := s.CreditCards.Reactivate(ctx, c.ID); ruleOf(err) != core.RuleExpiredOnReactivate {
			t.Fatalf("Reactivate() error = %v", err)
		}

		c.DisplayName = "Visa Gold"
		c.Status = core.StatusActive
		c.CancellationReason = ""
		if err := s.CreditCards.Update(ctx, c); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		got, _ := s.CreditCards.Get(ctx, c.ID)
		if got.DisplayName != "Visa Gold" {
			t.Errorf("DisplayName = %q", got.DisplayName)
		}
		if got.IsActive() || got.CancellationReason != core.ReasonExpired {
			t.Errorf("card = %+v, want inactive with reason expired", got)
		}
	})

	t.Run("cancelled card on closed account", func(t *testing.T) {
		s := newTestServices(t, memory.New())
		a := mustAccount(t, s, "Checking")
		c := mustCard(t, s, a.ID, nil)
		if err := s.CreditCards.Cancel(ctx, c.ID, core.ReasonLostOrStolen, "wallet"); err != nil {
			t.Fatal(err)
		}
		if err := s.Accounts.Close(ctx, a.ID); err != nil {
			t.Fatal(err)
		}

		c.MonthlyChargeDay = 20
		c.Status = core.StatusActive
		if err := s.CreditCards.Update(ctx, c); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		got, _ := s.CreditCards.Get(ctx, c.ID)
		if got.MonthlyChargeDay != 20 {
			t.Errorf("MonthlyChargeDay = %d, want 20", got.MonthlyChargeDay)
		}
		if got.IsActive() || got.CancellationReason != core.ReasonLostOrStolen || got.CancellationNote != "wallet" {
			t.Errorf("card = %+v, want cancellation kept", got)
		}
	})

	t.Run("missing card", func(t *testing.T) {
		s := newTestServices(t, memory.New())
		a := mustAccount(t, s, "Checking")
		err := s.CreditCards.Update(ctx, core.CreditCard{
			ID: "card-x", DisplayName: "Visa", MonthlyChargeDay: 1, ChargeAccountID: a.ID,
		})
		if !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Update() error = %v, want not found", err)
		}
	})
}

func TestCardListExpiresAndPersists(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &recordingPublisher{}
	s := newTestServices(t, store, WithPublisher(pub))
	a := mustAccount(t, s, "Checking")
	expired := mustCard(t, s, a.ID, &core.Expiry{Month: 2, Year: 2024})
	current := mustCard(t, s, a.ID, &core.Expiry{Month: 3, Year: 2024})

	cards, err := s.CreditCards.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	byID := map[string]core.CreditCard{}
	for _, c := range cards {
		byID[c.ID] = c
	}
	if byID[expired.ID].IsActive() || byID[expired.ID].CancellationReason != core.ReasonExpired {
		t.Errorf("expired card = %+v", byID[expired.ID])
	}
	if !byID[current.ID].IsActive() {
		t.Errorf("card expiring this month was deactivated")
	}

	// Visible to a fresh reader without another List.
	stored, _ := repository.NewCreditCards(kv.Namespace(store, "user-1")).Get(ctx, expired.ID)
	if stored.Status != core.StatusInactive {
		t.Errorf("correction not persisted: %+v", stored)
	}

	n, err := s.CreditCards.ExpireNow(ctx)
	if err != nil || n != 0 {
		t.Errorf("second maintenance pass changed %d cards, err=%v", n, err)
	}

	var expireEvents int
	for _, op := range pub.ops() {
		if op == "credit-cards:expire" {
			expireEvents++
		}
	}
	if expireEvents != 1 {
		t.Errorf("expire events = %d, ops = %v", expireEvents, pub.ops())
	}
}

func TestHasCards(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t, memory.New())
	a := mustAccount(t, s, "Checking")
	b := mustAccount(t, s, "Savings")
	c := mustCard(t, s, a.ID, nil)
	if err := s.CreditCards.Cancel(ctx, c.ID, core.ReasonCancelled, ""); err != nil {
		t.Fatal(err)
	}

	active, _ := s.CreditCards.HasActiveCards(ctx, a.ID)
	anyCards, _ := s.CreditCards.HasAnyCards(ctx, a.ID)
	if active || !anyCards {
		t.Errorf("account a: active=%v any=%v", active, anyCards)
	}
	anyCards, _ = s.CreditCards.HasAnyCards(ctx, b.ID)
	if anyCards {
		t.Error("account b has no cards")
	}
	list, _ := s.CreditCards.ListByAccount(ctx, a.ID)
	if len(list) != 1 || list[0].ID != c.ID {
		t.Errorf("ListByAccount() = %+v", list)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	alice := New(store, "alice")
	bob := New(store, "bob")

	if _, err := alice.Accounts.Create(ctx, core.Account{Name: "Alice checking"}); err != nil {
		t.Fatal(err)
	}
	accounts, err := bob.Accounts.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 0 {
		t.Fatalf("bob sees %v", accounts)
	}
}

func TestTransactions(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t, memory.New())
	a := mustAccount(t, s, "Checking")
	c := mustCard(t, s, a.ID, nil)
	b, err := s.Budgets.Create(ctx, core.Budget{
		Name: "Food", Amount: core.Money{Cents: 100000},
		Cycle: core.BudgetCycle{Type: core.CycleMonthly}, Importance: core.ImportanceHigh,
	})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}

	exp, err := s.Transactions.CreateExpense(ctx, core.Expense{
		Amount: core.Money{Cents: 4550}, Description: "Groceries",
		ExecutionDate: core.NewDate(2024, 3, 2), BudgetID: b.ID,
		PaymentMethod: core.TargetCard, CreditCardID: c.ID,
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	inc, err := s.Transactions.CreateIncome(ctx, core.Income{
		Amount: core.Money{Cents: 900000}, ReceiptDate: core.NewDate(2024, 3, 10),
		TargetType: core.TargetAccount, ReceivingAccountID: a.ID,
	})
	if err != nil {
		t.Fatalf("CreateIncome() error = %v", err)
	}

	all, err := s.Transactions.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].ID() != inc.ID || all[1].ID() != exp.ID {
		t.Fatalf("All() order = %+v", all)
	}
	if all[0].Kind != core.KindIncome || all[1].Kind != core.KindExpense {
		t.Errorf("kinds = %s, %s", all[0].Kind, all[1].Kind)
	}

	_, err = s.Transactions.CreateExpense(ctx, core.Expense{
		Amount: core.Money{Cents: 100}, Description: "x",
		ExecutionDate: core.NewDate(2024, 3, 2), BudgetID: "budget-missing",
		PaymentMethod: core.TargetAccount, PaymentAccountID: a.ID,
	})
	if ruleOf(err) != core.RuleMissingReference {
		t.Errorf("missing budget error = %v", err)
	}

	_, err = s.Transactions.CreateIncome(ctx, core.Income{
		Amount: core.Money{Cents: 100}, ReceiptDate: core.NewDate(2024, 3, 2),
		TargetType: core.TargetCard,
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("income without card error = %v", err)
	}

	if err := s.Transactions.Delete(ctx, inc.ID); err != nil {
		t.Fatalf("Delete(income) error = %v", err)
	}
	if err := s.Transactions.Delete(ctx, exp.ID); err != nil {
		t.Fatalf("Delete(expense) error = %v", err)
	}
	all, _ = s.Transactions.All(ctx)
	if len(all) != 0 {
		t.Errorf("All() after delete = %+v", all)
	}
}

func TestUpdateTransactions(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t, memory.New())
	a := mustAccount(t, s, "Checking")
	c := mustCard(t, s, a.ID, nil)
	b, err := s.Budgets.Create(ctx, core.Budget{
		Name: "Food", Amount: core.Money{Cents: 100000},
		Cycle: core.BudgetCycle{Type: core.CycleMonthly}, Importance: core.ImportanceLow,
	})
	if err != nil {
		t.Fatal(err)
	}
	exp, err := s.Transactions.CreateExpense(ctx, core.Expense{
		Amount: core.Money{Cents: 1000}, Description: "Lunch",
		ExecutionDate: core.NewDate(2024, 3, 1), BudgetID: b.ID,
		PaymentMethod: core.TargetAccount, PaymentAccountID: a.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	inc, err := s.Transactions.CreateIncome(ctx, core.Income{
		Amount: core.Money{Cents: 500}, ReceiptDate: core.NewDate(2024, 3, 3),
		TargetType: core.TargetCard, ReceivingCreditCardID: c.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	exp.Amount = core.Money{Cents: 1250}
	exp.PaymentMethod, exp.PaymentAccountID, exp.CreditCardID = core.TargetCard, "", c.ID
	if err := s.Transactions.UpdateExpense(ctx, exp); err != nil {
		t.Fatalf("UpdateExpense() error = %v", err)
	}
	got, err := s.Transactions.GetExpense(ctx, exp.ID)
	if err != nil || got.Amount.Cents != 1250 || got.CreditCardID != c.ID {
		t.Errorf("GetExpense() = %+v, %v", got, err)
	}

	exp.CreditCardID = "card-missing"
	if err := s.Transactions.UpdateExpense(ctx, exp); ruleOf(err) != core.RuleMissingReference {
		t.Errorf("UpdateExpense(missing card) error = %v", err)
	}

	inc.Description = "Refund"
	if err := s.Transactions.UpdateIncome(ctx, inc); err != nil {
		t.Fatalf("UpdateIncome() error = %v", err)
	}
	if got, err := s.Transactions.GetIncome(ctx, inc.ID); err != nil || got.Description != "Refund" {
		t.Errorf("GetIncome() = %+v, %v", got, err)
	}
	incomes, err := s.Transactions.ListIncomes(ctx)
	if err != nil || len(incomes) != 1 {
		t.Errorf("ListIncomes() = %v, %v", incomes, err)
	}

	inc.ID = "inc-missing"
	if err := s.Transactions.UpdateIncome(ctx, inc); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateIncome(missing) error = %v, want not found", err)
	}
	if _, err := s.Transactions.GetExpense(ctx, "exp-missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetExpense(missing) error = %v, want not found", err)
	}
}

func TestBudgetValidation(t *testing.T) {
	s := newTestServices(t, memory.New())
	_, err := s.Budgets.Create(context.Background(), core.Budget{
		Name: "Trips", Amount: core.Money{Cents: 100},
		Cycle: core.BudgetCycle{Type: core.CycleCustom}, Importance: core.ImportanceLow,
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("custom cycle without value error = %v", err)
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	s := newTestServices(t, memory.New(), WithPublisher(pub))

	a := mustAccount(t, s, "Checking")
	if a.ID == "" {
		t.Fatal("account not created")
	}
	if ops := pub.ops(); len(ops) != 1 || ops[0] != "accounts:create" {
		t.Errorf("ops = %v", ops)
	}
	if pub.events[0].UserID != "user-1" || !pub.events[0].Timestamp.Equal(march2024) {
		t.Errorf("event = %+v", pub.events[0])
	}
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t, memory.New())

	p, err := s.Profile.Get(ctx)
	if err != nil || p.ID != "user-1" || p.FirstName != "" {
		t.Fatalf("Get() = %+v, %v", p, err)
	}
	if err := s.Profile.Update(ctx, core.Profile{FirstName: "Noa", Nickname: "N"}); err != nil {
		t.Fatal(err)
	}
	p, _ = s.Profile.Get(ctx)
	if p.DisplayName() != "N" || p.ID != "user-1" {
		t.Errorf("profile = %+v", p)
	}
}
