package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, 1, 15)
	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"2024-01-15T00:00:00.000Z"` {
		t.Fatalf("unexpected encoding %s", out)
	}
	var back Date
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.SameDay(d) || !back.Equal(d.Time) {
		t.Fatalf("round trip changed date: %v != %v", back, d)
	}
}

func TestDateUnmarshalVariants(t *testing.T) {
	cases := map[string]Date{
		`"2024-03-10"`:               NewDate(2024, 3, 10),
		`"2024-03-10T00:00:00Z"`:     NewDate(2024, 3, 10),
		`"2024-03-10T00:00:00.000Z"`: NewDate(2024, 3, 10),
		`null`:                       {},
	}
	for in, want := range cases {
		var d Date
		if err := json.Unmarshal([]byte(in), &d); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if !d.Equal(want.Time) {
			t.Errorf("%s = %v, want %v", in, d, want)
		}
	}
	var d Date
	if err := json.Unmarshal([]byte(`"yesterday"`), &d); err == nil {
		t.Error("expected error for unparseable date")
	}
}

func TestExpiryExpiredAt(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		e    Expiry
		want bool
	}{
		{"previous year", Expiry{Month: 12, Year: 2024}, true},
		{"earlier month same year", Expiry{Month: 5, Year: 2025}, true},
		{"same month same year", Expiry{Month: 6, Year: 2025}, false},
		{"later month same year", Expiry{Month: 7, Year: 2025}, false},
		{"next year earlier month", Expiry{Month: 1, Year: 2026}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.e.ExpiredAt(now); got != tc.want {
				t.Errorf("ExpiredAt = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseExpiry(t *testing.T) {
	e, err := ParseExpiry("03/27")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if e.Month != 3 || e.Year != 2027 {
		t.Fatalf("got %+v", e)
	}
	if e.String() != "03/27" {
		t.Errorf("String() = %q", e.String())
	}
	for _, bad := range []string{"3/27", "13/27", "03-27", "03/2", ""} {
		if _, err := ParseExpiry(bad); !errors.Is(err, ErrValidation) {
			t.Errorf("ParseExpiry(%q) err = %v, want validation error", bad, err)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Amount:           Money{Cents: 100},
		Description:      "groceries",
		ExecutionDate:    NewDate(2025, 1, 1),
		BudgetID:         "budget-1",
		PaymentMethod:    TargetAccount,
		PaymentAccountID: "account-1",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := map[string]func(e *Expense){
		"zero amount":         func(e *Expense) { e.Amount = Money{} },
		"empty description":   func(e *Expense) { e.Description = " " },
		"zero date":           func(e *Expense) { e.ExecutionDate = Date{} },
		"missing budget":      func(e *Expense) { e.BudgetID = "" },
		"card without card":   func(e *Expense) { e.PaymentMethod = TargetCard },
		"account without ref": func(e *Expense) { e.PaymentAccountID = "" },
		"unknown method":      func(e *Expense) { e.PaymentMethod = "cash" },
	}
	for name, mutate := range bads {
		e := good
		mutate(&e)
		if err := e.Validate(); !errors.Is(err, ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestIncomeValidate(t *testing.T) {
	good := Income{
		Amount:                Money{Cents: 5000},
		ReceiptDate:           NewDate(2025, 2, 1),
		TargetType:            TargetCard,
		ReceivingCreditCardID: "card-1",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := good
	bad.TargetType = TargetAccount
	if err := bad.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBudgetCycle(t *testing.T) {
	cases := []struct {
		c      BudgetCycle
		months int
		ok     bool
	}{
		{BudgetCycle{Type: CycleMonthly}, 1, true},
		{BudgetCycle{Type: CycleBiMonthly}, 2, true},
		{BudgetCycle{Type: CycleYearly}, 12, true},
		{BudgetCycle{Type: CycleCustom, CustomValue: 3, CustomUnit: UnitMonth}, 3, true},
		{BudgetCycle{Type: CycleCustom, CustomValue: 2, CustomUnit: UnitYear}, 24, true},
		{BudgetCycle{Type: CycleCustom, CustomValue: 0, CustomUnit: UnitMonth}, 0, false},
		{BudgetCycle{Type: "weekly"}, 0, false},
	}
	for i, tc := range cases {
		err := tc.c.Validate()
		if tc.ok != (err == nil) {
			t.Fatalf("case %d: ok=%v err=%v", i, tc.ok, err)
		}
		if tc.ok && tc.c.Months() != tc.months {
			t.Errorf("case %d: months = %d, want %d", i, tc.c.Months(), tc.months)
		}
	}
}

func TestTransactionUnion(t *testing.T) {
	tx := ExpenseTransaction(Expense{ID: "exp-1", Amount: Money{Cents: 10}, ExecutionDate: NewDate(2024, 1, 15)})
	if tx.ID() != "exp-1" || tx.Amount().Cents != 10 || !tx.Date().SameDay(NewDate(2024, 1, 15)) {
		t.Fatalf("unexpected accessors on %+v", tx)
	}

	out, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Transaction
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Kind != KindExpense || back.Expense == nil || back.Income != nil {
		t.Fatalf("unexpected union %+v", back)
	}

	if err := json.Unmarshal([]byte(`{"kind":"income","expense":{"id":"x"}}`), &back); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected mismatch error, got %v", err)
	}
}

func TestIntegrityErrorIs(t *testing.T) {
	err := NewIntegrityError(RuleActiveCardsOnClose, "active cards still linked")
	if !errors.Is(err, ErrIntegrityViolation) {
		t.Fatal("expected errors.Is ErrIntegrityViolation")
	}
	var ie *IntegrityError
	if !errors.As(err, &ie) || ie.Rule != RuleActiveCardsOnClose {
		t.Fatalf("unexpected %v", err)
	}
	if !errors.Is(NewNotFoundError("accounts", "a"), ErrNotFound) {
		t.Fatal("expected errors.Is ErrNotFound")
	}
}

func TestProfileDisplayName(t *testing.T) {
	cases := []struct {
		p    Profile
		want string
	}{
		{Profile{FirstName: "Dana", LastName: "Levi", Nickname: "D"}, "D"},
		{Profile{FirstName: "Dana", LastName: "Levi"}, "Dana Levi"},
		{Profile{FirstName: "Dana"}, "Dana"},
	}
	for _, tc := range cases {
		if got := tc.p.DisplayName(); got != tc.want {
			t.Errorf("DisplayName() = %q, want %q", got, tc.want)
		}
	}
}
