package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TargetType selects which kind of entity a transaction moves money through.
type TargetType string

const (
	TargetAccount TargetType = "account"
	TargetCard    TargetType = "card"
)

type (
	Expense struct {
		ID               string     `json:"id"`
		Amount           Money      `json:"amount"`
		Description      string     `json:"description"`
		ExecutionDate    Date       `json:"executionDate"`
		BudgetID         string     `json:"budgetId"`
		PaymentMethod    TargetType `json:"paymentMethod"`
		CreditCardID     string     `json:"creditCardId,omitempty"`
		PaymentAccountID string     `json:"paymentAccountId,omitempty"`
	}

	Income struct {
		ID                    string     `json:"id"`
		Amount                Money      `json:"amount"`
		Description           string     `json:"description,omitempty"`
		ReceiptDate           Date       `json:"receiptDate"`
		TargetType            TargetType `json:"targetType"`
		ReceivingAccountID    string     `json:"receivingAccountId,omitempty"`
		ReceivingCreditCardID string     `json:"receivingCreditCardId,omitempty"`
	}
)

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return invalid("expense amount: %v", err)
	}
	if strings.TrimSpace(e.Description) == "" {
		return invalid("expense description is required")
	}
	if len(e.Description) > 200 {
		return invalid("description too long (max 200 characters)")
	}
	if err := e.ExecutionDate.Validate(); err != nil {
		return invalid("execution date: %v", err)
	}
	if strings.TrimSpace(e.BudgetID) == "" {
		return invalid("expense must be linked to a budget")
	}
	switch e.PaymentMethod {
	case TargetCard:
		if e.CreditCardID == "" {
			return invalid("credit card is required when paying by card")
		}
	case TargetAccount:
		if e.PaymentAccountID == "" {
			return invalid("payment account is required when paying from an account")
		}
	default:
		return invalid("invalid payment method %q", e.PaymentMethod)
	}
	return nil
}

func (i Income) Validate() error {
	if err := i.Amount.Validate(); err != nil {
		return invalid("income amount: %v", err)
	}
	if len(i.Description) > 200 {
		return invalid("description too long (max 200 characters)")
	}
	if err := i.ReceiptDate.Validate(); err != nil {
		return invalid("receipt date: %v", err)
	}
	switch i.TargetType {
	case TargetAccount:
		if i.ReceivingAccountID == "" {
			return invalid("receiving account is required")
		}
	case TargetCard:
		if i.ReceivingCreditCardID == "" {
			return invalid("receiving credit card is required")
		}
	default:
		return invalid("invalid target type %q", i.TargetType)
	}
	return nil
}

// TransactionKind is the discriminant of Transaction.
type TransactionKind string

const (
	KindExpense TransactionKind = "expense"
	KindIncome  TransactionKind = "income"
)

// Transaction holds exactly one of Expense or Income, selected by Kind.
type Transaction struct {
	Kind    TransactionKind `json:"kind"`
	Expense *Expense        `json:"expense,omitempty"`
	Income  *Income         `json:"income,omitempty"`
}

func ExpenseTransaction(e Expense) Transaction {
	return Transaction{Kind: KindExpense, Expense: &e}
}

func IncomeTransaction(i Income) Transaction {
	return Transaction{Kind: KindIncome, Income: &i}
}

func (t Transaction) ID() string {
	switch t.Kind {
	case KindExpense:
		return t.Expense.ID
	case KindIncome:
		return t.Income.ID
	}
	return ""
}

// Date is the execution date of an expense or the receipt date of an income.
func (t Transaction) Date() Date {
	switch t.Kind {
	case KindExpense:
		return t.Expense.ExecutionDate
	case KindIncome:
		return t.Income.ReceiptDate
	}
	return Date{}
}

func (t Transaction) Amount() Money {
	switch t.Kind {
	case KindExpense:
		return t.Expense.Amount
	case KindIncome:
		return t.Income.Amount
	}
	return Money{}
}

func (t Transaction) Description() string {
	switch t.Kind {
	case KindExpense:
		return t.Expense.Description
	case KindIncome:
		return t.Income.Description
	}
	return ""
}

// UnmarshalJSON rejects a transaction whose payload does not match its kind.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type plain Transaction
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	switch {
	case p.Kind == KindExpense && p.Expense != nil && p.Income == nil:
	case p.Kind == KindIncome && p.Income != nil && p.Expense == nil:
	default:
		return fmt.Errorf("%w: transaction kind %q does not match its payload", ErrValidation, p.Kind)
	}
	*t = Transaction(p)
	return nil
}
