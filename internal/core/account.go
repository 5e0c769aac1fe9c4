package core

import "strings"

// Status is the lifecycle state shared by accounts and credit cards.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// AccountCategory groups account types for display.
type AccountCategory string

const (
	CategoryBank          AccountCategory = "bank"
	CategoryDigitalWallet AccountCategory = "digital-wallet"
	CategoryOther         AccountCategory = "other"
)

type (
	AccountType struct {
		ID       string          `json:"id"`
		Name     string          `json:"name"`
		LogoURL  string          `json:"logoUrl,omitempty"`
		Category AccountCategory `json:"category"`
	}

	Account struct {
		ID          string       `json:"id"`
		Name        string       `json:"name"`
		AccountType *AccountType `json:"accountType,omitempty"`
		OwnerIDs    []string     `json:"ownerIds"`
		Status      Status       `json:"status"`
	}
)

// AccountTypes is the built-in catalog of banks and wallets.
var AccountTypes = []AccountType{
	{ID: "leumi", Name: "Bank Leumi", Category: CategoryBank, LogoURL: "/assets/banks/leumi.png"},
	{ID: "hapoalim", Name: "Bank Hapoalim", Category: CategoryBank, LogoURL: "/assets/banks/hapoalim.png"},
	{ID: "mizrahi", Name: "Mizrahi Tefahot", Category: CategoryBank, LogoURL: "/assets/banks/mizrahi.png"},
	{ID: "discount", Name: "Discount Bank", Category: CategoryBank, LogoURL: "/assets/banks/discount.png"},
	{ID: "bit", Name: "Bit", Category: CategoryDigitalWallet, LogoURL: "/assets/wallets/bit.png"},
	{ID: "paybox", Name: "PayBox", Category: CategoryDigitalWallet, LogoURL: "/assets/wallets/paybox.png"},
	{ID: "paypal", Name: "PayPal", Category: CategoryDigitalWallet, LogoURL: "/assets/wallets/paypal.png"},
	{ID: "cash", Name: "Cash", Category: CategoryOther},
}

// LookupAccountType finds a catalog entry by id.
func LookupAccountType(id string) (AccountType, bool) {
	for _, t := range AccountTypes {
		if t.ID == id {
			return t, true
		}
	}
	return AccountType{}, false
}

// IsActive treats a missing status as active; documents written before
// statuses existed carry none.
func (a Account) IsActive() bool {
	return a.Status == "" || a.Status == StatusActive
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return invalid("account name is required")
	}
	if len(a.Name) > 100 {
		return invalid("account name too long (max 100 characters)")
	}
	if a.Status != "" && !a.Status.IsValid() {
		return invalid("invalid account status %q", a.Status)
	}
	return nil
}
