package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CancellationReason explains why a card became inactive.
type CancellationReason string

const (
	ReasonCancelled    CancellationReason = "cancelled"
	ReasonExpired      CancellationReason = "expired"
	ReasonLostOrStolen CancellationReason = "lostOrStolen"
	ReasonOther        CancellationReason = "other"
)

func (r CancellationReason) IsValid() bool {
	switch r {
	case ReasonCancelled, ReasonExpired, ReasonLostOrStolen, ReasonOther:
		return true
	}
	return false
}

// Expiry is the month/year printed on a card.
type Expiry struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// ParseExpiry parses the MM/YY form used on cards. Four digit years are also accepted.
func ParseExpiry(s string) (Expiry, error) {
	mm, yy, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Expiry{}, invalid("expiry %q must be MM/YY", s)
	}
	month, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 {
		return Expiry{}, invalid("expiry %q must be MM/YY", s)
	}
	year, err := strconv.Atoi(yy)
	if err != nil {
		return Expiry{}, invalid("expiry %q must be MM/YY", s)
	}
	switch len(yy) {
	case 2:
		year += 2000
	case 4:
	default:
		return Expiry{}, invalid("expiry %q must be MM/YY", s)
	}
	e := Expiry{Month: month, Year: year}
	return e, e.Validate()
}

func (e Expiry) Validate() error {
	if e.Month < 1 || e.Month > 12 {
		return invalid("expiry month %d out of range", e.Month)
	}
	if e.Year < 2000 || e.Year > 2199 {
		return invalid("expiry year %d out of range", e.Year)
	}
	return nil
}

// ExpiredAt reports whether the card is past its expiry at now.
// A card is still valid during its expiry month.
func (e Expiry) ExpiredAt(now time.Time) bool {
	year, month := now.Year(), int(now.Month())
	return e.Year < year || (e.Year == year && e.Month < month)
}

func (e Expiry) String() string {
	return fmt.Sprintf("%02d/%02d", e.Month, e.Year%100)
}

type CreditCard struct {
	ID                 string             `json:"id"`
	DisplayName        string             `json:"displayName"`
	MonthlyChargeDay   int                `json:"monthlyChargeDate"`
	ChargeAccountID    string             `json:"chargeAccountId"`
	IsVirtual          *bool              `json:"isVirtual,omitempty"`
	Status             Status             `json:"status"`
	CancellationReason CancellationReason `json:"cancellationReason,omitempty"`
	CancellationNote   string             `json:"cancellationNote,omitempty"`
	Expiry             *Expiry            `json:"expiry,omitempty"`
}

// IsActive treats a missing status as active.
func (c CreditCard) IsActive() bool {
	return c.Status == "" || c.Status == StatusActive
}

// ExpiredAt reports whether the card carries an expiry that has passed.
func (c CreditCard) ExpiredAt(now time.Time) bool {
	return c.Expiry != nil && c.Expiry.ExpiredAt(now)
}

func (c CreditCard) Validate() error {
	if strings.TrimSpace(c.DisplayName) == "" {
		return invalid("card display name is required")
	}
	if c.MonthlyChargeDay < 1 || c.MonthlyChargeDay > 31 {
		return invalid("monthly charge day %d must be between 1 and 31", c.MonthlyChargeDay)
	}
	if strings.TrimSpace(c.ChargeAccountID) == "" {
		return invalid("charge account is required")
	}
	if c.Status != "" && !c.Status.IsValid() {
		return invalid("invalid card status %q", c.Status)
	}
	if c.CancellationReason != "" && !c.CancellationReason.IsValid() {
		return invalid("invalid cancellation reason %q", c.CancellationReason)
	}
	if c.Expiry != nil {
		if err := c.Expiry.Validate(); err != nil {
			return err
		}
	}
	return nil
}
