package core

import (
	"errors"
)

const (
	Credit TransactionType = "Credit"
	Debit  TransactionType = "Debit"
	Refund TransactionType = "Refund"
)

const (
	Shopping      Category = "Shopping"
	Travel        Category = "Travel"
	Utility       Category = "Utility"
	Food          Category = "Food"
	Entertainment Category = "Entertainment"
	Income        Category = "Income"
	Other         Category = "Other"
)

type (
	TransactionType string

	Category string

	// Transaction is immutable once created. Amount keeps the two-decimal
	// string form it was stored with.
	Transaction struct {
		ID          string          `json:"id"`
		Date        string          `json:"date"`
		Amount      string          `json:"amount"`
		Description string          `json:"description"`
		Location    string          `json:"location"`
		Type        TransactionType `json:"type"`
		Category    Category        `json:"category"`
	}

	// Draft holds the add-transaction form fields before an id is assigned.
	Draft struct {
		Date        string
		Amount      string
		Description string
		Location    string
		Type        string
		Category    string
	}
)

// User-facing validation messages.
var (
	ErrMissingFields = errors.New("Please fill in all fields")
	ErrInvalidAmount = errors.New("Please enter a valid amount")
)

// TransactionTypes lists the selectable types in form order.
func TransactionTypes() []TransactionType {
	return []TransactionType{Credit, Debit, Refund}
}

// Categories lists the selectable categories in form order.
func Categories() []Category {
	return []Category{Shopping, Travel, Utility, Food, Entertainment, Income, Other}
}

func (t TransactionType) IsValid() bool {
	switch t {
	case Credit, Debit, Refund:
		return true
	}
	return false
}

func (c Category) IsValid() bool {
	switch c {
	case Shopping, Travel, Utility, Food, Entertainment, Income, Other:
		return true
	}
	return false
}

// Validate reports the first problem with the draft. Only one message is
// ever surfaced even when several fields are wrong.
func (d Draft) Validate() error {
	if d.Date == "" || d.Amount == "" || d.Description == "" ||
		d.Location == "" || d.Type == "" || d.Category == "" {
		return ErrMissingFields
	}
	// Values outside the fixed sets count as "not selected".
	if !TransactionType(d.Type).IsValid() || !Category(d.Category).IsValid() {
		return ErrMissingFields
	}
	if _, err := ParseAmount(d.Amount); err != nil {
		return ErrInvalidAmount
	}
	return nil
}

// Transaction validates the draft and builds the stored record with the
// amount formatted to two decimals.
func (d Draft) Transaction(id string) (Transaction, error) {
	if err := d.Validate(); err != nil {
		return Transaction{}, err
	}
	amount, _ := ParseAmount(d.Amount)
	return Transaction{
		ID:          id,
		Date:        d.Date,
		Amount:      FormatAmount(amount),
		Description: d.Description,
		Location:    d.Location,
		Type:        TransactionType(d.Type),
		Category:    Category(d.Category),
	}, nil
}

// AmountPrefix is the sign shown next to an amount in lists and details.
func AmountPrefix(t TransactionType) string {
	switch t {
	case Credit, Refund:
		return "+"
	case Debit:
		return "-"
	default:
		return ""
	}
}

// AmountTone classifies an amount for styling.
func AmountTone(t TransactionType) string {
	switch t {
	case Credit, Refund:
		return "positive"
	case Debit:
		return "negative"
	default:
		return "neutral"
	}
}
