package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

type (
	// TxType controls the sign of a transaction's balance effect.
	TxType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Account carries a cached running balance. The balance is a
	// materialized view over the transactions referencing the account,
	// maintained by the storage layer on every posting.
	Account struct {
		ID        int64
		Name      string
		Balance   Money // signed
		Icon      string
		Color     string
		CreatedAt time.Time
	}

	Transaction struct {
		ID           int64
		Type         TxType
		Amount       Money // positive magnitude, sign derived from Type
		Category     string
		CategoryIcon string
		AccountID    int64
		AccountName  string // join-derived on reads, never stored
		Date         Date
		Description  string
		CreatedAt    time.Time
	}

	// AccountUpdate is a partial account edit; nil fields are untouched.
	// Balance, when set, is a manual adjustment: it overwrites the cached
	// value and subsequent postings apply their deltas on top of it.
	AccountUpdate struct {
		Name    *string
		Balance *Money
		Icon    *string
		Color   *string
	}

	// TransactionUpdate is a partial transaction edit; nil fields keep
	// their old values, including the financially relevant ones.
	TransactionUpdate struct {
		Type         *TxType
		Amount       *Money
		Category     *string
		CategoryIcon *string
		AccountID    *int64
		Date         *Date
		Description  *string
	}

	// DateRange is an inclusive [Start, End] filter on logical dates.
	DateRange struct {
		Start Date
		End   Date
	}

	// Summary holds income and expense totals for a transaction set.
	Summary struct {
		Income  Money
		Expense Money
	}
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	ErrEmptyName        = errors.New("empty account name")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrNoAccount        = errors.New("no account selected")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidDate      = errors.New("invalid date")
	ErrCategoryMismatch = errors.New("category does not match transaction type")
	ErrInvalidPeriod    = errors.New("invalid period")
)

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

// Signed returns the balance effect of an amount under this type:
// positive for income, negative for expense.
func (t TxType) Signed(amount Money) Money {
	if t == Expense {
		return Money{Cents: -amount.Cents}
	}
	return Money{Cents: amount.Cents}
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// ISO returns the date formatted as YYYY-MM-DD, the storage representation.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns m + other. Both operands may be signed.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Empty reports whether the update touches no fields.
func (u AccountUpdate) Empty() bool {
	return u.Name == nil && u.Balance == nil && u.Icon == nil && u.Color == nil
}

func (u AccountUpdate) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// SignedAmount returns the transaction's effect on its account balance.
func (t Transaction) SignedAmount() Money {
	return t.Type.Signed(t.Amount)
}

// Reversal returns the delta that undoes the transaction's prior effect.
func (t Transaction) Reversal() Money {
	return Money{Cents: -t.SignedAmount().Cents}
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.AccountID <= 0 {
		return ErrNoAccount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !CategoryApplies(t.Category, t.Type) {
		return ErrCategoryMismatch
	}
	return nil
}

// Empty reports whether the update touches no fields.
func (u TransactionUpdate) Empty() bool {
	return u.Type == nil && u.Amount == nil && u.Category == nil &&
		u.CategoryIcon == nil && u.AccountID == nil && u.Date == nil &&
		u.Description == nil
}

func (u TransactionUpdate) Validate() error {
	if u.Type != nil && !u.Type.Valid() {
		return ErrInvalidType
	}
	if u.Amount != nil {
		if err := u.Amount.Validate(); err != nil {
			return err
		}
	}
	if u.AccountID != nil && *u.AccountID <= 0 {
		return ErrNoAccount
	}
	if u.Date != nil {
		if err := u.Date.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Apply resolves the effective transaction after the update: fields not
// present in the update fall back to the old values.
func (u TransactionUpdate) Apply(old Transaction) Transaction {
	next := old
	if u.Type != nil {
		next.Type = *u.Type
	}
	if u.Amount != nil {
		next.Amount = *u.Amount
	}
	if u.Category != nil {
		next.Category = *u.Category
	}
	if u.CategoryIcon != nil {
		next.CategoryIcon = *u.CategoryIcon
	}
	if u.AccountID != nil {
		next.AccountID = *u.AccountID
	}
	if u.Date != nil {
		next.Date = *u.Date
	}
	if u.Description != nil {
		next.Description = *u.Description
	}
	return next
}
