package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SplitMethod string

const (
	SplitMethodEqual      SplitMethod = "equal"
	SplitMethodPercentage SplitMethod = "percentage"
	SplitMethodShares     SplitMethod = "shares"
	SplitMethodAbsolute   SplitMethod = "absolute"
)

func (m SplitMethod) Valid() bool {
	switch m {
	case SplitMethodEqual, SplitMethodPercentage, SplitMethodShares, SplitMethodAbsolute:
		return true
	}
	return false
}

// Expense is one trip expense. TripBaseAmountMinor is already converted to
// the trip's base currency; nothing in this package converts currency.
type Expense struct {
	ID                  uuid.UUID      `json:"id"`
	TripID              uuid.UUID      `json:"trip_id"`
	PaidBy              uuid.UUID      `json:"paid_by"`
	Description         string         `json:"description,omitempty"`
	Currency            string         `json:"currency"`
	AmountMinor         int64          `json:"amount_minor"`
	TripBaseAmountMinor int64          `json:"trip_base_amount_minor"`
	SplitMethod         SplitMethod    `json:"split_method"`
	Splits              []ExpenseSplit `json:"splits"`
	CreatedAt           time.Time      `json:"created_at"`
}

// ExpenseSplit carries at most one of AmountMinor, Percentage or Shares.
// A row with none of them set takes part in the equal split of the remainder.
type ExpenseSplit struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	AmountMinor   *int64    `json:"amount_minor,omitempty"`
	Percentage    *int64    `json:"percentage,omitempty"`
	Shares        *int64    `json:"shares,omitempty"`
}

func (s ExpenseSplit) isBare() bool {
	return s.AmountMinor == nil && s.Percentage == nil && s.Shares == nil
}

// Transfer moves AmountMinor from a debtor to a creditor.
type Transfer struct {
	From        uuid.UUID `json:"from"`
	To          uuid.UUID `json:"to"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
}

// Balances maps a participant to its net position in minor units.
// Positive = owed money, Negative = owes money.
type Balances map[uuid.UUID]int64

type Settlement struct {
	Currency  string     `json:"currency"`
	Balances  Balances   `json:"balances"`
	Transfers []Transfer `json:"transfers"`
}

type Repository interface {
	SaveExpense(ctx context.Context, expense Expense) error
	ListExpenses(ctx context.Context, tripID uuid.UUID) ([]Expense, error)
}

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidSplit     = errors.New("invalid split")
	ErrEmptyCurrency    = errors.New("currency can't be empty")
	ErrNoParticipants   = errors.New("trip has no participants")
	ErrInvalidMethod    = errors.New("unsupported split method")
	ErrEmptyDescription = errors.New("description can't be empty")
)

// NewExpense validates the input of a new expense against the trip's
// participants and returns it ready to be saved.
func NewExpense(tripID, paidBy uuid.UUID, description, currency string, amount, baseAmount int64, method SplitMethod, splits []ExpenseSplit, participants []uuid.UUID) (Expense, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Expense{}, ErrEmptyDescription
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return Expense{}, ErrEmptyCurrency
	}

	if amount < 0 {
		return Expense{}, fmt.Errorf("%w: amount %d is negative", ErrInvalidAmount, amount)
	}

	if method == "" {
		method = SplitMethodEqual
	}
	if !method.Valid() {
		return Expense{}, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}

	expense := Expense{
		ID:                  uuid.New(),
		TripID:              tripID,
		PaidBy:              paidBy,
		Description:         description,
		Currency:            currency,
		AmountMinor:         amount,
		TripBaseAmountMinor: baseAmount,
		SplitMethod:         method,
		Splits:              splits,
		CreatedAt:           time.Now().UTC(),
	}

	if _, err := OwedShares(expense, participants); err != nil {
		return Expense{}, err
	}

	return expense, nil
}
