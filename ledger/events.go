package ledger

import "github.com/google/uuid"

const (
	EventExpenseAdded       = "expense.added"
	EventSettlementComputed = "settlement.computed"
)

type ExpenseAddedEvent struct {
	ExpenseID           uuid.UUID   `json:"expense_id"`
	PaidBy              uuid.UUID   `json:"paid_by"`
	AddedBy             uuid.UUID   `json:"added_by"`
	Currency            string      `json:"currency"`
	AmountMinor         int64       `json:"amount_minor"`
	TripBaseAmountMinor int64       `json:"trip_base_amount_minor"`
	SplitMethod         SplitMethod `json:"split_method"`
	SplitCount          int         `json:"split_count"`
}

type SettlementComputedEvent struct {
	RequestedBy   uuid.UUID `json:"requested_by"`
	Currency      string    `json:"currency"`
	ExpenseCount  int       `json:"expense_count"`
	TransferCount int       `json:"transfer_count"`
}

func NewExpenseAddedEvent(e Expense, addedBy uuid.UUID) ExpenseAddedEvent {
	return ExpenseAddedEvent{
		ExpenseID:           e.ID,
		PaidBy:              e.PaidBy,
		AddedBy:             addedBy,
		Currency:            e.Currency,
		AmountMinor:         e.AmountMinor,
		TripBaseAmountMinor: e.TripBaseAmountMinor,
		SplitMethod:         e.SplitMethod,
		SplitCount:          len(e.Splits),
	}
}
