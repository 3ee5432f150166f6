package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Milbo-LLC/waybook-sub000/ledger"
	"github.com/Milbo-LLC/waybook-sub000/middleware"
	"github.com/google/uuid"
)

type createExpenseRequest struct {
	PaidBy              *uuid.UUID            `json:"paid_by"`
	Description         string                `json:"description"`
	Currency            string                `json:"currency"`
	AmountMinor         int64                 `json:"amount_minor"`
	TripBaseAmountMinor *int64                `json:"trip_base_amount_minor"`
	SplitMethod         ledger.SplitMethod    `json:"split_method"`
	Splits              []ledger.ExpenseSplit `json:"splits"`
}

type expensesResponse struct {
	Expenses []ledger.Expense `json:"expenses"`
}

func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	tripID, _ := middleware.TripID(r)

	expenses, err := h.ledger.ListExpenses(r.Context(), tripID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []ledger.Expense{}
	}

	middleware.WriteJSON(w, http.StatusOK, expensesResponse{Expenses: expenses})
}

// CreateExpense records an expense. The payer defaults to the caller, and the
// base amount may be omitted only when the expense is already in the trip's
// base currency.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	tripID, _ := middleware.TripID(r)
	userID, _ := middleware.GetUserID(r.Context())

	var req createExpenseRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, expenseDecodeError(err))
		return
	}

	t, err := h.trips.GetByID(r.Context(), tripID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	paidBy := userID
	if req.PaidBy != nil {
		paidBy = *req.PaidBy
	}

	baseAmount := req.AmountMinor
	if req.TripBaseAmountMinor != nil {
		baseAmount = *req.TripBaseAmountMinor
	} else if !strings.EqualFold(strings.TrimSpace(req.Currency), t.BaseCurrency) {
		writeError(w, r, fmt.Errorf("%w: trip_base_amount_minor is required for %s expenses on a %s trip",
			ledger.ErrInvalidAmount, req.Currency, t.BaseCurrency))
		return
	}

	participants, err := h.trips.ParticipantIDs(r.Context(), tripID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	expense, err := ledger.NewExpense(tripID, paidBy, req.Description, req.Currency, req.AmountMinor, baseAmount,
		req.SplitMethod, req.Splits, participants)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.ledger.SaveExpense(r.Context(), expense); err != nil {
		writeError(w, r, err)
		return
	}

	h.record(ledger.EventExpenseAdded, tripID, userID, ledger.NewExpenseAddedEvent(expense, userID))
	middleware.WriteJSON(w, http.StatusCreated, expense)
}

func (h *Handlers) GetSettlement(w http.ResponseWriter, r *http.Request) {
	tripID, _ := middleware.TripID(r)
	userID, _ := middleware.GetUserID(r.Context())

	t, err := h.trips.GetByID(r.Context(), tripID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	participants, err := h.trips.ParticipantIDs(r.Context(), tripID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	expenses, err := h.ledger.ListExpenses(r.Context(), tripID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	settlement, err := ledger.ComputeSettlement(expenses, participants, t.BaseCurrency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if settlement.Transfers == nil {
		settlement.Transfers = []ledger.Transfer{}
	}

	h.record(ledger.EventSettlementComputed, tripID, userID, ledger.SettlementComputedEvent{
		RequestedBy:   userID,
		Currency:      settlement.Currency,
		ExpenseCount:  len(expenses),
		TransferCount: len(settlement.Transfers),
	})
	middleware.WriteJSON(w, http.StatusOK, settlement)
}

// expenseDecodeError reports non-integer money and split values with the
// ledger's own errors instead of a generic body error.
func expenseDecodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		return err
	}
	switch {
	case strings.Contains(typeErr.Field, "amount"):
		return fmt.Errorf("%w: %s must be an integer number of minor units", ledger.ErrInvalidAmount, typeErr.Field)
	case strings.Contains(typeErr.Field, "percentage"), strings.Contains(typeErr.Field, "shares"):
		return fmt.Errorf("%w: %s must be an integer", ledger.ErrInvalidSplit, typeErr.Field)
	}
	return err
}
