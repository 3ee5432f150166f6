package ledger

import (
	"slices"
	"sort"

	"github.com/google/uuid"
)

type position struct {
	id     uuid.UUID
	amount int64
}

// Settle pairs the largest remaining debtor with the largest remaining
// creditor until one side runs out. It is greedy, not count-optimal.
// order fixes the tie-break between equal amounts; participants missing from
// it are appended in id order.
func Settle(balances Balances, order []uuid.UUID, currency string) []Transfer {
	var creditors, debtors []position
	for _, id := range settlementOrder(balances, order) {
		switch amount := balances[id]; {
		case amount > 0:
			creditors = append(creditors, position{id: id, amount: amount})
		case amount < 0:
			debtors = append(debtors, position{id: id, amount: -amount})
		}
	}

	byAmountDesc := func(a, b position) int {
		switch {
		case a.amount > b.amount:
			return -1
		case a.amount < b.amount:
			return 1
		}
		return 0
	}
	slices.SortStableFunc(creditors, byAmountDesc)
	slices.SortStableFunc(debtors, byAmountDesc)

	transfers := make([]Transfer, 0, len(creditors)+len(debtors))
	ci, di := 0, 0
	for ci < len(creditors) && di < len(debtors) {
		amount := min(creditors[ci].amount, debtors[di].amount)
		if amount > 0 {
			transfers = append(transfers, Transfer{
				From:        debtors[di].id,
				To:          creditors[ci].id,
				AmountMinor: amount,
				Currency:    currency,
			})
		}

		creditors[ci].amount -= amount
		debtors[di].amount -= amount
		if creditors[ci].amount == 0 {
			ci++
		}
		if debtors[di].amount == 0 {
			di++
		}
	}

	return transfers
}

func settlementOrder(balances Balances, order []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(balances))
	ids := make([]uuid.UUID, 0, len(balances))
	for _, id := range order {
		if _, ok := balances[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	var rest []uuid.UUID
	for id := range balances {
		if _, ok := seen[id]; !ok {
			rest = append(rest, id)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].String() < rest[j].String() })

	return append(ids, rest...)
}

// ComputeSettlement runs the whole pipeline for a trip: balances from
// expenses, then the transfer plan in the trip's base currency.
func ComputeSettlement(expenses []Expense, participants []uuid.UUID, currency string) (Settlement, error) {
	if len(participants) == 0 {
		return Settlement{}, ErrNoParticipants
	}

	balances, err := CalculateBalances(expenses, participants)
	if err != nil {
		return Settlement{}, err
	}

	return Settlement{
		Currency:  currency,
		Balances:  balances,
		Transfers: Settle(balances, participants, currency),
	}, nil
}
