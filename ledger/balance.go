package ledger

import (
	"fmt"

	"github.com/google/uuid"
)

// OwedShares resolves how much each participant owes for one expense.
//
// Percentage rows are resolved first against the full base amount, then
// absolute rows. Share rows divide whatever is left; without share rows the
// bare rows split the remainder equally, and with neither the payer keeps it.
// When no row resolves to an amount the full base amount is split equally
// across every trip participant. Rounding residue is not corrected.
func OwedShares(expense Expense, participants []uuid.UUID) (map[uuid.UUID]int64, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	base := expense.TripBaseAmountMinor
	if base < 0 {
		return nil, fmt.Errorf("%w: base amount %d is negative", ErrInvalidAmount, base)
	}

	members := make(map[uuid.UUID]struct{}, len(participants))
	for _, id := range participants {
		members[id] = struct{}{}
	}
	if _, ok := members[expense.PaidBy]; !ok {
		return nil, fmt.Errorf("%w: payer %s is not a trip participant", ErrInvalidSplit, expense.PaidBy)
	}

	owed := make(map[uuid.UUID]int64, len(participants))
	var (
		explicit    int64
		absoluteSum int64
		percentSum  int64
		totalShares int64
		resolved    bool
		shareRows   []ExpenseSplit
		bareRows    []uuid.UUID
	)

	for _, split := range expense.Splits {
		if err := validateSplit(split, members); err != nil {
			return nil, err
		}

		switch {
		case split.Percentage != nil:
			amount := roundDiv(base*(*split.Percentage), 100)
			owed[split.ParticipantID] += amount
			explicit += amount
			percentSum += *split.Percentage
			resolved = true
		case split.AmountMinor != nil:
			owed[split.ParticipantID] += *split.AmountMinor
			explicit += *split.AmountMinor
			absoluteSum += *split.AmountMinor
			resolved = true
		case split.Shares != nil:
			shareRows = append(shareRows, split)
			totalShares += *split.Shares
			resolved = true
		default:
			bareRows = append(bareRows, split.ParticipantID)
		}
	}

	if !resolved {
		for id, amount := range equalSplit(base, participants) {
			owed[id] += amount
		}
		return owed, nil
	}

	// compared unrounded so that 50/50 of an odd amount is not rejected
	if absoluteSum*100+base*percentSum > base*100 {
		return nil, fmt.Errorf("%w: split amounts exceed the expense total %d", ErrInvalidSplit, base)
	}

	remainder := base - explicit
	if remainder < 0 {
		remainder = 0
	}

	switch {
	case totalShares > 0:
		for _, split := range shareRows {
			owed[split.ParticipantID] += roundDiv(remainder*(*split.Shares), totalShares)
		}
	case len(bareRows) > 0:
		for id, amount := range equalSplit(remainder, bareRows) {
			owed[id] += amount
		}
	default:
		owed[expense.PaidBy] += remainder
	}

	return owed, nil
}

func validateSplit(split ExpenseSplit, members map[uuid.UUID]struct{}) error {
	if _, ok := members[split.ParticipantID]; !ok {
		return fmt.Errorf("%w: participant %s is not part of the trip", ErrInvalidSplit, split.ParticipantID)
	}

	set := 0
	if split.AmountMinor != nil {
		set++
		if *split.AmountMinor < 0 {
			return fmt.Errorf("%w: split amount %d is negative", ErrInvalidAmount, *split.AmountMinor)
		}
	}
	if split.Percentage != nil {
		set++
		if *split.Percentage < 0 || *split.Percentage > 100 {
			return fmt.Errorf("%w: percentage %d out of range", ErrInvalidSplit, *split.Percentage)
		}
	}
	if split.Shares != nil {
		set++
		if *split.Shares <= 0 {
			return fmt.Errorf("%w: shares must be positive, got %d", ErrInvalidSplit, *split.Shares)
		}
	}
	if set > 1 {
		return fmt.Errorf("%w: participant %s has more than one of amount, percentage, shares", ErrInvalidSplit, split.ParticipantID)
	}

	return nil
}

// equalSplit divides amount across members, handing leftover minor units to
// the first members so the parts always add up to amount.
func equalSplit(amount int64, memberIDs []uuid.UUID) map[uuid.UUID]int64 {
	numMembers := int64(len(memberIDs))
	shares := make(map[uuid.UUID]int64, numMembers)
	if numMembers == 0 {
		return shares
	}

	baseAmount := amount / numMembers
	remainder := amount % numMembers

	for i, userID := range memberIDs {
		share := baseAmount
		if int64(i) < remainder {
			share++
		}
		shares[userID] += share
	}
	return shares
}

// roundDiv is num/den rounded half away from zero for non-negative operands.
func roundDiv(num, den int64) int64 {
	return (2*num + den) / (2 * den)
}

// CalculateBalances computes net balances for all participants from expenses
// and their splits.
func CalculateBalances(expenses []Expense, participants []uuid.UUID) (Balances, error) {
	balances := make(Balances, len(participants))

	for _, id := range participants {
		balances[id] = 0
	}

	for _, expense := range expenses {
		owed, err := OwedShares(expense, participants)
		if err != nil {
			return nil, fmt.Errorf("expense %s: %w", expense.ID, err)
		}

		balances[expense.PaidBy] += expense.TripBaseAmountMinor
		for id, amount := range owed {
			balances[id] -= amount
		}
	}

	return balances, nil
}
