package scenario

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Score bonuses added on top of the vote balance.
const (
	LockedDestinationBonus = 3
	ConfirmedBookingBonus  = 2
	CriticalPrepBonus      = 2
)

const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Option is a planning row of the trip together with its vote tally, as
// loaded from storage. Which of the optional fields matter depends on
// ItemType.
type Option struct {
	ID        uuid.UUID `json:"id"`
	ItemType  ItemType  `json:"item_type"`
	Label     string    `json:"label"`
	Details   string    `json:"details,omitempty"`
	VotesUp   int       `json:"votes_up"`
	VotesDown int       `json:"votes_down"`

	Locked   bool   `json:"locked,omitempty"`
	Status   string `json:"status,omitempty"`
	Critical bool   `json:"critical,omitempty"`
	Done     bool   `json:"done,omitempty"`

	CostMinor       *int64 `json:"cost_minor,omitempty"`
	DurationMinutes *int64 `json:"duration_minutes,omitempty"`
}

// NewOption validates a user-submitted planning option and assigns its id.
// Vote tallies always start at zero.
func NewOption(o Option) (Option, error) {
	o.Label = strings.TrimSpace(o.Label)
	o.Details = strings.TrimSpace(o.Details)
	o.VotesUp, o.VotesDown = 0, 0

	switch {
	case !o.ItemType.Valid():
		return Option{}, fmt.Errorf("%w: unknown item type %q", ErrInvalidOption, o.ItemType)
	case o.Label == "":
		return Option{}, fmt.Errorf("%w: label can't be empty", ErrInvalidOption)
	case o.CostMinor != nil && *o.CostMinor < 0:
		return Option{}, fmt.Errorf("%w: cost can't be negative", ErrInvalidOption)
	case o.DurationMinutes != nil && *o.DurationMinutes < 0:
		return Option{}, fmt.Errorf("%w: duration can't be negative", ErrInvalidOption)
	}

	if o.ItemType == ItemBooking {
		if o.Status == "" {
			o.Status = BookingPending
		}
		if o.Status != BookingPending && o.Status != BookingConfirmed && o.Status != BookingCancelled {
			return Option{}, fmt.Errorf("%w: unknown booking status %q", ErrInvalidOption, o.Status)
		}
	} else {
		o.Status = ""
	}

	o.ID = uuid.New()
	return o, nil
}

// Bonus is the status bonus of the option.
func (o Option) Bonus() int {
	switch {
	case o.ItemType == ItemDestination && o.Locked:
		return LockedDestinationBonus
	case o.ItemType == ItemBooking && o.Status == BookingConfirmed:
		return ConfirmedBookingBonus
	case o.ItemType == ItemPrep && o.Critical:
		return CriticalPrepBonus
	}
	return 0
}

func (o Option) Score() int {
	return o.VotesUp - o.VotesDown + o.Bonus()
}

func (o Option) committed() bool {
	switch o.ItemType {
	case ItemDestination:
		return o.Locked
	case ItemBooking:
		return o.Status == BookingConfirmed
	}
	return false
}

// Candidate turns the option into a scenario candidate.
func (o Option) Candidate() Candidate {
	id := o.ID
	return Candidate{
		ItemType:     o.ItemType,
		SourceID:     &id,
		Label:        o.Label,
		Details:      o.Details,
		Score:        o.Score(),
		CostHint:     o.CostMinor,
		DurationHint: o.DurationMinutes,
		Committed:    o.committed(),
	}
}

// BuildPools sorts options into candidate pools, keeping their input order.
// Cancelled bookings and finished prep tasks are left out.
func BuildPools(options []Option) Pools {
	var pools Pools
	for _, o := range options {
		switch o.ItemType {
		case ItemDestination:
			pools.Destinations = append(pools.Destinations, o.Candidate())
		case ItemActivity:
			pools.Activities = append(pools.Activities, o.Candidate())
		case ItemBooking:
			if o.Status == BookingCancelled {
				continue
			}
			pools.Bookings = append(pools.Bookings, o.Candidate())
		case ItemPrep:
			if o.Done {
				continue
			}
			pools.Prep = append(pools.Prep, o.Candidate())
		}
	}
	return pools
}
