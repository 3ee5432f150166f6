package scenario

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeBalanced  Type = "balanced"
	TypeBudget    Type = "budget"
	TypeAdventure Type = "adventure"
)

// Types lists every scenario type in the order they are generated.
var Types = []Type{TypeBalanced, TypeBudget, TypeAdventure}

func (t Type) Valid() bool {
	_, ok := policies[t]
	return ok
}

type ItemType string

const (
	ItemDestination ItemType = "destination"
	ItemActivity    ItemType = "activity"
	ItemBooking     ItemType = "booking"
	ItemPrep        ItemType = "prep"
)

func (it ItemType) Valid() bool {
	_, ok := optionTables[it]
	return ok
}

// Candidate is one rankable item. Candidates are rebuilt from votes, bookings
// and checklists on every generation and are never stored as such.
type Candidate struct {
	ItemType     ItemType   `json:"item_type"`
	SourceID     *uuid.UUID `json:"source_id,omitempty"`
	Label        string     `json:"label"`
	Details      string     `json:"details,omitempty"`
	Score        int        `json:"score"`
	CostHint     *int64     `json:"cost_hint,omitempty"`
	DurationHint *int64     `json:"duration_hint,omitempty"`

	// Committed marks a destination that is already locked or a booking that
	// is already confirmed.
	Committed bool `json:"-"`
}

type key struct {
	itemType ItemType
	ref      string
}

func (c Candidate) key() key {
	if c.SourceID != nil {
		return key{itemType: c.ItemType, ref: c.SourceID.String()}
	}
	return key{itemType: c.ItemType, ref: c.Label}
}

type Item struct {
	ID uuid.UUID `json:"id"`
	Candidate
	IsLocked   bool `json:"is_locked"`
	OrderIndex int  `json:"order_index"`
}

type Scenario struct {
	ID        uuid.UUID `json:"id"`
	TripID    uuid.UUID `json:"trip_id"`
	Type      Type      `json:"scenario_type"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pools holds the candidates of each item type for one trip.
type Pools struct {
	Destinations []Candidate
	Activities   []Candidate
	Bookings     []Candidate
	Prep         []Candidate
}

type Repository interface {
	List(ctx context.Context, tripID uuid.UUID) ([]Scenario, error)
	// Update runs fn with the stored scenario (nil when none exists yet) and
	// replaces its items with the result, atomically for the (trip, type).
	Update(ctx context.Context, tripID uuid.UUID, t Type, fn func(previous *Scenario) ([]Item, error)) (*Scenario, error)
	SetItemLocked(ctx context.Context, tripID, itemID uuid.UUID, locked bool) (*Item, error)
	LoadOptions(ctx context.Context, tripID uuid.UUID) ([]Option, error)
	AddOption(ctx context.Context, tripID uuid.UUID, o Option) (Option, error)
	// Vote records userID's vote on an option; value 0 withdraws it.
	Vote(ctx context.Context, tripID uuid.UUID, itemType ItemType, optionID, userID uuid.UUID, value int) error
}

var (
	ErrCandidateDedupCollision = errors.New("candidate dedup collision")
	ErrUnknownType             = errors.New("unknown scenario type")
	ErrItemNotFound            = errors.New("scenario item not found")
	ErrOptionNotFound          = errors.New("option not found")
	ErrInvalidOption           = errors.New("invalid option")
	ErrInvalidVote             = errors.New("vote must be -1, 0 or 1")
)
