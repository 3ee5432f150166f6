package trip

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleOwner  Role = "owner"
)

var roleRank = map[Role]int{
	RoleViewer: 1,
	RoleEditor: 2,
	RoleOwner:  3,
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Allows reports whether r grants at least the access of min.
func (r Role) Allows(min Role) bool {
	return r.Valid() && roleRank[r] >= roleRank[min]
}

type Trip struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	BaseCurrency string    `json:"base_currency"`
	OwnerID      uuid.UUID `json:"owner_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type Member struct {
	TripID   uuid.UUID `json:"trip_id"`
	UserID   uuid.UUID `json:"user_id"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type Repository interface {
	Create(ctx context.Context, t Trip) error
	GetByID(ctx context.Context, tripID uuid.UUID) (*Trip, error)
	MemberRole(ctx context.Context, tripID, userID uuid.UUID) (Role, error)
	ParticipantIDs(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error)
	AddMember(ctx context.Context, m Member) error
}

const EventTripCreated = "trip.created"

var (
	ErrEmptyName     = errors.New("name can't be empty")
	ErrEmptyCurrency = errors.New("base currency can't be empty")
	ErrInvalidRole   = errors.New("invalid role")
	ErrNotMember     = errors.New("not a member of this trip")
	ErrNotFound      = errors.New("trip not found")
	ErrMemberExists  = errors.New("user is already a member of this trip")
)

func NewTrip(name string, baseCurrency string, createdBy uuid.UUID) (Trip, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Trip{}, ErrEmptyName
	}

	baseCurrency = strings.ToUpper(strings.TrimSpace(baseCurrency))
	if baseCurrency == "" {
		return Trip{}, ErrEmptyCurrency
	}

	return Trip{
		ID:           uuid.New(),
		Name:         name,
		BaseCurrency: baseCurrency,
		OwnerID:      createdBy,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// NewMember builds a membership for an invited user. Ownership is only ever
// granted by NewTrip.
func NewMember(tripID, userID uuid.UUID, role Role) (Member, error) {
	if role != RoleEditor && role != RoleViewer {
		return Member{}, ErrInvalidRole
	}
	return Member{
		TripID:   tripID,
		UserID:   userID,
		Role:     role,
		JoinedAt: time.Now().UTC(),
	}, nil
}
