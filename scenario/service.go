package scenario

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

const (
	EventScenarioRegenerated = "scenario.regenerated"
	EventScenarioItemLocked  = "scenario.item_locked"
	EventOptionAdded         = "option.added"
)

type RegeneratedEvent struct {
	RequestedBy uuid.UUID    `json:"requested_by"`
	ItemCounts  map[Type]int `json:"item_counts"`
	Prompted    bool         `json:"prompted"`
}

type ItemLockedEvent struct {
	RequestedBy uuid.UUID `json:"requested_by"`
	ItemID      uuid.UUID `json:"item_id"`
	Locked      bool      `json:"locked"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Regenerate rebuilds all three scenarios of a trip from its current
// planning options. Each scenario is read and replaced inside one storage
// transaction so concurrent regenerations cannot drop locked items.
func (s *Service) Regenerate(ctx context.Context, tripID uuid.UUID, prompt string) ([]Scenario, error) {
	options, err := s.repo.LoadOptions(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("loading planning options: %w", err)
	}
	pools := BuildPools(options)

	scenarios := make([]Scenario, 0, len(Types))
	for _, t := range Types {
		updated, err := s.repo.Update(ctx, tripID, t, func(previous *Scenario) ([]Item, error) {
			return Generate(t, pools, previous, prompt)
		})
		if err != nil {
			return nil, fmt.Errorf("regenerating %s scenario: %w", t, err)
		}
		slog.Debug("scenario regenerated", "trip_id", tripID, "scenario_type", t, "items", len(updated.Items))
		scenarios = append(scenarios, *updated)
	}

	return scenarios, nil
}

func (s *Service) List(ctx context.Context, tripID uuid.UUID) ([]Scenario, error) {
	return s.repo.List(ctx, tripID)
}

func (s *Service) SetItemLocked(ctx context.Context, tripID, itemID uuid.UUID, locked bool) (*Item, error) {
	return s.repo.SetItemLocked(ctx, tripID, itemID, locked)
}

// Options returns the trip's planning options with their vote tallies.
func (s *Service) Options(ctx context.Context, tripID uuid.UUID) ([]Option, error) {
	return s.repo.LoadOptions(ctx, tripID)
}

func (s *Service) AddOption(ctx context.Context, tripID uuid.UUID, o Option) (Option, error) {
	o, err := NewOption(o)
	if err != nil {
		return Option{}, err
	}
	return s.repo.AddOption(ctx, tripID, o)
}

func (s *Service) Vote(ctx context.Context, tripID uuid.UUID, itemType ItemType, optionID, userID uuid.UUID, value int) error {
	if !itemType.Valid() {
		return fmt.Errorf("%w: unknown item type %q", ErrInvalidOption, itemType)
	}
	if value < -1 || value > 1 {
		return ErrInvalidVote
	}
	return s.repo.Vote(ctx, tripID, itemType, optionID, userID, value)
}
