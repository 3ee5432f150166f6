// Package decision ranks the options of one voting scope and phrases a
// recommendation for the group.
package decision

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

type Scope string

const (
	ScopeDestinations Scope = "destinations"
	ScopeActivities   Scope = "activities"
	ScopePlanning     Scope = "planning"
)

func (s Scope) Valid() bool {
	switch s {
	case ScopeDestinations, ScopeActivities, ScopePlanning:
		return true
	}
	return false
}

const (
	MinOptions     = 2
	MaxOptions     = 8
	DefaultOptions = 3

	EventRoundRan = "decision.round_ran"
)

var ErrInvalidScope = errors.New("invalid decision scope")

type Option struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	VotesUp   int       `json:"votes_up"`
	VotesDown int       `json:"votes_down"`
	Bonus     int       `json:"bonus,omitempty"`
}

type RankedOption struct {
	Option
	Score int `json:"score"`
	Rank  int `json:"rank"`
}

type Round struct {
	Scope          Scope          `json:"scope"`
	Options        []RankedOption `json:"options"`
	Summary        string         `json:"summary"`
	Recommendation string         `json:"recommendation"`
}

// ClampOptions bounds the requested option count to MinOptions..MaxOptions;
// zero or less picks DefaultOptions.
func ClampOptions(n int) int {
	if n <= 0 {
		return DefaultOptions
	}
	return max(MinOptions, min(n, MaxOptions))
}

// Run ranks options by score, then up votes, keeping input order for full
// ties, and returns the top maxOptions with a summary and recommendation.
func Run(scope Scope, options []Option, maxOptions int) (Round, error) {
	if !scope.Valid() {
		return Round{}, fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}

	ranked := make([]RankedOption, 0, len(options))
	for _, o := range options {
		ranked = append(ranked, RankedOption{Option: o, Score: o.VotesUp - o.VotesDown + o.Bonus})
	}
	slices.SortStableFunc(ranked, func(a, b RankedOption) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return b.VotesUp - a.VotesUp
	})

	if n := ClampOptions(maxOptions); len(ranked) > n {
		ranked = ranked[:n]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return Round{
		Scope:          scope,
		Options:        ranked,
		Summary:        summarize(scope, ranked),
		Recommendation: recommend(scope, ranked),
	}, nil
}

func summarize(scope Scope, ranked []RankedOption) string {
	if len(ranked) == 0 {
		return fmt.Sprintf("No %s options have been proposed yet.", scope)
	}
	leader := ranked[0]
	noun := "options"
	if len(ranked) == 1 {
		noun = "option"
	}
	return fmt.Sprintf("%d %s ranked for %s. %s leads with %d up / %d down.",
		len(ranked), noun, scope, leader.Label, leader.VotesUp, leader.VotesDown)
}

func recommend(scope Scope, ranked []RankedOption) string {
	switch {
	case len(ranked) == 0:
		return fmt.Sprintf("No options to decide on yet. Add %s and collect votes first.", scope)
	case len(ranked) > 1 && ranked[0].Score == ranked[1].Score:
		return fmt.Sprintf("Tie between %s and %s. Run another vote or let the trip owner decide.", ranked[0].Label, ranked[1].Label)
	}
	return fmt.Sprintf("Move forward with %s.", ranked[0].Label)
}
