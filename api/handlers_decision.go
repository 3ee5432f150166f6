package api

import (
	"fmt"
	"net/http"

	"github.com/Milbo-LLC/waybook-sub000/decision"
	"github.com/Milbo-LLC/waybook-sub000/middleware"
	"github.com/Milbo-LLC/waybook-sub000/scenario"
	"github.com/google/uuid"
)

type decisionRoundRequest struct {
	Scope      decision.Scope `json:"scope"`
	MaxOptions int            `json:"max_options"`
}

type roundRanEvent struct {
	RequestedBy uuid.UUID      `json:"requested_by"`
	Scope       decision.Scope `json:"scope"`
	OptionCount int            `json:"option_count"`
	LeaderID    *uuid.UUID     `json:"leader_id,omitempty"`
}

// scopeItems lists which planning option types each decision scope covers.
var scopeItems = map[decision.Scope][]scenario.ItemType{
	decision.ScopeDestinations: {scenario.ItemDestination},
	decision.ScopeActivities:   {scenario.ItemActivity},
	decision.ScopePlanning:     {scenario.ItemBooking, scenario.ItemPrep},
}

func (h *Handlers) RunDecisionRound(w http.ResponseWriter, r *http.Request) {
	tripID, _ := middleware.TripID(r)
	userID, _ := middleware.GetUserID(r.Context())

	var req decisionRoundRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	if !req.Scope.Valid() {
		writeError(w, r, fmt.Errorf("%w: %q", decision.ErrInvalidScope, req.Scope))
		return
	}

	options, err := h.scenarios.Options(r.Context(), tripID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	round, err := decision.Run(req.Scope, decisionOptions(req.Scope, options), req.MaxOptions)
	if err != nil {
		writeError(w, r, err)
		return
	}

	event := roundRanEvent{RequestedBy: userID, Scope: round.Scope, OptionCount: len(round.Options)}
	if len(round.Options) > 0 {
		event.LeaderID = &round.Options[0].ID
	}
	h.record(decision.EventRoundRan, tripID, userID, event)
	middleware.WriteJSON(w, http.StatusOK, round)
}

// decisionOptions picks the options of scope, skipping cancelled bookings and
// finished prep tasks, in storage order.
func decisionOptions(scope decision.Scope, options []scenario.Option) []decision.Option {
	wanted := make(map[scenario.ItemType]bool)
	for _, it := range scopeItems[scope] {
		wanted[it] = true
	}

	out := make([]decision.Option, 0, len(options))
	for _, o := range options {
		if !wanted[o.ItemType] || o.Status == scenario.BookingCancelled || o.Done {
			continue
		}
		out = append(out, decision.Option{
			ID:        o.ID,
			Label:     o.Label,
			VotesUp:   o.VotesUp,
			VotesDown: o.VotesDown,
			Bonus:     o.Bonus(),
		})
	}
	return out
}
