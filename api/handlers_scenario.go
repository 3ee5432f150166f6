package api

import (
	"net/http"

	"github.com/Milbo-LLC/waybook-sub000/middleware"
	"github.com/Milbo-LLC/waybook-sub000/scenario"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type regenerateRequest struct {
	Prompt string `json:"prompt"`
}

type scenariosResponse struct {
	Scenarios []scenario.Scenario `json:"scenarios"`
}

type setLockedRequest struct {
	IsLocked *bool `json:"is_locked"`
}

type optionsResponse struct {
	Options []scenario.Option `json:"options"`
}

type voteRequest struct {
	Value int `json:"value"`
}

type optionAddedEvent struct {
	OptionID uuid.UUID         `json:"option_id"`
	ItemType scenario.ItemType `json:"item_type"`
	Label    string            `json:"label"`
}

func (h *Handlers) ListScenarios(w http.ResponseWriter, r *http.Request) {
	tripID, _ := middleware.TripID(r)

	scenarios, err := h.scenarios.List(r.Context(), tripID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if scenarios == nil {
		scenarios = []scenario.Scenario{}
	}

	middleware.WriteJSON(w, http.StatusOK, scenariosResponse{Scenarios: scenarios})
}

func (h *Handlers) RegenerateScenarios(w http.ResponseWriter, r *http.Request) {
	tripID, _ := middleware.TripID(r)
	userID, _ := middleware.GetUserID(r.Context())

	var req regenerateRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}

	scenarios, err := h.scenarios.Regenerate(r.Context(), tripID, req.Prompt)
	if err != nil {
		writeError(w, r, err)
		return
	}

	counts := make(map[scenario.Type]int, len(scenarios))
	for _, s := range scenarios {
		counts[s.Type] = len(s.Items)
	}
	h.record(scenario.EventScenarioRegenerated, tripID, userID, scenario.RegeneratedEvent{
		RequestedBy: userID,
		ItemCounts:  counts,
		Prompted:    req.Prompt != "",
	})
	middleware.WriteJSON(w, http.StatusOK, scenariosResponse{Scenarios: scenarios})
}

func (h *Handlers) SetScenarioItemLocked(w http.ResponseWriter, r *http.Request) {
	tripID, _ := middleware.TripID(r)
	userID, _ := middleware.GetUserID(r.Context())

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, r, scenario.ErrItemNotFound)
		return
	}

	var req setLockedRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	if req.IsLocked == nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid_request", "is_locked is required")
		return
	}

	item, err := h.scenarios.SetItemLocked(r.Context(), tripID, itemID, *req.IsLocked)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.record(scenario.EventScenarioItemLocked, tripID, userID, scenario.ItemLockedEvent{
		RequestedBy: userID,
		ItemID:      item.ID,
		Locked:      item.IsLocked,
	})
	middleware.WriteJSON(w, http.StatusOK, item)
}

func (h *Handlers) ListOptions(w http.ResponseWriter, r *http.Request) {
	tripID, _ := middleware.TripID(r)

	options, err := h.scenarios.Options(r.Context(), tripID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if options == nil {
		options = []scenario.Option{}
	}

	middleware.WriteJSON(w, http.StatusOK, optionsResponse{Options: options})
}

func (h *Handlers) CreateOption(w http.ResponseWriter, r *http.Request) {
	tripID, _ := middleware.TripID(r)
	userID, _ := middleware.GetUserID(r.Context())

	var req scenario.Option
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	option, err := h.scenarios.AddOption(r.Context(), tripID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.record(scenario.EventOptionAdded, tripID, userID, optionAddedEvent{
		OptionID: option.ID,
		ItemType: option.ItemType,
		Label:    option.Label,
	})
	middleware.WriteJSON(w, http.StatusCreated, option)
}

func (h *Handlers) Vote(w http.ResponseWriter, r *http.Request) {
	tripID, _ := middleware.TripID(r)
	userID, _ := middleware.GetUserID(r.Context())

	optionID, err := uuid.Parse(chi.URLParam(r, "optionID"))
	if err != nil {
		writeError(w, r, scenario.ErrOptionNotFound)
		return
	}

	var req voteRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	itemType := scenario.ItemType(chi.URLParam(r, "itemType"))
	if err := h.scenarios.Vote(r.Context(), tripID, itemType, optionID, userID, req.Value); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
