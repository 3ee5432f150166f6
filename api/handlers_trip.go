package api

import (
	"net/http"

	"github.com/Milbo-LLC/waybook-sub000/middleware"
	"github.com/Milbo-LLC/waybook-sub000/trip"
	"github.com/google/uuid"
)

type createTripRequest struct {
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency"`
}

type tripResponse struct {
	trip.Trip
	Role         trip.Role   `json:"role"`
	Participants []uuid.UUID `json:"participants"`
}

type addMemberRequest struct {
	Email string    `json:"email"`
	Role  trip.Role `json:"role"`
}

func (h *Handlers) CreateTrip(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req createTripRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}

	t, err := trip.NewTrip(req.Name, req.BaseCurrency, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.trips.Create(r.Context(), t); err != nil {
		writeError(w, r, err)
		return
	}

	h.record(trip.EventTripCreated, t.ID, userID, t)
	middleware.WriteJSON(w, http.StatusCreated, tripResponse{
		Trip:         t,
		Role:         trip.RoleOwner,
		Participants: []uuid.UUID{userID},
	})
}

func (h *Handlers) GetTrip(w http.ResponseWriter, r *http.Request) {
	tripID, _ := middleware.TripID(r)
	role, _ := middleware.GetTripRole(r.Context())

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

	middleware.WriteJSON(w, http.StatusOK, tripResponse{Trip: *t, Role: role, Participants: participants})
}

func (h *Handlers) AddMember(w http.ResponseWriter, r *http.Request) {
	tripID, _ := middleware.TripID(r)

	var req addMemberRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Role == "" {
		req.Role = trip.RoleViewer
	}

	invitee, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	member, err := trip.NewMember(tripID, invitee.ID, req.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.trips.AddMember(r.Context(), member); err != nil {
		writeError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, member)
}
