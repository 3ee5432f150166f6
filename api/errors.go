package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Milbo-LLC/waybook-sub000/decision"
	"github.com/Milbo-LLC/waybook-sub000/ledger"
	"github.com/Milbo-LLC/waybook-sub000/middleware"
	"github.com/Milbo-LLC/waybook-sub000/scenario"
	"github.com/Milbo-LLC/waybook-sub000/trip"
	"github.com/Milbo-LLC/waybook-sub000/user"
)

type errorMapping struct {
	targets []error
	status  int
	code    string
}

var errorMappings = []errorMapping{
	{[]error{ledger.ErrInvalidAmount}, http.StatusBadRequest, "invalid_amount"},
	{[]error{ledger.ErrInvalidSplit, ledger.ErrInvalidMethod}, http.StatusBadRequest, "invalid_split"},
	{[]error{scenario.ErrCandidateDedupCollision}, http.StatusConflict, "candidate_dedup_collision"},
	{[]error{decision.ErrInvalidScope}, http.StatusBadRequest, "invalid_scope"},
	{[]error{
		errInvalidBody,
		ledger.ErrEmptyDescription, ledger.ErrEmptyCurrency, ledger.ErrNoParticipants,
		trip.ErrEmptyName, trip.ErrEmptyCurrency, trip.ErrInvalidRole,
		user.ErrInvalidEmail, user.ErrBlankPassword,
		scenario.ErrInvalidOption, scenario.ErrInvalidVote, scenario.ErrUnknownType,
	}, http.StatusBadRequest, "invalid_request"},
	{[]error{user.ErrInvalidCredentials}, http.StatusUnauthorized, "unauthorized"},
	{[]error{
		trip.ErrNotFound, trip.ErrNotMember, user.ErrNotFound,
		scenario.ErrItemNotFound, scenario.ErrOptionNotFound,
	}, http.StatusNotFound, "not_found"},
	{[]error{user.ErrEmailExists, trip.ErrMemberExists}, http.StatusConflict, "conflict"},
}

// writeError maps err onto a status and error code. Unmapped errors are
// logged and reported as 500 without their message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		for _, target := range m.targets {
			if errors.Is(err, target) {
				middleware.WriteError(w, m.status, m.code, err.Error())
				return
			}
		}
	}

	slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
	middleware.WriteError(w, http.StatusInternalServerError, "internal", "internal server error")
}
