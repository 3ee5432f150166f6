package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Milbo-LLC/waybook-sub000/trip"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const TripIDParam = "tripID"

// RoleResolver is the part of trip.Repository that access checks need.
type RoleResolver interface {
	MemberRole(ctx context.Context, tripID, userID uuid.UUID) (trip.Role, error)
}

// RequireTripRole lets the request through only when the session user holds
// at least min on the trip named by the tripID URL parameter. Non-members get
// 404 so trip ids can't be probed.
func RequireTripRole(resolver RoleResolver, min trip.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}

			tripID, err := uuid.Parse(chi.URLParam(r, TripIDParam))
			if err != nil {
				WriteError(w, http.StatusNotFound, "not_found", "trip not found")
				return
			}

			role, err := resolver.MemberRole(r.Context(), tripID, userID)
			if err != nil {
				if errors.Is(err, trip.ErrNotMember) {
					WriteError(w, http.StatusNotFound, "not_found", "trip not found")
					return
				}
				slog.Error("failed to resolve trip role", "error", err, "trip_id", tripID)
				WriteError(w, http.StatusInternalServerError, "internal", "internal server error")
				return
			}

			if !role.Allows(min) {
				WriteError(w, http.StatusForbidden, "forbidden", "requires "+string(min)+" access")
				return
			}

			ctx := context.WithValue(r.Context(), TripRoleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetTripRole(ctx context.Context) (trip.Role, bool) {
	role, ok := ctx.Value(TripRoleKey).(trip.Role)
	return role, ok
}

// TripID parses the tripID URL parameter. Routes behind RequireTripRole have
// already validated it.
func TripID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, TripIDParam))
}
