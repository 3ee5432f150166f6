// Package api exposes trips, expenses, scenarios and decision rounds over a
// JSON HTTP API.
package api

import (
	"net/http"
	"time"

	"github.com/Milbo-LLC/waybook-sub000/middleware"
	"github.com/Milbo-LLC/waybook-sub000/ratelimit"
	"github.com/Milbo-LLC/waybook-sub000/trip"
	chimiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

const regenerateScope = "scenario_regenerate"

type RouterConfig struct {
	Sessions       middleware.SessionLookup
	Roles          middleware.RoleResolver
	Limiter        *ratelimit.Limiter
	AllowedOrigins []string
}

func NewRouter(h *Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.AuthMiddleware(cfg.Sessions))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Post("/trips", h.CreateTrip)

		r.Route("/trips/{tripID}", func(r chi.Router) {
			viewer := middleware.RequireTripRole(cfg.Roles, trip.RoleViewer)
			editor := middleware.RequireTripRole(cfg.Roles, trip.RoleEditor)
			owner := middleware.RequireTripRole(cfg.Roles, trip.RoleOwner)

			r.With(viewer).Get("/", h.GetTrip)
			r.With(owner).Post("/members", h.AddMember)

			r.With(viewer).Get("/expenses", h.ListExpenses)
			r.With(editor).Post("/expenses", h.CreateExpense)
			r.With(viewer).Get("/settlement", h.GetSettlement)

			r.With(viewer).Get("/options", h.ListOptions)
			r.With(editor).Post("/options", h.CreateOption)
			r.With(editor).Put("/options/{itemType}/{optionID}/vote", h.Vote)

			r.With(viewer).Get("/scenarios", h.ListScenarios)
			r.With(editor, cfg.Limiter.Middleware(regenerateScope, rateLimitSubject)).
				Post("/scenarios/regenerate", h.RegenerateScenarios)
			r.With(editor).Patch("/scenarios/items/{itemID}", h.SetScenarioItemLocked)

			r.With(viewer).Post("/decision-rounds", h.RunDecisionRound)
		})
	})

	return r
}

// rateLimitSubject limits per user and trip.
func rateLimitSubject(r *http.Request) string {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		return ""
	}
	return userID.String() + ":" + chi.URLParam(r, middleware.TripIDParam)
}
