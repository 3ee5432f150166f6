package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Milbo-LLC/waybook-sub000/eventlogger"
	"github.com/Milbo-LLC/waybook-sub000/ledger"
	"github.com/Milbo-LLC/waybook-sub000/scenario"
	"github.com/Milbo-LLC/waybook-sub000/session"
	"github.com/Milbo-LLC/waybook-sub000/trip"
	"github.com/Milbo-LLC/waybook-sub000/user"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	users     user.Repository
	sessions  session.Repository
	trips     trip.Repository
	ledger    ledger.Repository
	scenarios *scenario.Service
	events    eventlogger.Recorder
}

type Dependencies struct {
	Users     user.Repository
	Sessions  session.Repository
	Trips     trip.Repository
	Ledger    ledger.Repository
	Scenarios *scenario.Service
	Events    eventlogger.Recorder
}

func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		users:     deps.Users,
		sessions:  deps.Sessions,
		trips:     deps.Trips,
		ledger:    deps.Ledger,
		scenarios: deps.Scenarios,
		events:    deps.Events,
	}
}

var errInvalidBody = errors.New("invalid request body")

// decodeJSON reads a JSON body into v. An empty body leaves v untouched when
// allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	return nil
}

func (h *Handlers) record(eventType string, tripID, userID uuid.UUID, data any) {
	opts := []eventlogger.EventOption{
		eventlogger.WithType(eventType),
		eventlogger.WithData(data),
	}
	if tripID != uuid.Nil {
		opts = append(opts, eventlogger.WithTrip(tripID))
	}
	if userID != uuid.Nil {
		opts = append(opts, eventlogger.WithUser(userID))
	}
	h.events.Log(eventlogger.NewEvent(opts...))
}
