package eventlogger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	metadataTripID = "trip_id"
	metadataUserID = "user_id"
)

type Event struct {
	ID        uuid.UUID         `json:"id,omitempty"`
	Type      string            `json:"event_type,omitempty"`
	Data      any               `json:"event_data,omitempty"`
	Metadata  map[string]string `json:"event_metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type EventOption func(*Event)

func WithType(eventType string) EventOption {
	return func(e *Event) {
		e.Type = eventType
	}
}

func WithData(data any) EventOption {
	return func(e *Event) {
		e.Data = data
	}
}

func WithMetadata(metadata map[string]string) EventOption {
	return func(e *Event) {
		for k, v := range metadata {
			e.Metadata[k] = v
		}
	}
}

// WithTrip tags the event with the trip it happened on.
func WithTrip(tripID uuid.UUID) EventOption {
	return func(e *Event) {
		e.Metadata[metadataTripID] = tripID.String()
	}
}

// WithUser tags the event with the acting user.
func WithUser(userID uuid.UUID) EventOption {
	return func(e *Event) {
		e.Metadata[metadataUserID] = userID.String()
	}
}

func NewEvent(opts ...EventOption) Event {
	e := Event{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Metadata:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func (e Event) TripID() (uuid.UUID, bool) {
	id, err := uuid.Parse(e.Metadata[metadataTripID])
	return id, err == nil
}

type EventLogger interface {
	Save(ctx context.Context, e Event) error
	GetByType(ctx context.Context, eventType string) ([]Event, error)
	GetByTrip(ctx context.Context, tripID uuid.UUID) ([]Event, error)
}

// Recorder accepts events without blocking the caller. Worker implements it.
type Recorder interface {
	Log(event Event)
}
