package eventlogger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type sqlEventLogger struct {
	db *sql.DB
}

func NewSqlEventLogger(db *sql.DB) *sqlEventLogger {
	return &sqlEventLogger{
		db: db,
	}
}

func (el *sqlEventLogger) Save(ctx context.Context, e Event) error {
	jsonData, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("encoding event data: %w", err)
	}
	jsonMetadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("encoding event metadata: %w", err)
	}
	statement := `INSERT INTO events (id, event_type, event_data, event_metadata, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err = el.db.ExecContext(ctx, statement, e.ID, e.Type, jsonData, jsonMetadata, e.CreatedAt)
	return err
}

func (el *sqlEventLogger) GetByType(ctx context.Context, eventType string) ([]Event, error) {
	query := `SELECT id, event_type, event_data, event_metadata, created_at FROM events
              WHERE event_type = $1 ORDER BY created_at ASC`
	return el.query(ctx, query, eventType)
}

func (el *sqlEventLogger) GetByTrip(ctx context.Context, tripID uuid.UUID) ([]Event, error) {
	query := `SELECT id, event_type, event_data, event_metadata, created_at FROM events
              WHERE event_metadata->>'trip_id' = $1 ORDER BY created_at ASC`
	return el.query(ctx, query, tripID.String())
}

func (el *sqlEventLogger) query(ctx context.Context, query string, arg any) ([]Event, error) {
	result, err := el.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	events := make([]Event, 0)
	for result.Next() {
		var event Event
		var jsonData, jsonMetadata []byte
		if err := result.Scan(&event.ID, &event.Type, &jsonData, &jsonMetadata, &event.CreatedAt); err != nil {
			return events, err
		}
		event.Data = json.RawMessage(jsonData)
		if err := json.Unmarshal(jsonMetadata, &event.Metadata); err != nil {
			return events, fmt.Errorf("decoding metadata of event %s: %w", event.ID, err)
		}

		events = append(events, event)
	}

	return events, result.Err()
}
