package scenario

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, tripID uuid.UUID) ([]Scenario, error) {
	query := `SELECT id, trip_id, scenario_type, updated_at
              FROM trip_scenarios
              WHERE trip_id = $1
              ORDER BY CASE scenario_type WHEN 'balanced' THEN 0 WHEN 'budget' THEN 1 ELSE 2 END`

	rows, err := r.db.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scenarios []Scenario
	for rows.Next() {
		var s Scenario
		if err := rows.Scan(&s.ID, &s.TripID, &s.Type, &s.UpdatedAt); err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range scenarios {
		items, err := loadItems(ctx, r.db, scenarios[i].ID)
		if err != nil {
			return nil, err
		}
		scenarios[i].Items = items
	}

	return scenarios, nil
}

func (r *repository) Update(ctx context.Context, tripID uuid.UUID, t Type, fn func(previous *Scenario) ([]Item, error)) (*Scenario, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	insertScenario := `INSERT INTO trip_scenarios (id, trip_id, scenario_type, updated_at)
                       VALUES ($1, $2, $3, $4)
                       ON CONFLICT (trip_id, scenario_type) DO NOTHING`
	res, err := tx.ExecContext(ctx, insertScenario, uuid.New(), tripID, t, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	created, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	// the row lock serialises concurrent regenerations of the same scenario
	current := Scenario{TripID: tripID, Type: t}
	lockScenario := `SELECT id FROM trip_scenarios WHERE trip_id = $1 AND scenario_type = $2 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, lockScenario, tripID, t).Scan(&current.ID); err != nil {
		return nil, err
	}

	var previous *Scenario
	if created == 0 {
		items, err := loadItems(ctx, tx, current.ID)
		if err != nil {
			return nil, err
		}
		previous = &Scenario{ID: current.ID, TripID: tripID, Type: t, Items: items}
	}

	items, err := fn(previous)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM trip_scenario_items WHERE scenario_id = $1`, current.ID); err != nil {
		return nil, err
	}

	insertItem := `INSERT INTO trip_scenario_items (id, scenario_id, item_type, source_id, label, details, score, cost_hint, duration_hint, is_locked, order_index)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		item := items[i]
		_, err = tx.ExecContext(
			ctx,
			insertItem,
			item.ID,
			current.ID,
			item.ItemType,
			uuid.NullUUID{UUID: derefUUID(item.SourceID), Valid: item.SourceID != nil},
			item.Label,
			item.Details,
			item.Score,
			nullInt64(item.CostHint),
			nullInt64(item.DurationHint),
			item.IsLocked,
			item.OrderIndex,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting scenario item: %w", err)
		}
	}

	current.UpdatedAt = time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE trip_scenarios SET updated_at = $1 WHERE id = $2`, current.UpdatedAt, current.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	current.Items = items
	return &current, nil
}

func (r *repository) SetItemLocked(ctx context.Context, tripID, itemID uuid.UUID, locked bool) (*Item, error) {
	query := `UPDATE trip_scenario_items si
              SET is_locked = $1
              FROM trip_scenarios s
              WHERE si.scenario_id = s.id AND s.trip_id = $2 AND si.id = $3
              RETURNING si.id, si.item_type, si.source_id, si.label, si.details, si.score, si.cost_hint, si.duration_hint, si.is_locked, si.order_index`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, locked, tripID, itemID))
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func loadItems(ctx context.Context, q querier, scenarioID uuid.UUID) ([]Item, error) {
	query := `SELECT id, item_type, source_id, label, details, score, cost_hint, duration_hint, is_locked, order_index
              FROM trip_scenario_items
              WHERE scenario_id = $1
              ORDER BY order_index`

	rows, err := q.QueryContext(ctx, query, scenarioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func scanItem(row rowScanner) (Item, error) {
	var (
		item           Item
		sourceID       uuid.NullUUID
		cost, duration sql.NullInt64
	)
	err := row.Scan(
		&item.ID,
		&item.ItemType,
		&sourceID,
		&item.Label,
		&item.Details,
		&item.Score,
		&cost,
		&duration,
		&item.IsLocked,
		&item.OrderIndex,
	)
	if err != nil {
		return Item{}, err
	}
	if sourceID.Valid {
		id := sourceID.UUID
		item.SourceID = &id
	}
	item.CostHint = int64Ptr(cost)
	item.DurationHint = int64Ptr(duration)
	return item, nil
}

func derefUUID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
