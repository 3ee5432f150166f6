package scenario

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// voteTally joins the up/down vote counts of one item type onto its table.
const voteTally = `LEFT JOIN (
                  SELECT item_id,
                         COUNT(*) FILTER (WHERE value > 0) AS up,
                         COUNT(*) FILTER (WHERE value < 0) AS down
                  FROM trip_votes
                  WHERE trip_id = $1 AND item_type = '%s'
                  GROUP BY item_id
              ) v ON v.item_id = t.id`

type optionQuery struct {
	itemType ItemType
	query    string
	scan     func(rows *sql.Rows, o *Option) error
}

var optionQueries = []optionQuery{
	{
		itemType: ItemDestination,
		query: `SELECT t.id, t.name, COALESCE(t.notes, ''), COALESCE(v.up, 0), COALESCE(v.down, 0), t.is_locked, t.est_cost_minor
              FROM trip_destinations t ` + fmt.Sprintf(voteTally, ItemDestination) + `
              WHERE t.trip_id = $1
              ORDER BY t.created_at, t.id`,
		scan: func(rows *sql.Rows, o *Option) error {
			var cost sql.NullInt64
			err := rows.Scan(&o.ID, &o.Label, &o.Details, &o.VotesUp, &o.VotesDown, &o.Locked, &cost)
			o.CostMinor = int64Ptr(cost)
			return err
		},
	},
	{
		itemType: ItemActivity,
		query: `SELECT t.id, t.title, COALESCE(t.notes, ''), COALESCE(v.up, 0), COALESCE(v.down, 0), t.cost_minor, t.duration_minutes
              FROM trip_activities t ` + fmt.Sprintf(voteTally, ItemActivity) + `
              WHERE t.trip_id = $1
              ORDER BY t.created_at, t.id`,
		scan: func(rows *sql.Rows, o *Option) error {
			var cost, duration sql.NullInt64
			err := rows.Scan(&o.ID, &o.Label, &o.Details, &o.VotesUp, &o.VotesDown, &cost, &duration)
			o.CostMinor = int64Ptr(cost)
			o.DurationMinutes = int64Ptr(duration)
			return err
		},
	},
	{
		itemType: ItemBooking,
		query: `SELECT t.id, t.title, COALESCE(t.provider, ''), COALESCE(v.up, 0), COALESCE(v.down, 0), t.status, t.total_cost_minor
              FROM trip_bookings t ` + fmt.Sprintf(voteTally, ItemBooking) + `
              WHERE t.trip_id = $1
              ORDER BY t.created_at, t.id`,
		scan: func(rows *sql.Rows, o *Option) error {
			var cost sql.NullInt64
			err := rows.Scan(&o.ID, &o.Label, &o.Details, &o.VotesUp, &o.VotesDown, &o.Status, &cost)
			o.CostMinor = int64Ptr(cost)
			return err
		},
	},
	{
		itemType: ItemPrep,
		query: `SELECT t.id, t.title, COALESCE(t.notes, ''), COALESCE(v.up, 0), COALESCE(v.down, 0), t.is_critical, t.is_done
              FROM trip_prep_items t ` + fmt.Sprintf(voteTally, ItemPrep) + `
              WHERE t.trip_id = $1
              ORDER BY t.created_at, t.id`,
		scan: func(rows *sql.Rows, o *Option) error {
			return rows.Scan(&o.ID, &o.Label, &o.Details, &o.VotesUp, &o.VotesDown, &o.Critical, &o.Done)
		},
	},
}

// LoadOptions returns every planning option of the trip with its vote tally,
// destinations first, then activities, bookings and prep items.
func (r *repository) LoadOptions(ctx context.Context, tripID uuid.UUID) ([]Option, error) {
	var options []Option
	for _, q := range optionQueries {
		loaded, err := r.loadOptions(ctx, tripID, q)
		if err != nil {
			return nil, fmt.Errorf("loading %s options: %w", q.itemType, err)
		}
		options = append(options, loaded...)
	}
	return options, nil
}

func (r *repository) loadOptions(ctx context.Context, tripID uuid.UUID, q optionQuery) ([]Option, error) {
	rows, err := r.db.QueryContext(ctx, q.query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []Option
	for rows.Next() {
		o := Option{ItemType: q.itemType}
		if err := q.scan(rows, &o); err != nil {
			return nil, err
		}
		options = append(options, o)
	}

	return options, rows.Err()
}

var optionTables = map[ItemType]string{
	ItemDestination: "trip_destinations",
	ItemActivity:    "trip_activities",
	ItemBooking:     "trip_bookings",
	ItemPrep:        "trip_prep_items",
}

func (r *repository) AddOption(ctx context.Context, tripID uuid.UUID, o Option) (Option, error) {
	var (
		query string
		args  []any
	)
	switch o.ItemType {
	case ItemDestination:
		query = `INSERT INTO trip_destinations (id, trip_id, name, notes, is_locked, est_cost_minor) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`
		args = []any{o.ID, tripID, o.Label, o.Details, o.Locked, nullInt64(o.CostMinor)}
	case ItemActivity:
		query = `INSERT INTO trip_activities (id, trip_id, title, notes, cost_minor, duration_minutes) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`
		args = []any{o.ID, tripID, o.Label, o.Details, nullInt64(o.CostMinor), nullInt64(o.DurationMinutes)}
	case ItemBooking:
		query = `INSERT INTO trip_bookings (id, trip_id, title, provider, status, total_cost_minor) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`
		args = []any{o.ID, tripID, o.Label, o.Details, o.Status, nullInt64(o.CostMinor)}
	case ItemPrep:
		query = `INSERT INTO trip_prep_items (id, trip_id, title, notes, is_critical, is_done) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`
		args = []any{o.ID, tripID, o.Label, o.Details, o.Critical, o.Done}
	default:
		return Option{}, fmt.Errorf("%w: unknown item type %q", ErrInvalidOption, o.ItemType)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return Option{}, fmt.Errorf("inserting %s option: %w", o.ItemType, err)
	}
	return o, nil
}

func (r *repository) Vote(ctx context.Context, tripID uuid.UUID, itemType ItemType, optionID, userID uuid.UUID, value int) error {
	table, ok := optionTables[itemType]
	if !ok {
		return fmt.Errorf("%w: unknown item type %q", ErrInvalidOption, itemType)
	}
	if value < -1 || value > 1 {
		return ErrInvalidVote
	}

	if value == 0 {
		query := `DELETE FROM trip_votes WHERE trip_id = $1 AND item_type = $2 AND item_id = $3 AND user_id = $4`
		_, err := r.db.ExecContext(ctx, query, tripID, itemType, optionID, userID)
		return err
	}

	// The option must belong to the trip; no row is written otherwise.
	query := `INSERT INTO trip_votes (trip_id, item_type, item_id, user_id, value, updated_at)
              SELECT $1::uuid, $2::text, $3::uuid, $4::uuid, $5::smallint, now()
              WHERE EXISTS (SELECT 1 FROM ` + table + ` WHERE id = $3 AND trip_id = $1)
              ON CONFLICT (item_type, item_id, user_id) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	res, err := r.db.ExecContext(ctx, query, tripID, itemType, optionID, userID, value)
	if err != nil {
		return fmt.Errorf("recording vote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOptionNotFound
	}
	return nil
}
