package trip

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, t Trip) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertTrip := `INSERT INTO trips (id, name, base_currency, owner_id, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err = tx.ExecContext(ctx, insertTrip, t.ID, t.Name, t.BaseCurrency, t.OwnerID, t.CreatedAt)
	if err != nil {
		return err
	}

	insertOwner := `INSERT INTO trip_members (trip_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4)`
	_, err = tx.ExecContext(ctx, insertOwner, t.ID, t.OwnerID, RoleOwner, t.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) GetByID(ctx context.Context, tripID uuid.UUID) (*Trip, error) {
	query := `SELECT id, name, base_currency, owner_id, created_at FROM trips WHERE id = $1`

	var t Trip
	err := r.db.QueryRowContext(ctx, query, tripID).Scan(
		&t.ID,
		&t.Name,
		&t.BaseCurrency,
		&t.OwnerID,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &t, nil
}

func (r *repository) MemberRole(ctx context.Context, tripID, userID uuid.UUID) (Role, error) {
	query := `SELECT role FROM trip_members WHERE trip_id = $1 AND user_id = $2`

	var role Role
	err := r.db.QueryRowContext(ctx, query, tripID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotMember
		}
		return "", err
	}

	return role, nil
}

// ParticipantIDs lists the owner first, then members in the order they joined.
func (r *repository) ParticipantIDs(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT user_id FROM trip_members
              WHERE trip_id = $1
              ORDER BY role = 'owner' DESC, joined_at ASC, user_id ASC`

	rows, err := r.db.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *repository) AddMember(ctx context.Context, m Member) error {
	query := `INSERT INTO trip_members (trip_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, m.TripID, m.UserID, m.Role, m.JoinedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrMemberExists
		}
		return fmt.Errorf("inserting trip member: %w", err)
	}
	return nil
}
