package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
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

// Create opens a session for userID. Only the token digest is stored; the raw
// token is returned once, for the cookie.
func (r *repository) Create(ctx context.Context, userID uuid.UUID) (*Session, error) {
	token, err := generateSecureToken()
	if err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}

	now := time.Now().UTC()
	s := &Session{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(sessionDuration),
		CreatedAt: now,
	}

	query := `
        INSERT INTO sessions (id, user_id, token_hash, expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	_, err = r.db.ExecContext(ctx, query, s.ID, s.UserID, hashToken(token), s.ExpiresAt, s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}

	return s, nil
}

// GetByToken resolves a cookie token to its session, rejecting unknown and
// expired ones.
func (r *repository) GetByToken(ctx context.Context, token string) (*Session, error) {
	query := `
        SELECT id, user_id, expires_at, created_at
        FROM sessions
        WHERE token_hash = $1
    `

	s := Session{Token: token}
	err := r.db.QueryRowContext(ctx, query, hashToken(token)).Scan(
		&s.ID,
		&s.UserID,
		&s.ExpiresAt,
		&s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("selecting session: %w", err)
	}

	if s.Expired(time.Now()) {
		return nil, ErrExpiredSession
	}

	return &s, nil
}

func (r *repository) Delete(ctx context.Context, token string) error {
	_, err := r.exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, hashToken(token))
	return err
}

func (r *repository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	_, err := r.exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

// DeleteExpired purges sessions past their expiry and reports how many went.
func (r *repository) DeleteExpired(ctx context.Context) (int64, error) {
	return r.exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, time.Now().UTC())
}

func (r *repository) exec(ctx context.Context, query string, arg any) (int64, error) {
	result, err := r.db.ExecContext(ctx, query, arg)
	if err != nil {
		return 0, fmt.Errorf("deleting sessions: %w", err)
	}
	return result.RowsAffected()
}

func generateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
