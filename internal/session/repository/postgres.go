package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"testprep-platform/backend/internal/session/domain"
)

const sessionColumns = `id, account_id, token_hash, expires_at, created_at, revoked_at, revoked_reason, replaced_by, user_agent, ip_address`

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a session repository backed by the given pool.
// The pool is owned by the caller.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create persists the session. token_hash carries a unique constraint across
// all rows, live or historical.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.RefreshSession) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO refresh_sessions (`+sessionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.AccountID, s.TokenHash, s.ExpiresAt, s.CreatedAt,
		s.RevokedAt, s.RevokedReason, s.ReplacedBy, s.UserAgent, s.IPAddress,
	)
	return err
}

// GetByTokenHash returns the session for the hash, or nil if not found.
func (r *PostgresRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshSession, error) {
	return r.getOne(ctx, `SELECT `+sessionColumns+` FROM refresh_sessions WHERE token_hash = $1`, tokenHash)
}

// GetByID returns the session for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.RefreshSession, error) {
	return r.getOne(ctx, `SELECT `+sessionColumns+` FROM refresh_sessions WHERE id = $1`, id)
}

// Revoke marks the session revoked with the given reason. The update is
// conditional on the session being unrevoked; a session that was already
// revoked (or never existed) yields ErrAlreadyRevoked.
func (r *PostgresRepository) Revoke(ctx context.Context, id string, reason domain.RevokeReason) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE refresh_sessions SET revoked_at = $2, revoked_reason = $3
		 WHERE id = $1 AND revoked_at IS NULL`,
		id, time.Now().UTC(), string(reason),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyRevoked
	}
	return nil
}

// RevokeAllForAccount revokes every unrevoked session of the account.
func (r *PostgresRepository) RevokeAllForAccount(ctx context.Context, accountID string, reason domain.RevokeReason) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE refresh_sessions SET revoked_at = $2, revoked_reason = $3
		 WHERE account_id = $1 AND revoked_at IS NULL`,
		accountID, time.Now().UTC(), string(reason),
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Rotate revokes the old session and links it to its replacement in a single
// conditional update, so two refresh calls racing on the same session cannot
// both succeed.
func (r *PostgresRepository) Rotate(ctx context.Context, oldID, newID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE refresh_sessions
		 SET revoked_at = $3, revoked_reason = $4, replaced_by = $2
		 WHERE id = $1 AND revoked_at IS NULL`,
		oldID, newID, time.Now().UTC(), string(domain.ReasonRotated),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyRevoked
	}
	return nil
}

// PurgeExpired deletes sessions past their expiry.
func (r *PostgresRepository) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_sessions WHERE expires_at < $1`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CountActiveForAccount counts the account's currently valid sessions.
func (r *PostgresRepository) CountActiveForAccount(ctx context.Context, accountID string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM refresh_sessions
		 WHERE account_id = $1 AND revoked_at IS NULL AND expires_at > $2`,
		accountID, time.Now().UTC(),
	).Scan(&n)
	return n, err
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*domain.RefreshSession, error) {
	var (
		s      domain.RefreshSession
		reason *string
	)
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&s.ID, &s.AccountID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt,
		&s.RevokedAt, &reason, &s.ReplacedBy, &s.UserAgent, &s.IPAddress,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if reason != nil {
		rr := domain.RevokeReason(*reason)
		s.RevokedReason = &rr
	}
	return &s, nil
}
