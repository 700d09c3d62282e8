package repository

import (
	"context"
	"errors"

	"testprep-platform/backend/internal/session/domain"
)

// ErrAlreadyRevoked is returned by the conditional mutations (Revoke, Rotate)
// when the target session was already revoked or does not exist. Exactly one
// of two racing Rotate calls on the same session receives nil; the other
// receives this error.
var ErrAlreadyRevoked = errors.New("refresh session already revoked")

// Repository defines persistence for refresh sessions. Lookups return
// (nil, nil) for the absent case; errors are reserved for store failures.
// Revoke and Rotate must be atomic conditional updates (SQL
// "WHERE revoked_at IS NULL" or an equivalent check-and-set).
type Repository interface {
	Create(ctx context.Context, s *domain.RefreshSession) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshSession, error)
	GetByID(ctx context.Context, id string) (*domain.RefreshSession, error)
	// Revoke marks the session revoked with the given reason, only if it is
	// not revoked yet.
	Revoke(ctx context.Context, id string, reason domain.RevokeReason) error
	// RevokeAllForAccount revokes every unrevoked session of the account and
	// returns how many were revoked. Idempotent.
	RevokeAllForAccount(ctx context.Context, accountID string, reason domain.RevokeReason) (int64, error)
	// Rotate revokes the old session with reason "rotated" and links it to its
	// replacement, as a single conditional update.
	Rotate(ctx context.Context, oldID, newID string) error
	// PurgeExpired deletes sessions past their expiry and returns how many
	// rows were removed. Advisory housekeeping; expired sessions are already
	// rejected on lookup.
	PurgeExpired(ctx context.Context) (int64, error)
	CountActiveForAccount(ctx context.Context, accountID string) (int64, error)
}
