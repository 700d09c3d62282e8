package repository

import (
	"context"
	"errors"

	"testprep-platform/backend/internal/account/domain"
)

// Duplicate-identifier sentinels. The store's unique constraint is the
// correctness backstop against registration races; pre-checks in the service
// only save hashing work.
var (
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")
)

// Repository defines persistence for accounts. Lookups return (nil, nil) for
// the absent case; errors are reserved for store failures.
type Repository interface {
	Create(ctx context.Context, a *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetByEmail returns the account for the normalized email. When both a
	// live and soft-deleted account match, the live one wins.
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	Update(ctx context.Context, a *domain.Account) error
	// SoftDelete marks the account deleted by actorID. No-op if already deleted.
	SoftDelete(ctx context.Context, id, actorID string) error
	Restore(ctx context.Context, id string) error
	// EmailExists reports whether a non-deleted account holds the email.
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}
