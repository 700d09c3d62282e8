package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"testprep-platform/backend/internal/account/domain"
)

const accountColumns = `id, username, email, password_hash, active, roles, permissions, created_at, updated_at, deleted_at, deleted_by`

type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns an account repository backed by the given pool.
// The pool is owned by the caller.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create persists the account. Unique violations on the partial indexes over
// non-deleted rows are mapped to ErrDuplicateEmail / ErrDuplicateUsername.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.Username, a.Email, a.PasswordHash, a.Active,
		a.Roles, a.Permissions, a.CreatedAt, a.UpdatedAt, a.DeletedAt, a.DeletedBy,
	)
	if err != nil {
		if dup := classifyUniqueViolation(err); dup != nil {
			return dup
		}
		return err
	}
	return nil
}

// GetByID returns the account for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetByEmail returns the account for the normalized email. A live account
// shadows soft-deleted accounts that held the same email before.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.getOne(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1
		 ORDER BY (deleted_at IS NULL) DESC, created_at DESC LIMIT 1`, email)
}

// GetByUsername returns the account for the normalized username, live first.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.getOne(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = $1
		 ORDER BY (deleted_at IS NULL) DESC, created_at DESC LIMIT 1`, username)
}

// Update persists the account's mutable fields.
func (r *PostgresRepository) Update(ctx context.Context, a *domain.Account) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE accounts
		 SET username = $2, email = $3, password_hash = $4, active = $5,
		     roles = $6, permissions = $7, updated_at = $8, deleted_at = $9, deleted_by = $10
		 WHERE id = $1`,
		a.ID, a.Username, a.Email, a.PasswordHash, a.Active,
		a.Roles, a.Permissions, a.UpdatedAt, a.DeletedAt, a.DeletedBy,
	)
	if err != nil {
		if dup := classifyUniqueViolation(err); dup != nil {
			return dup
		}
		return err
	}
	return nil
}

// SoftDelete marks the account deleted by actorID. No-op if already deleted.
func (r *PostgresRepository) SoftDelete(ctx context.Context, id, actorID string) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`UPDATE accounts SET deleted_at = $2, deleted_by = $3, updated_at = $2
		 WHERE id = $1 AND deleted_at IS NULL`,
		id, now, actorID,
	)
	return err
}

// Restore clears the soft-delete markers.
func (r *PostgresRepository) Restore(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE accounts SET deleted_at = NULL, deleted_by = NULL, updated_at = $2
		 WHERE id = $1`,
		id, time.Now().UTC(),
	)
	return err
}

// EmailExists reports whether a non-deleted account holds the email.
func (r *PostgresRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1 AND deleted_at IS NULL)`,
		email,
	).Scan(&exists)
	return exists, err
}

// UsernameExists reports whether a non-deleted account holds the username.
func (r *PostgresRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1 AND deleted_at IS NULL)`,
		username,
	).Scan(&exists)
	return exists, err
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Account, error) {
	var a domain.Account
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.Active,
		&a.Roles, &a.Permissions, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt, &a.DeletedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// classifyUniqueViolation maps a Postgres unique-violation (23505) on the
// account indexes to the matching duplicate sentinel, or nil for other errors.
func classifyUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "email"):
		return ErrDuplicateEmail
	case strings.Contains(pgErr.ConstraintName, "username"):
		return ErrDuplicateUsername
	default:
		return nil
	}
}
