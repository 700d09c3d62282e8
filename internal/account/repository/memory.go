package repository

import (
	"context"
	"sync"
	"time"

	"testprep-platform/backend/internal/account/domain"
)

// MemoryRepository is a mutex-guarded in-memory account store with the same
// uniqueness semantics as the Postgres implementation. Used as the reference
// implementation in tests and tooling.
type MemoryRepository struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account // by id
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[string]*domain.Account)}
}

func (r *MemoryRepository) Create(ctx context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.IsDeleted() {
			continue
		}
		if existing.Email == a.Email {
			return ErrDuplicateEmail
		}
		if existing.Username == a.Username {
			return ErrDuplicateUsername
		}
	}
	cp := cloneAccount(a)
	r.accounts[a.ID] = cp
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		return cloneAccount(a), nil
	}
	return nil, nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findBy(func(a *domain.Account) bool { return a.Email == email }), nil
}

func (r *MemoryRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findBy(func(a *domain.Account) bool { return a.Username == username }), nil
}

func (r *MemoryRepository) Update(ctx context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.accounts {
		if id == a.ID || existing.IsDeleted() {
			continue
		}
		if existing.Email == a.Email {
			return ErrDuplicateEmail
		}
		if existing.Username == a.Username {
			return ErrDuplicateUsername
		}
	}
	r.accounts[a.ID] = cloneAccount(a)
	return nil
}

func (r *MemoryRepository) SoftDelete(ctx context.Context, id, actorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok && !a.IsDeleted() {
		a.SoftDelete(actorID, time.Now().UTC())
	}
	return nil
}

func (r *MemoryRepository) Restore(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok && a.IsDeleted() {
		a.Restore(time.Now().UTC())
	}
	return nil
}

func (r *MemoryRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if !a.IsDeleted() && a.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if !a.IsDeleted() && a.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// findBy returns a live match if one exists, otherwise any deleted match.
// Callers hold the lock.
func (r *MemoryRepository) findBy(match func(*domain.Account) bool) *domain.Account {
	var deleted *domain.Account
	for _, a := range r.accounts {
		if !match(a) {
			continue
		}
		if !a.IsDeleted() {
			return cloneAccount(a)
		}
		deleted = a
	}
	if deleted != nil {
		return cloneAccount(deleted)
	}
	return nil
}

func cloneAccount(a *domain.Account) *domain.Account {
	cp := *a
	cp.Roles = append([]string(nil), a.Roles...)
	cp.Permissions = append([]string(nil), a.Permissions...)
	if a.DeletedAt != nil {
		t := *a.DeletedAt
		cp.DeletedAt = &t
	}
	if a.DeletedBy != nil {
		s := *a.DeletedBy
		cp.DeletedBy = &s
	}
	return &cp
}
