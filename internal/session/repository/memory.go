package repository

import (
	"context"
	"sync"
	"time"

	"testprep-platform/backend/internal/session/domain"
)

// MemoryRepository is a mutex-guarded in-memory session store. Revoke and
// Rotate are check-and-set under the lock, giving the same exactly-one-winner
// guarantee as the Postgres conditional updates.
type MemoryRepository struct {
	mu     sync.Mutex
	byID   map[string]*domain.RefreshSession
	byHash map[string]string // token hash -> session id
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:   make(map[string]*domain.RefreshSession),
		byHash: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, s *domain.RefreshSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := cloneSession(s)
	r.byID[s.ID] = cp
	r.byHash[s.TokenHash] = s.ID
	return nil
}

func (r *MemoryRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byHash[tokenHash]; ok {
		return cloneSession(r.byID[id]), nil
	}
	return nil, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.RefreshSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok {
		return cloneSession(s), nil
	}
	return nil, nil
}

func (r *MemoryRepository) Revoke(ctx context.Context, id string, reason domain.RevokeReason) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok || s.RevokedAt != nil {
		return ErrAlreadyRevoked
	}
	now := time.Now().UTC()
	s.RevokedAt = &now
	s.RevokedReason = &reason
	return nil
}

func (r *MemoryRepository) RevokeAllForAccount(ctx context.Context, accountID string, reason domain.RevokeReason) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	var n int64
	for _, s := range r.byID {
		if s.AccountID == accountID && s.RevokedAt == nil {
			t := now
			rr := reason
			s.RevokedAt = &t
			s.RevokedReason = &rr
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) Rotate(ctx context.Context, oldID, newID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[oldID]
	if !ok || s.RevokedAt != nil {
		return ErrAlreadyRevoked
	}
	now := time.Now().UTC()
	reason := domain.ReasonRotated
	s.RevokedAt = &now
	s.RevokedReason = &reason
	s.ReplacedBy = &newID
	return nil
}

func (r *MemoryRepository) PurgeExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	var n int64
	for id, s := range r.byID {
		if now.After(s.ExpiresAt) {
			delete(r.byHash, s.TokenHash)
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) CountActiveForAccount(ctx context.Context, accountID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	var n int64
	for _, s := range r.byID {
		if s.AccountID == accountID && s.IsValid(now) {
			n++
		}
	}
	return n, nil
}

func cloneSession(s *domain.RefreshSession) *domain.RefreshSession {
	cp := *s
	if s.RevokedAt != nil {
		t := *s.RevokedAt
		cp.RevokedAt = &t
	}
	if s.RevokedReason != nil {
		rr := *s.RevokedReason
		cp.RevokedReason = &rr
	}
	if s.ReplacedBy != nil {
		id := *s.ReplacedBy
		cp.ReplacedBy = &id
	}
	return &cp
}
