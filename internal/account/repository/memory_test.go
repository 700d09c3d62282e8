package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"testprep-platform/backend/internal/account/domain"
)

func newAccount(id, username, email string) *domain.Account {
	now := time.Now().UTC()
	return &domain.Account{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "hash-" + id,
		Active:       true,
		Roles:        []string{"user"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestMemoryRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	if err := r.Create(ctx, newAccount("a1", "alice", "alice@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := r.GetByID(ctx, "a1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Username != "alice" {
		t.Fatalf("GetByID = %+v", got)
	}

	got, err = r.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got == nil || got.ID != "a1" {
		t.Fatalf("GetByEmail = %+v", got)
	}

	got, err = r.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if got == nil || got.ID != "a1" {
		t.Fatalf("GetByUsername = %+v", got)
	}
}

func TestMemoryRepository_AbsentIsNilNil(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	got, err := r.GetByID(ctx, "missing")
	if err != nil || got != nil {
		t.Errorf("GetByID absent = (%v, %v), want (nil, nil)", got, err)
	}
	got, err = r.GetByEmail(ctx, "missing@example.com")
	if err != nil || got != nil {
		t.Errorf("GetByEmail absent = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestMemoryRepository_DuplicateConstraints(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	if err := r.Create(ctx, newAccount("a1", "alice", "alice@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.Create(ctx, newAccount("a2", "alice2", "alice@example.com")); !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("duplicate email: want ErrDuplicateEmail, got %v", err)
	}
	if err := r.Create(ctx, newAccount("a3", "alice", "alice2@example.com")); !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("duplicate username: want ErrDuplicateUsername, got %v", err)
	}
}

func TestMemoryRepository_SoftDeleteFreesIdentifiers(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	if err := r.Create(ctx, newAccount("a1", "alice", "alice@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.SoftDelete(ctx, "a1", "admin-1"); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	exists, err := r.EmailExists(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("EmailExists: %v", err)
	}
	if exists {
		t.Error("soft-deleted account should not hold the email")
	}

	// The identifiers are reusable by a new live account.
	if err := r.Create(ctx, newAccount("a2", "alice", "alice@example.com")); err != nil {
		t.Fatalf("Create after soft delete: %v", err)
	}

	// Lookups prefer the live account over the deleted one.
	got, err := r.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got == nil || got.ID != "a2" {
		t.Errorf("GetByEmail should return live account, got %+v", got)
	}

	deleted, _ := r.GetByID(ctx, "a1")
	if deleted == nil || !deleted.IsDeleted() {
		t.Fatal("deleted account should remain retrievable by id")
	}
	if deleted.DeletedBy == nil || *deleted.DeletedBy != "admin-1" {
		t.Errorf("DeletedBy = %v, want admin-1", deleted.DeletedBy)
	}
}

func TestMemoryRepository_Restore(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	if err := r.Create(ctx, newAccount("a1", "alice", "alice@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.SoftDelete(ctx, "a1", "admin-1"); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if err := r.Restore(ctx, "a1"); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, _ := r.GetByID(ctx, "a1")
	if got.IsDeleted() {
		t.Error("restored account should not be deleted")
	}
	if got.DeletedBy != nil {
		t.Error("DeletedBy should be cleared on restore")
	}
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	if err := r.Create(ctx, newAccount("a1", "alice", "alice@example.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, _ := r.GetByID(ctx, "a1")
	got.Username = "mutated"
	got.Roles[0] = "mutated"

	again, _ := r.GetByID(ctx, "a1")
	if again.Username != "alice" || again.Roles[0] != "user" {
		t.Error("mutating a returned account should not affect the store")
	}
}
