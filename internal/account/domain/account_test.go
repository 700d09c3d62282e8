package domain

import (
	"testing"
	"time"
)

func validAccount() *Account {
	now := time.Now().UTC()
	return &Account{
		ID:           "a1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestAccount_Validate(t *testing.T) {
	if err := validAccount().Validate(); err != nil {
		t.Errorf("valid account should validate, got %v", err)
	}
	cases := []struct {
		name   string
		mutate func(*Account)
	}{
		{"missing id", func(a *Account) { a.ID = "" }},
		{"missing username", func(a *Account) { a.Username = "" }},
		{"missing email", func(a *Account) { a.Email = "" }},
		{"missing password hash", func(a *Account) { a.PasswordHash = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := validAccount()
			tc.mutate(a)
			if err := a.Validate(); err == nil {
				t.Error("want validation error")
			}
		})
	}
}

func TestAccount_SoftDeleteAndRestore(t *testing.T) {
	a := validAccount()
	at := time.Now().UTC()

	a.SoftDelete("admin-1", at)
	if !a.IsDeleted() {
		t.Fatal("account should be deleted")
	}
	if a.DeletedBy == nil || *a.DeletedBy != "admin-1" {
		t.Errorf("DeletedBy = %v, want admin-1", a.DeletedBy)
	}
	if !a.UpdatedAt.Equal(at) {
		t.Error("UpdatedAt should advance on soft delete")
	}

	a.Restore(at.Add(time.Minute))
	if a.IsDeleted() || a.DeletedAt != nil || a.DeletedBy != nil {
		t.Error("restore should clear soft-delete markers")
	}
}

func TestAccount_DeactivateAndActivate(t *testing.T) {
	a := validAccount()
	at := time.Now().UTC()

	a.Deactivate(at)
	if a.Active {
		t.Error("account should be inactive")
	}
	a.Activate(at.Add(time.Minute))
	if !a.Active {
		t.Error("account should be active again")
	}
}
