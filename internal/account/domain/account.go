package domain

import (
	"errors"
	"time"
)

// Account is the core identity record. Username and email are stored
// normalized (trimmed, lowercased) and are unique among non-deleted accounts.
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Active       bool
	Roles        []string // opaque role names; authorization modeling lives elsewhere
	Permissions  []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time // nil unless soft-deleted
	DeletedBy    *string    // id of the actor that soft-deleted the account
}

// IsDeleted reports whether the account has been soft-deleted. Deleted
// accounts are rejected from all authentication flows but are retained for
// audit and restore.
func (a *Account) IsDeleted() bool {
	return a.DeletedAt != nil
}

// SoftDelete marks the account deleted by the given actor.
func (a *Account) SoftDelete(actorID string, at time.Time) {
	a.DeletedAt = &at
	a.DeletedBy = &actorID
	a.UpdatedAt = at
}

// Restore clears the soft-delete markers.
func (a *Account) Restore(at time.Time) {
	a.DeletedAt = nil
	a.DeletedBy = nil
	a.UpdatedAt = at
}

// Deactivate disables authentication for the account without deleting it.
func (a *Account) Deactivate(at time.Time) {
	a.Active = false
	a.UpdatedAt = at
}

// Activate re-enables a deactivated account.
func (a *Account) Activate(at time.Time) {
	a.Active = true
	a.UpdatedAt = at
}

// Validate validates the account for persistence.
func (a *Account) Validate() error {
	if a.ID == "" {
		return errors.New("id is required")
	}
	if a.Username == "" {
		return errors.New("username is required")
	}
	if a.Email == "" {
		return errors.New("email is required")
	}
	if a.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}
