package domain

import "time"

// RevokeReason tags why a session was invalidated. Retained for audit even
// though the session itself becomes permanently unusable.
type RevokeReason string

const (
	ReasonLogout             RevokeReason = "logout"
	ReasonLogoutAll          RevokeReason = "logout_all"
	ReasonRotated            RevokeReason = "rotated"
	ReasonPasswordChanged    RevokeReason = "password_changed"
	ReasonAccountDeactivated RevokeReason = "account_deactivated"
	ReasonAdminRevoked       RevokeReason = "admin_revoked"
)

// RefreshSession is one outstanding (or historical) refresh-capable login.
// TokenHash is the SHA-256 hash of the opaque secret handed to the client;
// the raw secret is never stored. Once RevokedAt is set it is never cleared.
type RefreshSession struct {
	ID            string
	AccountID     string
	TokenHash     string
	ExpiresAt     time.Time
	CreatedAt     time.Time
	RevokedAt     *time.Time    // nil when not revoked
	RevokedReason *RevokeReason // nil when not revoked
	ReplacedBy    *string       // id of the session that replaced this one on rotation
	UserAgent     string
	IPAddress     string
}

// IsExpired reports whether the session is past its expiry.
func (s *RefreshSession) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// IsRevoked reports whether the session has been revoked.
func (s *RefreshSession) IsRevoked() bool {
	return s.RevokedAt != nil
}

// IsValid reports whether the session can still be exchanged for tokens.
func (s *RefreshSession) IsValid(now time.Time) bool {
	return !s.IsRevoked() && !s.IsExpired(now)
}
