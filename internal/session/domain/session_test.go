package domain

import (
	"testing"
	"time"
)

func TestRefreshSession_Validity(t *testing.T) {
	now := time.Now().UTC()
	s := &RefreshSession{ID: "s1", AccountID: "a1", TokenHash: "h1", ExpiresAt: now.Add(time.Hour)}

	if s.IsExpired(now) {
		t.Error("session before expiry should not be expired")
	}
	if s.IsRevoked() {
		t.Error("fresh session should not be revoked")
	}
	if !s.IsValid(now) {
		t.Error("fresh unexpired session should be valid")
	}

	if !s.IsExpired(now.Add(2 * time.Hour)) {
		t.Error("session past expiry should be expired")
	}
	if s.IsValid(now.Add(2 * time.Hour)) {
		t.Error("expired session should not be valid")
	}

	revokedAt := now
	reason := ReasonLogout
	s.RevokedAt = &revokedAt
	s.RevokedReason = &reason
	if !s.IsRevoked() {
		t.Error("session with RevokedAt should be revoked")
	}
	if s.IsValid(now) {
		t.Error("revoked session should not be valid even before expiry")
	}
}
