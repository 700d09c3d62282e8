package security

import (
	"errors"
	"testing"
	"time"
)

const testSigningSecret = "0123456789abcdef0123456789abcdef"

func newTestTokenProvider(t *testing.T, ttl time.Duration) *TokenProvider {
	t.Helper()
	p, err := NewTokenProvider([]byte(testSigningSecret), "test-issuer", ttl)
	if err != nil {
		t.Fatalf("NewTokenProvider: %v", err)
	}
	return p
}

func TestNewTokenProvider_RejectsShortSecret(t *testing.T) {
	if _, err := NewTokenProvider([]byte("too-short"), "test-issuer", time.Minute); err == nil {
		t.Fatal("NewTokenProvider should reject a secret under 32 bytes")
	}
}

func TestTokenProvider_IssueAndVerifyAccess(t *testing.T) {
	p := newTestTokenProvider(t, 15*time.Minute)

	token, jti, exp, err := p.IssueAccess("acct-1", []string{"user"}, []string{"exams:take"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if token == "" || jti == "" {
		t.Fatal("access token or jti empty")
	}
	if exp.Before(time.Now()) {
		t.Fatal("expires at in the past")
	}

	claims, err := p.VerifyAccess(token)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.Subject != "acct-1" {
		t.Errorf("Subject = %q, want acct-1", claims.Subject)
	}
	if claims.ID != jti {
		t.Errorf("jti = %q, want %q", claims.ID, jti)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "user" {
		t.Errorf("Roles = %v, want [user]", claims.Roles)
	}
	if len(claims.Permissions) != 1 || claims.Permissions[0] != "exams:take" {
		t.Errorf("Permissions = %v, want [exams:take]", claims.Permissions)
	}
}

func TestTokenProvider_VerifyAccessExpired(t *testing.T) {
	p := newTestTokenProvider(t, -time.Minute)
	token, _, _, err := p.IssueAccess("acct-1", nil, nil)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	_, err = p.VerifyAccess(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expired token: want ErrTokenExpired, got %v", err)
	}
}

func TestTokenProvider_VerifyAccessMalformed(t *testing.T) {
	p := newTestTokenProvider(t, 15*time.Minute)
	_, err := p.VerifyAccess("not-a-token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("malformed token: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_VerifyAccessWrongSecret(t *testing.T) {
	p := newTestTokenProvider(t, 15*time.Minute)
	other, err := NewTokenProvider([]byte("ffffffffffffffffffffffffffffffff"), "test-issuer", 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenProvider: %v", err)
	}
	token, _, _, err := other.IssueAccess("acct-1", nil, nil)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	_, err = p.VerifyAccess(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_VerifyAccessWrongIssuer(t *testing.T) {
	p := newTestTokenProvider(t, 15*time.Minute)
	other, err := NewTokenProvider([]byte(testSigningSecret), "other-issuer", 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenProvider: %v", err)
	}
	token, _, _, err := other.IssueAccess("acct-1", nil, nil)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	_, err = p.VerifyAccess(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong issuer: want ErrInvalidToken, got %v", err)
	}
}

func TestTokenProvider_JTIsUnique(t *testing.T) {
	p := newTestTokenProvider(t, 15*time.Minute)
	_, jti1, _, err := p.IssueAccess("acct-1", nil, nil)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	_, jti2, _, err := p.IssueAccess("acct-1", nil, nil)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if jti1 == jti2 {
		t.Error("two issued tokens share a jti")
	}
}
