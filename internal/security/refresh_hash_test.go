package security

import (
	"strings"
	"testing"
)

func TestNewRefreshSecret_UniqueAndURLSafe(t *testing.T) {
	s1, err := NewRefreshSecret()
	if err != nil {
		t.Fatalf("NewRefreshSecret: %v", err)
	}
	s2, err := NewRefreshSecret()
	if err != nil {
		t.Fatalf("NewRefreshSecret: %v", err)
	}
	if s1 == s2 {
		t.Error("two refresh secrets should differ")
	}
	if strings.ContainsAny(s1, "+/=") {
		t.Errorf("refresh secret not base64url without padding: %q", s1)
	}
	// 32 bytes, base64url without padding.
	if len(s1) != 43 {
		t.Errorf("refresh secret length = %d, want 43", len(s1))
	}
}

func TestHashRefreshSecret_Consistent(t *testing.T) {
	secret := "test-refresh-secret-123"
	hash1 := HashRefreshSecret(secret)
	hash2 := HashRefreshSecret(secret)

	if hash1 != hash2 {
		t.Errorf("HashRefreshSecret not consistent: hash1 = %q, hash2 = %q", hash1, hash2)
	}
	if len(hash1) != 64 {
		t.Errorf("hash length = %d, want 64 (SHA-256 hex)", len(hash1))
	}
}

func TestHashRefreshSecret_DifferentSecrets(t *testing.T) {
	if HashRefreshSecret("secret-1") == HashRefreshSecret("secret-2") {
		t.Error("HashRefreshSecret produced same hash for different secrets")
	}
}

func TestRefreshSecretHashEqual_CorrectMatch(t *testing.T) {
	secret := "test-refresh-secret-456"
	storedHash := HashRefreshSecret(secret)

	if !RefreshSecretHashEqual(secret, storedHash) {
		t.Error("RefreshSecretHashEqual should match correct secret")
	}
}

func TestRefreshSecretHashEqual_RejectsIncorrect(t *testing.T) {
	storedHash := HashRefreshSecret("correct-secret")
	if RefreshSecretHashEqual("wrong-secret", storedHash) {
		t.Error("RefreshSecretHashEqual should reject incorrect secret")
	}
}

func TestRefreshSecretHashEqual_LengthMismatch(t *testing.T) {
	secret := "test-secret-789"
	storedHash := HashRefreshSecret(secret)

	if RefreshSecretHashEqual(secret, "a"+storedHash) {
		t.Error("RefreshSecretHashEqual should reject hash with different length")
	}
	if RefreshSecretHashEqual("", "") {
		t.Error("RefreshSecretHashEqual should not match empty stored hash")
	}
}
