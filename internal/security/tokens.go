package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, carries a bad
	// signature, or was signed with an unexpected method.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when a token is well-formed and correctly
	// signed but past its expiry. Kept distinct from ErrInvalidToken so the
	// boundary layer can tell the client to re-authenticate rather than treat
	// the request as hostile.
	ErrTokenExpired = errors.New("token expired")
)

// AccessClaims holds JWT claims for the access token. Roles and Permissions
// are opaque strings copied from the account at issue time; the token is the
// only record of them for its lifetime.
type AccessClaims struct {
	jwt.RegisteredClaims
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// TokenProvider issues and verifies HS256-signed access tokens. Tokens are
// self-contained and never persisted; verification is signature + expiry only.
type TokenProvider struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
}

// NewTokenProvider returns a TokenProvider that signs with the given shared
// secret. issuer is set on claims and validated on every Verify.
func NewTokenProvider(secret []byte, issuer string, accessTTL time.Duration) (*TokenProvider, error) {
	if len(secret) < 32 {
		return nil, errors.New("token signing secret must be at least 32 bytes")
	}
	return &TokenProvider{secret: secret, issuer: issuer, accessTTL: accessTTL}, nil
}

// IssueAccess issues a short-lived access JWT for the given subject with the
// account's role and permission strings. Returns the signed token, its jti,
// and the expiry time.
func (p *TokenProvider) IssueAccess(subjectID string, roles, permissions []string) (token string, jti string, expiresAt time.Time, err error) {
	jti, err = generateJTI()
	if err != nil {
		return "", "", time.Time{}, err
	}
	now := time.Now().UTC()
	expiresAt = now.Add(p.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   subjectID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Roles:       roles,
		Permissions: permissions,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	return token, jti, expiresAt, err
}

// VerifyAccess parses and validates an access token. Returns the claims on
// success, ErrTokenExpired for a correctly signed but expired token, and
// ErrInvalidToken for anything else.
func (p *TokenProvider) VerifyAccess(tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// AccessTTL returns the configured access token lifetime.
func (p *TokenProvider) AccessTTL() time.Duration {
	return p.accessTTL
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
