package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	accountdomain "testprep-platform/backend/internal/account/domain"
	accountrepo "testprep-platform/backend/internal/account/repository"
	"testprep-platform/backend/internal/security"
	sessiondomain "testprep-platform/backend/internal/session/domain"
	sessionrepo "testprep-platform/backend/internal/session/repository"
)

// Sentinel errors for the auth service; the transport layer maps them to
// status codes. ErrInvalidCredentials deliberately covers both "no such
// account" and "wrong password" during login so the response does not reveal
// whether the email is registered.
var (
	ErrValidation          = errors.New("validation failed")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountDeactivated  = errors.New("account is deactivated")
	ErrAccountDeleted      = errors.New("account is deleted")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")

	// Duplicate identifiers share sentinels with the account store so
	// errors.Is works on either side of the boundary.
	ErrDuplicateEmail    = accountrepo.ErrDuplicateEmail
	ErrDuplicateUsername = accountrepo.ErrDuplicateUsername
)

// Profile is the public-safe projection of an account. The credential hash
// never leaves this package.
type Profile struct {
	ID        string
	Username  string
	Email     string
	Active    bool
	Roles     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuthResult holds the outcome of Login or Refresh. RefreshSecret is the raw
// opaque secret, disclosed here exactly once; only its hash is stored.
type AuthResult struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshSecret    string
	RefreshExpiresAt time.Time
	Account          *Profile // set by Login, nil on Refresh

	newSessionID string // internal, for rotation linking
}

// AuthService orchestrates registration, login, refresh rotation, logout, and
// account-state changes. It is stateless; all mutable state lives in the
// stores, and correctness under concurrency comes from the stores' unique
// constraints and conditional updates rather than in-process locking.
type AuthService struct {
	accounts   accountrepo.Repository
	sessions   sessionrepo.Repository
	hasher     *security.Hasher
	tokens     *security.TokenProvider
	refreshTTL time.Duration
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	accounts accountrepo.Repository,
	sessions sessionrepo.Repository,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		accounts:   accounts,
		sessions:   sessions,
		hasher:     hasher,
		tokens:     tokens,
		refreshTTL: refreshTTL,
	}
}

// Register creates an account with the given username, email, and password.
// The existence pre-checks only avoid hashing work; the store's unique
// constraints are the authority under concurrent registration.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*Profile, error) {
	username = normalizeUsername(username)
	email = normalizeEmail(email)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	if taken, err := s.accounts.EmailExists(ctx, email); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if taken {
		return nil, ErrDuplicateEmail
	}
	if taken, err := s.accounts.UsernameExists(ctx, username); err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	} else if taken {
		return nil, ErrDuplicateUsername
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := &accountdomain.Account{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Active:       true,
		Roles:        []string{"user"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := account.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return accountToProfile(account), nil
}

// Login authenticates with email and password, creates a refresh session, and
// returns an access token plus the raw refresh secret.
func (s *AuthService) Login(ctx context.Context, email, password, userAgent, ipAddress string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		return nil, ErrInvalidCredentials
	}
	if account.IsDeleted() {
		return nil, ErrAccountDeleted
	}
	if !account.Active {
		return nil, ErrAccountDeactivated
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	result, err := s.startSession(ctx, account, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}
	result.Account = accountToProfile(account)
	return result, nil
}

// Refresh exchanges a still-valid refresh secret for a new access token and a
// new refresh secret, atomically invalidating the old session. Of two
// concurrent Refresh calls with the same secret, exactly one succeeds; the
// other observes ErrRefreshTokenRevoked.
func (s *AuthService) Refresh(ctx context.Context, rawSecret, userAgent, ipAddress string) (*AuthResult, error) {
	if rawSecret == "" {
		return nil, ErrInvalidRefreshToken
	}

	old, err := s.sessions.GetByTokenHash(ctx, security.HashRefreshSecret(rawSecret))
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if old == nil {
		return nil, ErrInvalidRefreshToken
	}
	// A revoked session being replayed is always an error: either the client
	// already rotated it, or someone else is holding a stolen secret.
	if old.IsRevoked() {
		return nil, ErrRefreshTokenRevoked
	}
	if old.IsExpired(time.Now().UTC()) {
		return nil, ErrRefreshTokenExpired
	}

	account, err := s.accounts.GetByID(ctx, old.AccountID)
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	if account.IsDeleted() {
		return nil, ErrAccountDeleted
	}
	if !account.Active {
		return nil, ErrAccountDeactivated
	}

	result, err := s.startSession(ctx, account, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Rotate(ctx, old.ID, result.newSessionID); err != nil {
		// Lost the race: some other refresh already consumed the old session.
		// The replacement we just created was never disclosed; retire it.
		if errors.Is(err, sessionrepo.ErrAlreadyRevoked) {
			_ = s.sessions.Revoke(ctx, result.newSessionID, sessiondomain.ReasonRotated)
			return nil, ErrRefreshTokenRevoked
		}
		return nil, fmt.Errorf("rotate session: %w", err)
	}
	return result, nil
}

// Logout revokes sessions for the account. With allDevices it revokes every
// currently valid session; otherwise it revokes the session matching
// rawSecret, silently ignoring secrets that are unknown or belong to another
// account. With neither, it is a no-op.
func (s *AuthService) Logout(ctx context.Context, accountID, rawSecret string, allDevices bool) error {
	if allDevices {
		if _, err := s.sessions.RevokeAllForAccount(ctx, accountID, sessiondomain.ReasonLogoutAll); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		return nil
	}
	if rawSecret == "" {
		return nil
	}
	sess, err := s.sessions.GetByTokenHash(ctx, security.HashRefreshSecret(rawSecret))
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}
	if sess == nil || sess.AccountID != accountID {
		return nil
	}
	if err := s.sessions.Revoke(ctx, sess.ID, sessiondomain.ReasonLogout); err != nil {
		if errors.Is(err, sessionrepo.ErrAlreadyRevoked) {
			return nil
		}
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// CurrentUser returns the public projection of the account.
func (s *AuthService) CurrentUser(ctx context.Context, accountID string) (*Profile, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	if account.IsDeleted() {
		return nil, ErrAccountDeleted
	}
	return accountToProfile(account), nil
}

// ChangePassword verifies the current password, stores a hash of the new one,
// and revokes every session so stolen refresh secrets die with the old
// password.
func (s *AuthService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		return ErrAccountNotFound
	}
	if account.IsDeleted() {
		return ErrAccountDeleted
	}
	if !account.Active {
		return ErrAccountDeactivated
	}

	ok, err := s.hasher.Verify(currentPassword, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	account.PasswordHash = hash
	account.UpdatedAt = time.Now().UTC()
	if err := s.accounts.Update(ctx, account); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if _, err := s.sessions.RevokeAllForAccount(ctx, accountID, sessiondomain.ReasonPasswordChanged); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}

// DeactivateAccount disables authentication for the account and revokes all
// of its sessions.
func (s *AuthService) DeactivateAccount(ctx context.Context, accountID string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		return ErrAccountNotFound
	}
	if account.IsDeleted() {
		return ErrAccountDeleted
	}
	account.Deactivate(time.Now().UTC())
	if err := s.accounts.Update(ctx, account); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if _, err := s.sessions.RevokeAllForAccount(ctx, accountID, sessiondomain.ReasonAccountDeactivated); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}

// ActivateAccount re-enables a deactivated account. Sessions revoked on
// deactivation stay revoked; the user logs in again.
func (s *AuthService) ActivateAccount(ctx context.Context, accountID string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		return ErrAccountNotFound
	}
	if account.IsDeleted() {
		return ErrAccountDeleted
	}
	account.Activate(time.Now().UTC())
	if err := s.accounts.Update(ctx, account); err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

// SoftDeleteAccount marks the account deleted by actorID and revokes all of
// its sessions. The account row and its session history are retained.
func (s *AuthService) SoftDeleteAccount(ctx context.Context, accountID, actorID string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		return ErrAccountNotFound
	}
	if err := s.accounts.SoftDelete(ctx, accountID, actorID); err != nil {
		return fmt.Errorf("soft delete account: %w", err)
	}
	if _, err := s.sessions.RevokeAllForAccount(ctx, accountID, sessiondomain.ReasonAdminRevoked); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}

// RestoreAccount clears the soft-delete markers.
func (s *AuthService) RestoreAccount(ctx context.Context, accountID string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		return ErrAccountNotFound
	}
	if err := s.accounts.Restore(ctx, accountID); err != nil {
		return fmt.Errorf("restore account: %w", err)
	}
	return nil
}

// startSession issues an access token for the account and persists a new
// refresh session, returning the raw secret alongside the token.
func (s *AuthService) startSession(ctx context.Context, account *accountdomain.Account, userAgent, ipAddress string) (*AuthResult, error) {
	accessToken, _, accessExp, err := s.tokens.IssueAccess(account.ID, account.Roles, account.Permissions)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	rawSecret, err := security.NewRefreshSecret()
	if err != nil {
		return nil, fmt.Errorf("generate refresh secret: %w", err)
	}

	now := time.Now().UTC()
	sess := &sessiondomain.RefreshSession{
		ID:        uuid.New().String(),
		AccountID: account.ID,
		TokenHash: security.HashRefreshSecret(rawSecret),
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &AuthResult{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshSecret:    rawSecret,
		RefreshExpiresAt: sess.ExpiresAt,
		newSessionID:     sess.ID,
	}, nil
}

func accountToProfile(a *accountdomain.Account) *Profile {
	return &Profile{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		Active:    a.Active,
		Roles:     append([]string(nil), a.Roles...),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !emailRe.MatchString(email) {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	return nil
}

func validateUsername(username string) error {
	if len(username) < 3 {
		return fmt.Errorf("%w: username must be at least 3 characters", ErrValidation)
	}
	if len(username) > 32 {
		return fmt.Errorf("%w: username must be at most 32 characters", ErrValidation)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if len(password) > 128 {
		return fmt.Errorf("%w: password must be at most 128 characters", ErrValidation)
	}
	return nil
}
