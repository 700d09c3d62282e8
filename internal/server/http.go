// Package server is the thin HTTP JSON facade over the auth service. It owns
// no business invariants; it decodes requests, calls the service, and maps
// error kinds to statuses.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	authservice "testprep-platform/backend/internal/auth/service"
	"testprep-platform/backend/internal/security"
	"testprep-platform/backend/internal/telemetry"
	otelemit "testprep-platform/backend/internal/telemetry/otel"
)

type ctxKey int

const claimsKey ctxKey = iota

// Server wires the auth service to HTTP routes.
type Server struct {
	auth    *authservice.AuthService
	tokens  *security.TokenProvider
	emitter telemetry.EventEmitter
}

// NewServer returns a Server over the given service. emitter may be nil.
func NewServer(auth *authservice.AuthService, tokens *security.TokenProvider, emitter telemetry.EventEmitter) *Server {
	return &Server{auth: auth, tokens: tokens, emitter: emitter}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/refresh", s.handleRefresh)
	mux.Handle("POST /api/v1/auth/logout", s.requireAuth(s.handleLogout))
	mux.Handle("GET /api/v1/auth/me", s.requireAuth(s.handleMe))
	mux.Handle("POST /api/v1/auth/change-password", s.requireAuth(s.handleChangePassword))
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty"`
	AllDevices   bool   `json:"all_devices,omitempty"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Active    bool      `json:"is_active"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type tokenResponse struct {
	AccessToken      string        `json:"access_token"`
	TokenType        string        `json:"token_type"`
	ExpiresIn        int64         `json:"expires_in"`
	RefreshToken     string        `json:"refresh_token"`
	RefreshExpiresIn int64         `json:"refresh_expires_in"`
	User             *userResponse `json:"user,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	profile, err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, profileToResponse(profile))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := s.auth.Login(r.Context(), req.Email, req.Password, r.UserAgent(), clientIP(r))
	s.emit("auth.login", result, err, r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResultToResponse(result))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := s.auth.Refresh(r.Context(), req.RefreshToken, r.UserAgent(), clientIP(r))
	s.emit("auth.refresh", result, err, r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResultToResponse(result))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	var req logoutRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.auth.Logout(r.Context(), claims.Subject, req.RefreshToken, req.AllDevices); err != nil {
		writeError(w, err)
		return
	}
	s.emit("auth.logout", nil, nil, r)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	profile, err := s.auth.CurrentUser(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileToResponse(profile))
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	var req changePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.auth.ChangePassword(r.Context(), claims.Subject, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireAuth verifies the Bearer access token and stores its claims on the
// request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeErrorCode(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
			return
		}
		claims, err := s.tokens.VerifyAccess(token)
		if err != nil {
			if errors.Is(err, security.ErrTokenExpired) {
				writeErrorCode(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "token expired")
				return
			}
			writeErrorCode(w, http.StatusUnauthorized, "INVALID_TOKEN", "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func claimsFrom(ctx context.Context) *security.AccessClaims {
	claims, _ := ctx.Value(claimsKey).(*security.AccessClaims)
	return claims
}

func (s *Server) emit(eventType string, result *authservice.AuthResult, err error, r *http.Request) {
	if s.emitter == nil {
		return
	}
	ev := &telemetry.Event{
		Type:      eventType,
		Outcome:   "ok",
		Source:    clientIP(r),
		CreatedAt: time.Now().UTC(),
	}
	if err != nil {
		ev.Outcome = errorCode(err)
	}
	if result != nil && result.Account != nil {
		ev.AccountID = result.Account.ID
	}
	if claims := claimsFrom(r.Context()); claims != nil {
		ev.AccountID = claims.Subject
	}
	otelemit.EmitAsync(s.emitter, ev)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "VALIDATION_ERROR", "malformed request body")
		return false
	}
	return true
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func profileToResponse(p *authservice.Profile) *userResponse {
	return &userResponse{
		ID:        p.ID,
		Username:  p.Username,
		Email:     p.Email,
		Active:    p.Active,
		Roles:     p.Roles,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func authResultToResponse(result *authservice.AuthResult) *tokenResponse {
	resp := &tokenResponse{
		AccessToken:      result.AccessToken,
		TokenType:        "Bearer",
		ExpiresIn:        int64(time.Until(result.AccessExpiresAt).Seconds()),
		RefreshToken:     result.RefreshSecret,
		RefreshExpiresIn: int64(time.Until(result.RefreshExpiresAt).Seconds()),
	}
	if result.Account != nil {
		resp.User = profileToResponse(result.Account)
	}
	return resp
}

type envelope struct {
	Success bool         `json:"success"`
	Data    any          `json:"data,omitempty"`
	Error   *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: &errorDetail{Code: code, Message: message}})
}

// writeError maps service error kinds to HTTP statuses. Unanticipated errors
// surface as a generic 500 without infrastructure detail.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authservice.ErrValidation):
		writeErrorCode(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, authservice.ErrInvalidCredentials):
		writeErrorCode(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
	case errors.Is(err, authservice.ErrInvalidRefreshToken):
		writeErrorCode(w, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "invalid refresh token")
	case errors.Is(err, authservice.ErrRefreshTokenExpired):
		writeErrorCode(w, http.StatusUnauthorized, "REFRESH_TOKEN_EXPIRED", "refresh token expired")
	case errors.Is(err, authservice.ErrRefreshTokenRevoked):
		writeErrorCode(w, http.StatusUnauthorized, "REFRESH_TOKEN_REVOKED", "refresh token revoked")
	case errors.Is(err, authservice.ErrAccountDeactivated):
		writeErrorCode(w, http.StatusForbidden, "ACCOUNT_DEACTIVATED", "account is deactivated")
	case errors.Is(err, authservice.ErrAccountDeleted):
		writeErrorCode(w, http.StatusForbidden, "ACCOUNT_DELETED", "account is deleted")
	case errors.Is(err, authservice.ErrDuplicateEmail):
		writeErrorCode(w, http.StatusConflict, "DUPLICATE_EMAIL", "email already registered")
	case errors.Is(err, authservice.ErrDuplicateUsername):
		writeErrorCode(w, http.StatusConflict, "DUPLICATE_USERNAME", "username already taken")
	case errors.Is(err, authservice.ErrAccountNotFound):
		writeErrorCode(w, http.StatusNotFound, "NOT_FOUND", "account not found")
	default:
		writeErrorCode(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, authservice.ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, authservice.ErrInvalidCredentials):
		return "INVALID_CREDENTIALS"
	case errors.Is(err, authservice.ErrInvalidRefreshToken):
		return "INVALID_REFRESH_TOKEN"
	case errors.Is(err, authservice.ErrRefreshTokenExpired):
		return "REFRESH_TOKEN_EXPIRED"
	case errors.Is(err, authservice.ErrRefreshTokenRevoked):
		return "REFRESH_TOKEN_REVOKED"
	case errors.Is(err, authservice.ErrAccountDeactivated):
		return "ACCOUNT_DEACTIVATED"
	case errors.Is(err, authservice.ErrAccountDeleted):
		return "ACCOUNT_DELETED"
	default:
		return "INTERNAL_ERROR"
	}
}
