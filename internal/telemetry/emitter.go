// Package telemetry defines the auth event stream emitted by the HTTP layer.
package telemetry

import (
	"context"
	"time"
)

// Event is a single auth-flow occurrence (login, refresh, logout, revocation).
// Payload values must never contain secrets, raw tokens, or password material.
type Event struct {
	Type      string // e.g. "auth.login", "auth.refresh", "auth.logout"
	AccountID string
	SessionID string
	Outcome   string // "ok" or the error kind
	Source    string
	CreatedAt time.Time
}

// EventEmitter delivers events to a telemetry backend. Implementations must be
// safe for concurrent use. Emit is best-effort; callers do not retry.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}
