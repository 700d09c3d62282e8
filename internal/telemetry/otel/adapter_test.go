package otel

import (
	"context"
	"testing"
	"time"

	sdklog "go.opentelemetry.io/otel/sdk/log"

	"testprep-platform/backend/internal/telemetry"
)

func TestNewEventEmitter_NilProvider(t *testing.T) {
	emitter := NewEventEmitter(nil)
	if emitter == nil {
		t.Fatal("emitter should not be nil")
	}
	if err := emitter.Emit(context.Background(), &telemetry.Event{Type: "auth.login"}); err != nil {
		t.Errorf("no-op emitter should not error, got %v", err)
	}
}

func TestEmit_NilEvent(t *testing.T) {
	emitter := NewEventEmitter(sdklog.NewLoggerProvider())
	if err := emitter.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(nil) should not error, got %v", err)
	}
}

func TestEmit_Event(t *testing.T) {
	emitter := NewEventEmitter(sdklog.NewLoggerProvider())
	event := &telemetry.Event{
		Type:      "auth.refresh",
		AccountID: "a1",
		SessionID: "s1",
		Outcome:   "ok",
		Source:    "10.0.0.1",
		CreatedAt: time.Now().UTC(),
	}
	if err := emitter.Emit(context.Background(), event); err != nil {
		t.Errorf("Emit: %v", err)
	}
}

func TestEmitAsync_NilSafe(t *testing.T) {
	// Must not panic with nil emitter or nil event.
	EmitAsync(nil, &telemetry.Event{Type: "auth.logout"})
	EmitAsync(NewEventEmitter(nil), nil)
}
