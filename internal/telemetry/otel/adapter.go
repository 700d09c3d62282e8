package otel

import (
	"context"
	"log"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"testprep-platform/backend/internal/telemetry"
)

// NewEventEmitter returns an EventEmitter that sends auth events as OTel log
// records via the given LoggerProvider. If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("testprep.auth")}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *telemetry.Event) error { return nil }

type otelEmitter struct {
	logger otellog.Logger
}

// Emit converts the event to an OTel log record and emits it. Best-effort.
func (e *otelEmitter) Emit(ctx context.Context, event *telemetry.Event) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	if !event.CreatedAt.IsZero() {
		rec.SetTimestamp(event.CreatedAt)
	} else {
		rec.SetTimestamp(time.Now().UTC())
	}
	rec.SetBody(otellog.StringValue(event.Type))
	if event.AccountID != "" {
		rec.AddAttributes(otellog.String("account_id", event.AccountID))
	}
	if event.SessionID != "" {
		rec.AddAttributes(otellog.String("session_id", event.SessionID))
	}
	if event.Outcome != "" {
		rec.AddAttributes(otellog.String("outcome", event.Outcome))
	}
	if event.Source != "" {
		rec.AddAttributes(otellog.String("source", event.Source))
	}
	e.logger.Emit(ctx, rec)
	return nil
}

// EmitAsync runs Emit in a goroutine with a short timeout so the request is
// not blocked. Logs errors.
func EmitAsync(emitter telemetry.EventEmitter, event *telemetry.Event) {
	if emitter == nil || event == nil {
		return
	}
	go func() {
		emitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := emitter.Emit(emitCtx, event); err != nil {
			log.Printf("telemetry: async emit failed: %v", err)
		}
	}()
}
