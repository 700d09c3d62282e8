package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	accountrepo "testprep-platform/backend/internal/account/repository"
	authservice "testprep-platform/backend/internal/auth/service"
	"testprep-platform/backend/internal/config"
	"testprep-platform/backend/internal/db"
	"testprep-platform/backend/internal/security"
	"testprep-platform/backend/internal/server"
	sessionrepo "testprep-platform/backend/internal/session/repository"
	otelsetup "testprep-platform/backend/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "testprep-auth-server", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	hasher := security.NewHasher(security.Argon2idParams{
		Memory:      cfg.ArgonMemoryKiB,
		Time:        cfg.ArgonTime,
		Parallelism: cfg.ArgonParallelism,
		SaltLength:  16,
		KeyLength:   32,
	})
	tokens, err := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.AccessTTL())
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	auth := authservice.NewAuthService(
		accountrepo.NewPostgresRepository(pool),
		sessionrepo.NewPostgresRepository(pool),
		hasher,
		tokens,
		cfg.RefreshTTL(),
	)
	emitter := otelsetup.NewEventEmitter(providers.LoggerProvider)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.NewServer(auth, tokens, emitter).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
