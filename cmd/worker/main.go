// Worker periodically purges expired refresh sessions from the database.
// Revoked-but-unexpired rows are kept until expiry so replay attempts during
// the original lifetime still surface as revoked rather than unknown.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"testprep-platform/backend/internal/config"
	"testprep-platform/backend/internal/db"
	sessionrepo "testprep-platform/backend/internal/session/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	sessions := sessionrepo.NewPostgresRepository(pool)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("worker: shutting down...")
		cancel()
	}()

	interval := cfg.PurgeInterval()
	log.Printf("worker: purging expired sessions every %s", interval)

	purge := func() {
		purgeCtx, purgeCancel := context.WithTimeout(ctx, time.Minute)
		defer purgeCancel()
		n, err := sessions.PurgeExpired(purgeCtx)
		if err != nil {
			log.Printf("worker: purge: %v", err)
			return
		}
		if n > 0 {
			log.Printf("worker: purged %d expired sessions", n)
		}
	}

	purge()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("worker: stopped")
			return
		case <-ticker.C:
			purge()
		}
	}
}
