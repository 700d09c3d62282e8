// seed inserts development sample accounts for local testing.
// Idempotent: skips inserts if the dev admin (admin@example.com) already exists.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"testprep-platform/backend/internal/account/domain"
	accountrepo "testprep-platform/backend/internal/account/repository"
	"testprep-platform/backend/internal/config"
	"testprep-platform/backend/internal/db"
	"testprep-platform/backend/internal/security"
)

const (
	adminEmail    = "admin@example.com"
	adminUsername = "admin"
	devEmail      = "dev@example.com"
	devUsername   = "dev"
	devPassword   = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	accounts := accountrepo.NewPostgresRepository(pool)

	existing, err := accounts.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("seed: lookup: %v", err)
	}
	if existing != nil {
		log.Println("seed: admin account already exists, skipping")
		return
	}

	hasher := security.NewHasher(security.DefaultArgon2idParams())
	hash, err := hasher.Hash(devPassword)
	if err != nil {
		log.Fatalf("seed: hash: %v", err)
	}

	now := time.Now().UTC()
	seedAccounts := []*domain.Account{
		{
			ID:           uuid.NewString(),
			Username:     adminUsername,
			Email:        adminEmail,
			PasswordHash: hash,
			Active:       true,
			Roles:        []string{"admin", "user"},
			Permissions:  []string{"accounts:manage", "sessions:revoke"},
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		{
			ID:           uuid.NewString(),
			Username:     devUsername,
			Email:        devEmail,
			PasswordHash: hash,
			Active:       true,
			Roles:        []string{"user"},
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}

	for _, a := range seedAccounts {
		if err := accounts.Create(ctx, a); err != nil {
			log.Fatalf("seed: create %s: %v", a.Email, err)
		}
		log.Printf("seed: created %s (%s)", a.Email, a.ID)
	}
}
