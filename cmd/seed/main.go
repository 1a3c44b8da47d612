// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev account (dev@example.com) already exists.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"vidtube/backend/internal/account/domain"
	accountrepo "vidtube/backend/internal/account/repository"
	"vidtube/backend/internal/config"
	"vidtube/backend/internal/db"
	"vidtube/backend/internal/security"
)

const (
	devEmail    = "dev@example.com"
	devUsername = "dev"
	devPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	accounts := accountrepo.NewPostgresRepository(pool)
	existing, err := accounts.GetByUsernameOrEmail(ctx, devEmail)
	if err != nil {
		log.Fatalf("checking dev account: %v", err)
	}
	if existing != nil {
		log.Printf("dev account %s already exists, nothing to do", devEmail)
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost, cfg.MaxConcurrentHashes)
	hashed, err := hasher.Hash(ctx, []byte(devPassword))
	if err != nil {
		log.Fatalf("hashing dev password: %v", err)
	}

	now := time.Now().UTC()
	acct := &domain.Account{
		ID:           uuid.New().String(),
		Username:     devUsername,
		Email:        devEmail,
		DisplayName:  "Dev Account",
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := accounts.Create(ctx, acct); err != nil {
		log.Fatalf("creating dev account: %v", err)
	}
	log.Printf("seeded dev account %s (password %s)", devEmail, devPassword)
}
