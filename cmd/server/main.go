package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	accounthandler "vidtube/backend/internal/account/handler"
	accountrepo "vidtube/backend/internal/account/repository"
	accountservice "vidtube/backend/internal/account/service"
	"vidtube/backend/internal/audit"
	auditrepo "vidtube/backend/internal/audit/repository"
	authhandler "vidtube/backend/internal/auth/handler"
	authservice "vidtube/backend/internal/auth/service"
	"vidtube/backend/internal/config"
	"vidtube/backend/internal/db"
	"vidtube/backend/internal/security"
	"vidtube/backend/internal/server"
	sessionrepo "vidtube/backend/internal/session/repository"
	otelsetup "vidtube/backend/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "vidtube-auth", false)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	pool, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	codec, err := security.NewTokenCodec(
		[]byte(cfg.AccessTokenSecret),
		[]byte(cfg.RefreshTokenSecret),
		cfg.TokenIssuer,
		cfg.AccessTTL(),
		cfg.RefreshTTL(),
	)
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}
	hasher := security.NewHasher(cfg.BcryptCost, cfg.MaxConcurrentHashes)

	accounts := accountrepo.NewPostgresRepository(pool)
	slots := sessionrepo.NewPostgresRepository(pool)
	events := audit.NewLogger(
		auditrepo.NewPostgresRepository(pool),
		server.ClientIPFromContext,
		providers.LoggerProvider,
	)

	auth := authservice.NewAuthService(accounts, slots, hasher, codec, events)
	profile := accountservice.NewAccountService(accounts)

	app := server.New(server.Deps{
		Auth:    authhandler.NewHandler(auth, cfg.Env == "production"),
		Account: accounthandler.NewHandler(profile),
		Codec:   codec,
		DB:      pool,
	})

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("shutdown: %v", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
