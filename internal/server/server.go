// Package server assembles the HTTP application: routes, middleware, and
// health checks.
package server

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"

	accounthandler "vidtube/backend/internal/account/handler"
	authhandler "vidtube/backend/internal/auth/handler"
	"vidtube/backend/internal/security"
)

// Pinger is anything that can report backing-store liveness (e.g. *sql.DB).
type Pinger interface {
	Ping() error
}

// Deps holds the handlers and shared pieces the router wires together.
type Deps struct {
	Auth    *authhandler.Handler
	Account *accounthandler.Handler
	Codec   *security.TokenCodec
	// DB is used by the readiness endpoint. May be nil in tests.
	DB Pinger
}

// New builds the fiber application with all routes registered.
func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	app.Use(ClientIP())

	app.Get("/healthz", func(c fiber.Ctx) error {
		if deps.DB != nil {
			if err := deps.DB.Ping(); err != nil {
				return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
			}
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	apiV1 := app.Group("/api/v1")

	auth := apiV1.Group("/auth")
	auth.Post("/register", deps.Auth.Register)
	auth.Post("/login", deps.Auth.Login)
	auth.Post("/refresh", deps.Auth.Refresh)
	auth.Post("/logout", deps.Auth.Logout, RequireAuth(deps.Codec))
	auth.Post("/change-password", deps.Auth.ChangePassword, RequireAuth(deps.Codec))

	account := apiV1.Group("/account", RequireAuth(deps.Codec))
	account.Get("/me", deps.Account.Me)
	account.Patch("/me", deps.Account.UpdateProfile)

	app.Use(func(c fiber.Ctx) error {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "route not found"})
	})

	return app
}
