package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"vidtube/backend/internal/security"
)

type ctxKey int

const clientIPKey ctxKey = 0

// ClientIPFromContext returns the client IP injected by the ClientIP
// middleware, or "" when absent. Wired into the audit logger.
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}

// ClientIP stores the remote address in the request context so code below the
// HTTP layer (audit logging) can see it without a fiber dependency.
func ClientIP() fiber.Handler {
	return func(c fiber.Ctx) error {
		c.SetContext(context.WithValue(c.Context(), clientIPKey, c.IP()))
		return c.Next()
	}
}

// RequireAuth parses the access token from the Authorization header (Bearer)
// or the accessToken cookie and stores the subject's identity in Locals.
// Requests without a valid token are rejected with 401.
func RequireAuth(codec *security.TokenCodec) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := ""
		if header := c.Get("Authorization"); header != "" {
			if !strings.HasPrefix(header, "Bearer ") {
				return unauthorized(c, "invalid authorization header")
			}
			token = strings.TrimPrefix(header, "Bearer ")
		} else {
			token = c.Cookies("accessToken")
		}
		if token == "" {
			return unauthorized(c, "not authenticated")
		}
		claims, err := codec.ParseAccess(token, time.Now())
		if err != nil {
			return unauthorized(c, "invalid or expired access token")
		}
		c.Locals("accountID", claims.Subject)
		c.Locals("username", claims.Username)
		return c.Next()
	}
}

func unauthorized(c fiber.Ctx, message string) error {
	return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": message})
}
