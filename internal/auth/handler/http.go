// Package handler exposes the auth service over HTTP.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"

	"vidtube/backend/internal/account/domain"
	"vidtube/backend/internal/auth/service"
	"vidtube/backend/internal/security"
)

// Handler holds HTTP handlers for registration, login, token rotation,
// logout, and password change.
type Handler struct {
	auth          *service.AuthService
	secureCookies bool
}

// NewHandler returns an auth HTTP handler. secureCookies marks issued cookies
// Secure; enable it in production.
func NewHandler(auth *service.AuthService, secureCookies bool) *Handler {
	return &Handler{auth: auth, secureCookies: secureCookies}
}

type registerRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	DisplayName   string `json:"displayName"`
	AvatarURL     string `json:"avatarUrl"`
	CoverImageURL string `json:"coverImageUrl"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type accountResponse struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	CoverImageURL string `json:"coverImageUrl,omitempty"`
}

type tokenResponse struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	Account      *accountResponse `json:"account,omitempty"`
}

// Register handles POST /api/v1/auth/register.
func (h *Handler) Register(c fiber.Ctx) error {
	var req registerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}
	acct, err := h.auth.Register(c.Context(),
		req.Username, req.Email, req.Password, req.DisplayName, req.AvatarURL, req.CoverImageURL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken), errors.Is(err, service.ErrEmailTaken):
			return errorResponse(c, http.StatusConflict, err.Error())
		default:
			return serviceError(c, err)
		}
	}
	return c.Status(http.StatusCreated).JSON(toAccountResponse(acct))
}

// Login handles POST /api/v1/auth/login. Tokens are returned in the body and
// as httpOnly cookies.
func (h *Handler) Login(c fiber.Ctx) error {
	var req loginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}
	res, err := h.auth.Login(c.Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return errorResponse(c, http.StatusUnauthorized, "invalid credentials")
		}
		return serviceError(c, err)
	}
	h.setTokenCookies(c, &res.TokenPair)
	return c.Status(http.StatusOK).JSON(tokenResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		Account:      toAccountResponse(res.Account),
	})
}

// Refresh handles POST /api/v1/auth/refresh. The presented token is read from
// the refreshToken cookie, falling back to the JSON body.
func (h *Handler) Refresh(c fiber.Ctx) error {
	presented := c.Cookies("refreshToken")
	if presented == "" {
		var req refreshRequest
		if err := c.Bind().JSON(&req); err == nil {
			presented = req.RefreshToken
		}
	}
	pair, err := h.auth.Refresh(c.Context(), presented)
	if err != nil {
		return refreshError(c, err)
	}
	h.setTokenCookies(c, pair)
	return c.Status(http.StatusOK).JSON(tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Logout handles POST /api/v1/auth/logout. Requires authentication.
func (h *Handler) Logout(c fiber.Ctx) error {
	accountID, _ := c.Locals("accountID").(string)
	if accountID == "" {
		return errorResponse(c, http.StatusUnauthorized, "not authenticated")
	}
	if err := h.auth.Logout(c.Context(), accountID); err != nil {
		return serviceError(c, err)
	}
	h.clearTokenCookies(c)
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "logged out"})
}

// ChangePassword handles POST /api/v1/auth/change-password. Requires
// authentication.
func (h *Handler) ChangePassword(c fiber.Ctx) error {
	accountID, _ := c.Locals("accountID").(string)
	if accountID == "" {
		return errorResponse(c, http.StatusUnauthorized, "not authenticated")
	}
	var req changePasswordRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}
	err := h.auth.ChangePassword(c.Context(), accountID, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			return errorResponse(c, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, service.ErrAccountNotFound):
			return errorResponse(c, http.StatusNotFound, "account not found")
		default:
			return serviceError(c, err)
		}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "password changed"})
}

func (h *Handler) setTokenCookies(c fiber.Ctx, pair *service.TokenPair) {
	c.Cookie(&fiber.Cookie{
		Name:     "accessToken",
		Value:    pair.AccessToken,
		Expires:  pair.AccessExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refreshToken",
		Value:    pair.RefreshToken,
		Expires:  pair.RefreshExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *Handler) clearTokenCookies(c fiber.Ctx) {
	expired := time.Now().Add(-time.Hour)
	for _, name := range []string{"accessToken", "refreshToken"} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Expires:  expired,
			HTTPOnly: true,
			Secure:   h.secureCookies,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
}

// refreshError maps refresh failures. Malformed tokens are the caller's
// mistake (400); everything else about an unusable token is 401.
func refreshError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, security.ErrTokenMalformed):
		return errorResponse(c, http.StatusBadRequest, "malformed refresh token")
	case errors.Is(err, security.ErrTokenExpired):
		return errorResponse(c, http.StatusUnauthorized, "refresh token expired")
	case errors.Is(err, security.ErrTokenSignatureInvalid):
		return errorResponse(c, http.StatusUnauthorized, "invalid refresh token")
	case errors.Is(err, service.ErrTokenReuseDetected):
		return errorResponse(c, http.StatusUnauthorized, "refresh token no longer valid")
	case errors.Is(err, service.ErrAccountNotFound):
		return errorResponse(c, http.StatusUnauthorized, "account no longer exists")
	default:
		return serviceError(c, err)
	}
}

// serviceError reports an unexpected failure without leaking its detail.
func serviceError(c fiber.Ctx, err error) error {
	if isValidationError(err) {
		return errorResponse(c, http.StatusBadRequest, err.Error())
	}
	return errorResponse(c, http.StatusInternalServerError, "internal error")
}

// isValidationError reports whether err is a plain validation message rather
// than a wrapped infrastructure failure.
func isValidationError(err error) bool {
	return errors.Unwrap(err) == nil
}

func errorResponse(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func toAccountResponse(a *domain.Account) *accountResponse {
	return &accountResponse{
		ID:            a.ID,
		Username:      a.Username,
		Email:         a.Email,
		DisplayName:   a.DisplayName,
		AvatarURL:     a.AvatarURL,
		CoverImageURL: a.CoverImageURL,
	}
}
