// Package handler exposes account profile endpoints over HTTP.
package handler

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"vidtube/backend/internal/account/domain"
	"vidtube/backend/internal/account/service"
)

type Handler struct {
	accounts *service.AccountService
}

func NewHandler(accounts *service.AccountService) *Handler {
	return &Handler{accounts: accounts}
}

type updateProfileRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

type profileResponse struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	CoverImageURL string `json:"coverImageUrl,omitempty"`
}

// Me handles GET /api/v1/account/me. Requires authentication.
func (h *Handler) Me(c fiber.Ctx) error {
	accountID, _ := c.Locals("accountID").(string)
	if accountID == "" {
		return errorResponse(c, http.StatusUnauthorized, "not authenticated")
	}
	acct, err := h.accounts.Get(c.Context(), accountID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return errorResponse(c, http.StatusNotFound, "account not found")
		}
		return errorResponse(c, http.StatusInternalServerError, "internal error")
	}
	return c.Status(http.StatusOK).JSON(toProfileResponse(acct))
}

// UpdateProfile handles PATCH /api/v1/account/me. Requires authentication.
func (h *Handler) UpdateProfile(c fiber.Ctx) error {
	accountID, _ := c.Locals("accountID").(string)
	if accountID == "" {
		return errorResponse(c, http.StatusUnauthorized, "not authenticated")
	}
	var req updateProfileRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid request body")
	}
	acct, err := h.accounts.UpdateProfile(c.Context(), accountID, req.DisplayName, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return errorResponse(c, http.StatusNotFound, "account not found")
		case errors.Unwrap(err) == nil:
			return errorResponse(c, http.StatusBadRequest, err.Error())
		default:
			return errorResponse(c, http.StatusInternalServerError, "internal error")
		}
	}
	return c.Status(http.StatusOK).JSON(toProfileResponse(acct))
}

func toProfileResponse(a *domain.Account) *profileResponse {
	return &profileResponse{
		ID:            a.ID,
		Username:      a.Username,
		Email:         a.Email,
		DisplayName:   a.DisplayName,
		AvatarURL:     a.AvatarURL,
		CoverImageURL: a.CoverImageURL,
	}
}

func errorResponse(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}
