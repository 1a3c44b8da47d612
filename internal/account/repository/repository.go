package repository

import (
	"context"

	"vidtube/backend/internal/account/domain"
)

// Repository defines persistence for accounts (the user directory).
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	UpdateProfile(ctx context.Context, id, displayName, email string) error
}
