package repository

import (
	"context"

	"vidtube/backend/internal/audit/domain"
)

// Repository defines persistence for security events.
type Repository interface {
	Create(ctx context.Context, e *domain.SecurityEvent) error
	ListByAccount(ctx context.Context, accountID string, limit int32) ([]*domain.SecurityEvent, error)
}
