// Package service exposes profile reads and updates for accounts.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vidtube/backend/internal/account/domain"
	"vidtube/backend/internal/account/repository"
)

var ErrNotFound = errors.New("account not found")

type AccountService struct {
	repo repository.Repository
}

func NewAccountService(repo repository.Repository) *AccountService {
	return &AccountService{repo: repo}
}

// Get returns the account for id, or ErrNotFound.
func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	acct, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding account: %w", err)
	}
	if acct == nil {
		return nil, ErrNotFound
	}
	return acct, nil
}

// UpdateProfile replaces the account's display name and email. Both fields are
// required; a blank field is a validation error rather than "keep current".
func (s *AccountService) UpdateProfile(ctx context.Context, id, displayName, email string) (*domain.Account, error) {
	displayName = strings.TrimSpace(displayName)
	email = strings.TrimSpace(strings.ToLower(email))
	if displayName == "" {
		return nil, errors.New("display name is required")
	}
	if email == "" {
		return nil, errors.New("email is required")
	}

	acct, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding account: %w", err)
	}
	if acct == nil {
		return nil, ErrNotFound
	}
	if err := s.repo.UpdateProfile(ctx, id, displayName, email); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	acct.DisplayName = displayName
	acct.Email = email
	return acct, nil
}
