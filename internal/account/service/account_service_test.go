package service

import (
	"context"
	"errors"
	"testing"

	"vidtube/backend/internal/account/domain"
)

type memRepo struct {
	byID map[string]*domain.Account
}

func (m *memRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if a, ok := m.byID[id]; ok {
		a2 := *a
		return &a2, nil
	}
	return nil, nil
}

func (m *memRepo) GetByUsernameOrEmail(ctx context.Context, identifier string) (*domain.Account, error) {
	return nil, nil
}

func (m *memRepo) Create(ctx context.Context, a *domain.Account) error { return nil }

func (m *memRepo) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	return nil
}

func (m *memRepo) UpdateProfile(ctx context.Context, id, displayName, email string) error {
	if a, ok := m.byID[id]; ok {
		a.DisplayName = displayName
		a.Email = email
	}
	return nil
}

func newTestService() (*AccountService, *memRepo) {
	repo := &memRepo{byID: map[string]*domain.Account{
		"id-1": {
			ID:          "id-1",
			Username:    "alice",
			Email:       "alice@example.com",
			DisplayName: "Alice",
		},
	}}
	return NewAccountService(repo), repo
}

func TestGet(t *testing.T) {
	s, _ := newTestService()

	acct, err := s.Get(context.Background(), "id-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if acct.Username != "alice" {
		t.Errorf("Username = %q, want alice", acct.Username)
	}

	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing: got %v, want ErrNotFound", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	s, repo := newTestService()

	acct, err := s.UpdateProfile(context.Background(), "id-1", "Alice B", "ALICE.B@Example.com")
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if acct.DisplayName != "Alice B" {
		t.Errorf("DisplayName = %q, want %q", acct.DisplayName, "Alice B")
	}
	if acct.Email != "alice.b@example.com" {
		t.Errorf("Email = %q, want lowercased", acct.Email)
	}
	if repo.byID["id-1"].DisplayName != "Alice B" {
		t.Error("change not persisted")
	}
}

func TestUpdateProfile_Validation(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	if _, err := s.UpdateProfile(ctx, "id-1", "", "a@b.com"); err == nil {
		t.Error("blank display name accepted")
	}
	if _, err := s.UpdateProfile(ctx, "id-1", "Alice", ""); err == nil {
		t.Error("blank email accepted")
	}
	if _, err := s.UpdateProfile(ctx, "missing", "Alice", "a@b.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown account: got %v, want ErrNotFound", err)
	}
}
