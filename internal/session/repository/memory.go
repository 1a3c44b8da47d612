package repository

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory Repository implementation with the same
// compare-and-swap semantics as the Postgres one. Used in tests and when
// running without a database.
type MemoryRepository struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemoryRepository returns an empty in-memory session slot repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]string)}
}

// Get returns the slot value for the account; missing accounts read as empty.
func (r *MemoryRepository) Get(ctx context.Context, accountID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[accountID], nil
}

// TrySet replaces the slot value with next only if it currently holds
// expected; the mutex makes the compare and the swap one atomic step.
func (r *MemoryRepository) TrySet(ctx context.Context, accountID, expected, next string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.m[accountID] != expected {
		return ErrConflict
	}
	r.m[accountID] = next
	return nil
}

// Clear empties the slot. Idempotent.
func (r *MemoryRepository) Clear(ctx context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[accountID] = ""
	return nil
}
