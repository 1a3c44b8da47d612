package security

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Hasher hashes and verifies passwords using bcrypt. Callers must not log or
// persist plaintext passwords.
//
// bcrypt work is CPU-bound, so each call acquires a slot on a weighted
// semaphore before hashing; acquisition honors ctx cancellation, which keeps a
// burst of logins from pinning every scheduler thread on hashing.
type Hasher struct {
	Cost int

	sem *semaphore.Weighted
}

// NewHasher returns a Hasher with the given bcrypt cost (4–31) and at most
// maxConcurrent hashing operations in flight. maxConcurrent <= 0 defaults to 4.
func NewHasher(cost, maxConcurrent int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Hasher{Cost: cost, sem: semaphore.NewWeighted(int64(maxConcurrent))}
}

// Hash produces a bcrypt hash of password. Returns the hash as a string
// suitable for storage. Fails only on resource exhaustion or ctx cancellation.
func (h *Hasher) Hash(ctx context.Context, password []byte) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire hashing slot: %w", err)
	}
	defer h.sem.Release(1)
	b, err := bcrypt.GenerateFromPassword(password, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether password matches the stored bcrypt hash. A mismatch
// is (false, nil), not an error; the error return is reserved for malformed
// hashes and ctx cancellation.
func (h *Hasher) Verify(ctx context.Context, password []byte, hash string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("acquire hashing slot: %w", err)
	}
	defer h.sem.Release(1)
	err := bcrypt.CompareHashAndPassword([]byte(hash), password)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
