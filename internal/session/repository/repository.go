// Package repository persists the per-account session slot: the single
// currently-valid refresh token value for an account, or empty when the
// account has no active session.
package repository

import (
	"context"
	"errors"
)

// ErrConflict is returned by TrySet when the slot does not hold the expected
// previous value. For a refresh flow this means the presented token was
// already rotated out (or never matched), the trigger for reuse detection.
var ErrConflict = errors.New("session: slot does not hold expected value")

// Repository defines the session slot primitives. TrySet is the only
// conditional mutation; callers never read-modify-write the slot themselves.
type Repository interface {
	// Get returns the slot value for the account; empty string means no
	// active session. Missing accounts read as empty.
	Get(ctx context.Context, accountID string) (string, error)
	// TrySet atomically replaces the slot value with next, but only if the
	// slot currently holds expected. Returns ErrConflict otherwise.
	TrySet(ctx context.Context, accountID, expected, next string) error
	// Clear empties the slot. Idempotent; clearing an empty slot succeeds.
	Clear(ctx context.Context, accountID string) error
}
