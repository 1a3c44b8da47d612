package security

import "time"

// NewTestTokenCodec returns a TokenCodec with throwaway secrets for tests.
// Access TTL 15m, refresh TTL 240h.
func NewTestTokenCodec() (*TokenCodec, error) {
	return NewTokenCodec(
		[]byte("test-access-secret"),
		[]byte("test-refresh-secret"),
		"vidtube-auth",
		15*time.Minute,
		240*time.Hour,
	)
}
