package domain

import "time"

// SecurityEvent represents one security-relevant occurrence on an account:
// a login outcome, a refresh-token reuse detection, a logout, or a password
// change.
type SecurityEvent struct {
	ID        string
	AccountID string // empty when the event could not be tied to an account
	Action    string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
