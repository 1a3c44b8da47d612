package domain

import (
	"errors"
	"time"
)

// Account is the core account entity. Username and email are unique across
// the directory and stored lowercase.
type Account struct {
	ID            string
	Username      string
	Email         string
	DisplayName   string
	AvatarURL     string
	CoverImageURL string // optional
	PasswordHash  string // never the raw password
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate validates the account for persistence. Returns an error describing
// the first validation failure.
func (a *Account) Validate() error {
	if a.Username == "" {
		return errors.New("username is required")
	}
	if a.Email == "" {
		return errors.New("email is required")
	}
	if a.DisplayName == "" {
		return errors.New("display name is required")
	}
	if a.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}
