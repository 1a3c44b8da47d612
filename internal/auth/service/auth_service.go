// Package service implements credential verification, dual-token issuance,
// refresh-token rotation with reuse detection, and session termination.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"vidtube/backend/internal/account/domain"
	"vidtube/backend/internal/audit"
	"vidtube/backend/internal/security"
	sessionrepo "vidtube/backend/internal/session/repository"
)

// Sentinel errors for the auth service; the HTTP handler maps them to status
// codes. Login deliberately reports unknown-account and wrong-password as the
// same ErrInvalidCredentials so callers cannot probe which check failed.
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenReuseDetected = errors.New("refresh token reuse detected")
	ErrUsernameTaken      = errors.New("username already registered")
	ErrEmailTaken         = errors.New("email already registered")
)

// loginInstallRetries bounds the compare-and-swap loop that installs a fresh
// refresh token on login. Each retry means another login for the same account
// won the slot in between; a handful of attempts is plenty.
const loginInstallRetries = 4

// TokenPair holds a freshly issued access/refresh token pair.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	TokenPair
	Account *domain.Account
}

// AccountDirectory is the minimal account directory needed by the auth service.
type AccountDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
}

// SessionSlots is the session slot store needed by the auth service. TrySet
// returns sessionrepo.ErrConflict when the slot no longer holds the expected
// value.
type SessionSlots interface {
	Get(ctx context.Context, accountID string) (string, error)
	TrySet(ctx context.Context, accountID, expected, next string) error
	Clear(ctx context.Context, accountID string) error
}

// AuthService implements register, login, refresh, logout, and password change.
type AuthService struct {
	accounts AccountDirectory
	slots    SessionSlots
	hasher   *security.Hasher
	codec    *security.TokenCodec
	events   audit.Recorder

	loginFailures metric.Int64Counter
	reuseDetected metric.Int64Counter

	nowF func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies. events
// may be nil when security-event recording is not wired.
func NewAuthService(
	accounts AccountDirectory,
	slots SessionSlots,
	hasher *security.Hasher,
	codec *security.TokenCodec,
	events audit.Recorder,
) *AuthService {
	meter := otel.Meter("vidtube/backend/internal/auth")
	loginFailures, _ := meter.Int64Counter("auth.login_failures",
		metric.WithDescription("Login attempts rejected for bad credentials"))
	reuseDetected, _ := meter.Int64Counter("auth.token_reuse_detected",
		metric.WithDescription("Refresh attempts with an already-rotated token; a theft signal when repeated"))
	return &AuthService{
		accounts:      accounts,
		slots:         slots,
		hasher:        hasher,
		codec:         codec,
		events:        events,
		loginFailures: loginFailures,
		reuseDetected: reuseDetected,
		nowF:          time.Now,
	}
}

// Register creates an account with the given credentials and an empty session
// slot. Returns the created account; no tokens are issued, the client logs in
// afterwards.
func (s *AuthService) Register(ctx context.Context, username, email, password, displayName, avatarURL, coverImageURL string) (*domain.Account, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	email = strings.TrimSpace(strings.ToLower(email))
	displayName = strings.TrimSpace(displayName)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if displayName == "" {
		return nil, errors.New("display name is required")
	}

	if existing, err := s.accounts.GetByUsernameOrEmail(ctx, username); err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}
	if existing, err := s.accounts.GetByUsernameOrEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	} else if existing != nil {
		return nil, ErrEmailTaken
	}

	hashed, err := s.hasher.Hash(ctx, []byte(password))
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	now := s.nowF().UTC()
	acct := &domain.Account{
		ID:            uuid.New().String(),
		Username:      username,
		Email:         email,
		DisplayName:   displayName,
		AvatarURL:     strings.TrimSpace(avatarURL),
		CoverImageURL: strings.TrimSpace(coverImageURL),
		PasswordHash:  hashed,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := acct.Validate(); err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}
	s.logEvent(ctx, acct.ID, audit.ActionRegister, "")
	return acct, nil
}

// Login authenticates by username or email and installs a fresh refresh token
// in the account's session slot, implicitly terminating any prior session
// (single concurrent session per account).
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(strings.ToLower(identifier))
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	acct, err := s.accounts.GetByUsernameOrEmail(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("finding account: %w", err)
	}
	if acct == nil {
		s.loginFailures.Add(ctx, 1)
		s.logEvent(ctx, "", audit.ActionLoginFailure, "unknown identifier")
		return nil, ErrInvalidCredentials
	}
	ok, err := s.hasher.Verify(ctx, []byte(password), acct.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		s.loginFailures.Add(ctx, 1)
		s.logEvent(ctx, acct.ID, audit.ActionLoginFailure, "password mismatch")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(acct)
	if err != nil {
		return nil, err
	}
	if err := s.installRefreshToken(ctx, acct.ID, pair.RefreshToken); err != nil {
		return nil, err
	}
	s.logEvent(ctx, acct.ID, audit.ActionLoginSuccess, "")
	return &LoginResult{TokenPair: *pair, Account: acct}, nil
}

// installRefreshToken overwrites the session slot with next. The slot is only
// ever mutated conditionally, so the overwrite is a bounded Get+TrySet loop:
// of any number of concurrent writers each pass has exactly one winner, and a
// loser retries against the value that beat it.
func (s *AuthService) installRefreshToken(ctx context.Context, accountID, next string) error {
	for i := 0; i < loginInstallRetries; i++ {
		current, err := s.slots.Get(ctx, accountID)
		if err != nil {
			return fmt.Errorf("reading session slot: %w", err)
		}
		err = s.slots.TrySet(ctx, accountID, current, next)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sessionrepo.ErrConflict) {
			return fmt.Errorf("installing refresh token: %w", err)
		}
	}
	return fmt.Errorf("installing refresh token: %w", sessionrepo.ErrConflict)
}

// Refresh exchanges a currently valid refresh token for a new token pair. The
// presented token must be cryptographically valid and byte-for-byte equal to
// the persisted slot value; of N concurrent refreshes with the same token,
// exactly one wins and the rest fail with ErrTokenReuseDetected.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	if presented == "" {
		return nil, security.ErrTokenMalformed
	}
	claims, err := s.codec.ParseRefresh(presented, s.nowF())
	if err != nil {
		return nil, err
	}
	acct, err := s.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("finding account: %w", err)
	}
	if acct == nil {
		return nil, ErrAccountNotFound
	}

	pair, err := s.issuePair(acct)
	if err != nil {
		return nil, err
	}
	if err := s.slots.TrySet(ctx, acct.ID, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, sessionrepo.ErrConflict) {
			s.reuseDetected.Add(ctx, 1)
			s.logEvent(ctx, acct.ID, audit.ActionTokenReuse, "")
			return nil, ErrTokenReuseDetected
		}
		return nil, fmt.Errorf("rotating refresh token: %w", err)
	}
	return pair, nil
}

// Logout clears the account's session slot. Idempotent; logging out twice is
// not an error.
func (s *AuthService) Logout(ctx context.Context, accountID string) error {
	if err := s.slots.Clear(ctx, accountID); err != nil {
		return fmt.Errorf("clearing session slot: %w", err)
	}
	s.logEvent(ctx, accountID, audit.ActionLogout, "")
	return nil
}

// ChangePassword verifies oldPassword and replaces the stored digest with a
// hash of newPassword. The session slot is left untouched: an outstanding
// refresh token keeps working after a password change.
func (s *AuthService) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("finding account: %w", err)
	}
	if acct == nil {
		return ErrAccountNotFound
	}
	ok, err := s.hasher.Verify(ctx, []byte(oldPassword), acct.PasswordHash)
	if err != nil {
		return fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		s.logEvent(ctx, accountID, audit.ActionPasswordChangeFailure, "old password mismatch")
		return ErrInvalidCredentials
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hashed, err := s.hasher.Hash(ctx, []byte(newPassword))
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.accounts.UpdatePasswordHash(ctx, accountID, hashed); err != nil {
		return fmt.Errorf("storing password hash: %w", err)
	}
	s.logEvent(ctx, accountID, audit.ActionPasswordChange, "")
	return nil
}

func (s *AuthService) issuePair(acct *domain.Account) (*TokenPair, error) {
	now := s.nowF()
	access, accessExp, err := s.codec.IssueAccess(security.AccessSubject{
		AccountID:   acct.ID,
		Email:       acct.Email,
		Username:    acct.Username,
		DisplayName: acct.DisplayName,
	}, now)
	if err != nil {
		return nil, fmt.Errorf("issuing access token: %w", err)
	}
	refresh, refreshExp, err := s.codec.IssueRefresh(acct.ID, now)
	if err != nil {
		return nil, fmt.Errorf("issuing refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *AuthService) logEvent(ctx context.Context, accountID, action, metadata string) {
	if s.events == nil {
		return
	}
	s.events.LogEvent(ctx, accountID, action, metadata)
}

func validateUsername(username string) error {
	if username == "" {
		return errors.New("username is required")
	}
	const pattern = `^[a-z0-9._-]{3,30}$`
	if ok, _ := regexp.MatchString(pattern, username); !ok {
		return errors.New("username must be 3-30 characters of a-z, 0-9, '.', '_' or '-'")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	if ok, _ := regexp.MatchString(simpleEmail, email); !ok {
		return errors.New("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	var hasLetter, hasNumber bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
			hasNumber = true
		}
	}
	if !hasLetter || !hasNumber {
		return errors.New("password must contain at least one letter and one number")
	}
	return nil
}
