package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token parse failures, categorized so callers can tell a garbled token from
// a forged or stale one.
var (
	// ErrTokenMalformed is returned when a token is structurally invalid.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenSignatureInvalid is returned when the HMAC does not verify.
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	// ErrTokenExpired is returned when the token is past its exp claim.
	ErrTokenExpired = errors.New("token expired")
)

// AccessSubject carries the identity fields encoded into an access token.
type AccessSubject struct {
	AccountID   string
	Email       string
	Username    string
	DisplayName string
}

// AccessClaims holds JWT claims for the access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email       string `json:"email"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// RefreshClaims holds JWT claims for the refresh token. Only the subject is
// carried beyond the registered set; the persisted session slot, not the
// claims, decides whether a refresh token is still live.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// Audience is the aud claim stamped on every issued token. Set but not
// enforced on parse; the per-service secrets already fence tokens in.
const Audience = "vidtube-api"

// TokenCodec issues and verifies HS256 JWTs. Access and refresh tokens are
// signed with independent secrets and TTLs so a leaked access secret cannot
// forge refresh tokens. The codec does no I/O; both issue and parse are
// functions of their inputs and the supplied clock instant.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenCodec returns a TokenCodec signing with the given secrets. Both
// secrets must be non-empty and must differ.
func NewTokenCodec(accessSecret, refreshSecret []byte, issuer string, accessTTL, refreshTTL time.Duration) (*TokenCodec, error) {
	if len(accessSecret) == 0 || len(refreshSecret) == 0 {
		return nil, errors.New("security: token secrets must be non-empty")
	}
	if string(accessSecret) == string(refreshSecret) {
		return nil, errors.New("security: access and refresh secrets must differ")
	}
	return &TokenCodec{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		issuer:        issuer,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// AccessTTL returns the configured access token lifetime.
func (c *TokenCodec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (c *TokenCodec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess issues a short-lived access JWT for the given subject, with
// iat=now and exp=now+accessTTL. Returns the token string and its expiry.
func (c *TokenCodec) IssueAccess(sub AccessSubject, now time.Time) (string, time.Time, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now = now.UTC()
	expiresAt := now.Add(c.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   sub.AccountID,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:       sub.Email,
		Username:    sub.Username,
		DisplayName: sub.DisplayName,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.accessSecret)
	return token, expiresAt, err
}

// IssueRefresh issues a long-lived refresh JWT for the given account, with
// iat=now and exp=now+refreshTTL. Returns the token string and its expiry.
// A random jti keeps two tokens minted within the same second distinct, which
// rotation depends on: the new token must never equal the one it replaces.
func (c *TokenCodec) IssueRefresh(accountID string, now time.Time) (string, time.Time, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", time.Time{}, err
	}
	now = now.UTC()
	expiresAt := now.Add(c.refreshTTL)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   accountID,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.refreshSecret)
	return token, expiresAt, err
}

// ParseAccess verifies an access token against the access secret as of now.
// Returns ErrTokenMalformed, ErrTokenSignatureInvalid, or ErrTokenExpired on
// failure.
func (c *TokenCodec) ParseAccess(tokenString string, now time.Time) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.parse(tokenString, claims, c.accessSecret, now); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token against the refresh secret as of now.
// Cryptographic validity only; the session slot equality check is the
// controller's job.
func (c *TokenCodec) ParseRefresh(tokenString string, now time.Time) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.parse(tokenString, claims, c.refreshSecret, now); err != nil {
		return nil, err
	}
	return claims, nil
}

func (c *TokenCodec) parse(tokenString string, claims jwt.Claims, secret []byte, now time.Time) error {
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrTokenSignatureInvalid
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return classifyTokenError(err)
	}
	if !token.Valid {
		return ErrTokenSignatureInvalid
	}
	return nil
}

// classifyTokenError maps jwt/v5 sentinel errors onto the codec's taxonomy.
// Anything the library cannot even decode counts as malformed.
func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrTokenMalformed
	}
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
