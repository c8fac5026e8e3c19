// internal/token/token.go
//
// Signed session tokens.
//
// A client holds one token naming its game session. Tokens are HS256 JWTs
// carrying the session ID ("sid") plus issued-at and expiry claims. The HMAC
// key is derived from the configured secret with HKDF-SHA256, so the raw
// secret is never used as a signing key directly.

package token

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// ErrInvalid is returned for malformed, forged or expired tokens.
var ErrInvalid = errors.New("token: invalid session token")

const keyInfo = "guesstheflag session token v1"

type claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session tokens.
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewIssuer derives a signing key from secret. ttl bounds token lifetime.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("token: empty secret")
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return &Issuer{key: key, ttl: ttl, now: time.Now}, nil
}

// Sign returns a token for sessionID and its expiry.
func (i *Issuer) Sign(sessionID string) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	ss, err := t.SignedString(i.key)
	return ss, exp, err
}

// Parse verifies tok and returns the session ID it names.
func (i *Issuer) Parse(tok string) (string, error) {
	var c claims
	t, err := jwt.ParseWithClaims(tok, &c, func(*jwt.Token) (interface{}, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !t.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.SessionID == "" {
		return "", ErrInvalid
	}
	return c.SessionID, nil
}
