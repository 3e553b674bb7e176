// Package auth issues and verifies the signed bearer credentials used by the API.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// Issuer is stamped into every token and required on verification.
	Issuer = "devconnector-api"
	// Audience identifies the clients a token is meant for.
	Audience = "devconnector-client"
	// DefaultTTL is the credential lifetime when none is configured.
	DefaultTTL = 100 * time.Hour
)

var (
	// ErrMissingCredential is returned when no token was presented.
	ErrMissingCredential = errors.New("missing credential")
	// ErrInvalidCredential is returned for bad signatures, expired or malformed tokens.
	ErrInvalidCredential = errors.New("invalid credential")
)

// TokenCodec signs and verifies HS256 tokens carrying a user id.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec creates a codec for the given secret. A non-positive ttl falls back to DefaultTTL.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of issued tokens.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue produces a signed token for userID.
func (c *TokenCodec) Issue(userID uint) (string, error) {
	if len(c.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}
	if userID == 0 {
		return "", fmt.Errorf("cannot issue token for empty user id")
	}

	now := c.now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(userID), 10),
		"auth": true,
		"iss":  Issuer,
		"aud":  Audience,
		"exp":  now.Add(c.ttl).Unix(),
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"jti":  uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify checks the signature and expiry of token and returns the user id it carries.
// Every failure wraps ErrInvalidCredential, except an empty token which is ErrMissingCredential.
func (c *TokenCodec) Verify(token string) (uint, error) {
	if token == "" {
		return 0, ErrMissingCredential
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("%w: unexpected claims type", ErrInvalidCredential)
	}
	if authFlag, _ := claims["auth"].(bool); !authFlag {
		return 0, fmt.Errorf("%w: auth claim not set", ErrInvalidCredential)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, fmt.Errorf("%w: missing subject", ErrInvalidCredential)
	}
	userID, err := strconv.ParseUint(sub, 10, strconv.IntSize)
	if err != nil || userID == 0 {
		return 0, fmt.Errorf("%w: malformed subject", ErrInvalidCredential)
	}

	return uint(userID), nil
}
