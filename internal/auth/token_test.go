package auth

import (
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func signClaims(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func baseClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub":  "42",
		"auth": true,
		"iss":  Issuer,
		"aud":  Audience,
		"exp":  now.Add(time.Hour).Unix(),
		"iat":  now.Unix(),
	}
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := NewTokenCodec(testSecret, time.Hour)

	token, err := codec.Issue(42)
	require.NoError(t, err)

	userID, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestTokenCodec_RoundTripWideUserID(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("uint is 32 bits on this platform")
	}
	codec := NewTokenCodec(testSecret, time.Hour)

	id := uint(math.MaxUint32)
	id++
	token, err := codec.Issue(id)
	require.NoError(t, err)

	userID, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, userID)
}

func TestTokenCodec_DefaultTTL(t *testing.T) {
	codec := NewTokenCodec(testSecret, 0)
	assert.Equal(t, 100*time.Hour, codec.TTL())
}

func TestTokenCodec_UniqueTokens(t *testing.T) {
	codec := NewTokenCodec(testSecret, time.Hour)

	a, err := codec.Issue(1)
	require.NoError(t, err)
	b, err := codec.Issue(1)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestTokenCodec_Expired(t *testing.T) {
	codec := NewTokenCodec(testSecret, time.Hour)
	codec.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := codec.Issue(7)
	require.NoError(t, err)

	codec.now = time.Now
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestTokenCodec_ValidUntilExpiry(t *testing.T) {
	issuedAt := time.Now()
	codec := NewTokenCodec(testSecret, time.Hour)
	codec.now = func() time.Time { return issuedAt }

	token, err := codec.Issue(7)
	require.NoError(t, err)

	codec.now = func() time.Time { return issuedAt.Add(59 * time.Minute) }
	userID, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), userID)

	codec.now = func() time.Time { return issuedAt.Add(61 * time.Minute) }
	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestTokenCodec_Rejections(t *testing.T) {
	codec := NewTokenCodec(testSecret, time.Hour)
	valid, err := codec.Issue(42)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, baseClaims()).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	withoutAuth := baseClaims()
	delete(withoutAuth, "auth")

	authFalse := baseClaims()
	authFalse["auth"] = false

	wrongIssuer := baseClaims()
	wrongIssuer["iss"] = "someone-else"

	badSubject := baseClaims()
	badSubject["sub"] = "not-a-number"

	noExpiry := baseClaims()
	delete(noExpiry, "exp")

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "malformed.token.here"},
		{"tampered payload", tampered},
		{"wrong secret", signClaims(t, baseClaims(), "another-secret-another-secret-another")},
		{"alg none", noneToken},
		{"missing auth claim", signClaims(t, withoutAuth, testSecret)},
		{"auth claim false", signClaims(t, authFalse, testSecret)},
		{"wrong issuer", signClaims(t, wrongIssuer, testSecret)},
		{"non numeric subject", signClaims(t, badSubject, testSecret)},
		{"no expiry", signClaims(t, noExpiry, testSecret)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidCredential)
		})
	}
}

func TestTokenCodec_MissingToken(t *testing.T) {
	codec := NewTokenCodec(testSecret, time.Hour)
	_, err := codec.Verify("")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestTokenCodec_IssueRequiresSecretAndUser(t *testing.T) {
	_, err := NewTokenCodec("", time.Hour).Issue(1)
	assert.Error(t, err)

	_, err = NewTokenCodec(testSecret, time.Hour).Issue(0)
	assert.Error(t, err)
}
