package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestAuthService_TokenRoundTrip(t *testing.T) {
	svc := NewAuthService(testSecret, time.Minute)

	token, err := svc.GenerateToken("user-1")
	require.NoError(t, err)

	sub, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestAuthService_RejectsExpiredToken(t *testing.T) {
	svc := NewAuthService(testSecret, time.Minute)
	issued := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return issued }

	token, err := svc.GenerateToken("user-1")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_RejectsForeignSecretAndAlgorithm(t *testing.T) {
	svc := NewAuthService(testSecret, time.Minute)
	other := NewAuthService("ffffffffffffffffffffffffffffffff", time.Minute)

	token, err := other.GenerateToken("user-1")
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_Passwords(t *testing.T) {
	svc := NewAuthService(testSecret, 0)
	assert.Equal(t, time.Hour, svc.AccessTokenTTL())

	hash, err := svc.HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.NoError(t, svc.CheckPassword(hash, "s3cret-pass"))
	assert.Error(t, svc.CheckPassword(hash, "wrong"))
}

func TestAuthService_RefreshTokensAreUnique(t *testing.T) {
	svc := NewAuthService(testSecret, time.Minute)
	a, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	b, err := svc.GenerateRefreshToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
