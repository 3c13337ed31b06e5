package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, "ana@example.com", true, 15)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)

	claims, err := ParseAccessToken("secret", tok.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.True(t, claims.IsAdmin)
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, err := NewAccessToken("secret", 1, "a@b.c", false, 5)
	require.NoError(t, err)
	expired, err := NewAccessToken("secret", 1, "a@b.c", false, -5)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1", "exp": time.Now().Add(time.Hour).Unix()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}).
		SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"wrong secret": good.Token,
		"expired":      expired.Token,
		"alg none":     none,
		"no subject":   noSubject,
		"garbage":      "not.a.jwt",
	} {
		secret := "secret"
		if name == "wrong secret" {
			secret = "other"
		}
		_, err := ParseAccessToken(secret, raw)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}

func TestRefreshTokens(t *testing.T) {
	a, err := NewRefreshToken(7)
	require.NoError(t, err)
	b, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.Len(t, a.Raw, 96)
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.Len(t, HashRefreshRaw(a.Raw), 64)
	assert.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
}

func TestPasswordHashing(t *testing.T) {
	h, err := HashPassword("Str0ng!pass", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "Str0ng!pass"))
	assert.False(t, VerifyPassword(h, "str0ng!pass"))
}

func TestCheckPasswordPolicy(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"Str0ng!pass", nil},
		{"S0!short", nil},
		{"S0!shrt", ErrPasswordTooShort},
		{"weak0!pass", ErrPasswordUppercase},
		{"NoDigits!!", ErrPasswordDigit},
		{"NoSpecial00", ErrPasswordSpecial},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, CheckPasswordPolicy(tc.in), tc.in)
	}
}
