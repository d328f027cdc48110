package common

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestHMACVerifier_RoundTrip(t *testing.T) {
	token, err := GenerateToken(testSecret, 42, time.Hour)
	require.NoError(t, err)

	verifier := NewHMACVerifier(testSecret)
	userID, err := verifier.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, uint64(42), userID)
}

func TestHMACVerifier_WrongSecret(t *testing.T) {
	token, err := GenerateToken("other-secret", 42, time.Hour)
	require.NoError(t, err)

	verifier := NewHMACVerifier(testSecret)
	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestHMACVerifier_ExpiredToken(t *testing.T) {
	token, err := GenerateToken(testSecret, 42, -time.Minute)
	require.NoError(t, err)

	verifier := NewHMACVerifier(testSecret)
	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestHMACVerifier_Garbage(t *testing.T) {
	verifier := NewHMACVerifier(testSecret)
	_, err := verifier.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func signClaims(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	claims["exp"] = jwt.NewNumericDate(time.Now().Add(time.Hour))
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestHMACVerifier_ClaimFallback(t *testing.T) {
	verifier := NewHMACVerifier(testSecret)

	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   uint64
	}{
		{"user_id numeric", jwt.MapClaims{"user_id": 7}, 7},
		{"sub string", jwt.MapClaims{"sub": "9"}, 9},
		{"id numeric", jwt.MapClaims{"id": 11}, 11},
		{"uid string", jwt.MapClaims{"uid": "13"}, 13},
		{"user_id wins over sub", jwt.MapClaims{"user_id": 7, "sub": "9"}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, err := verifier.Verify(signClaims(t, tt.claims))
			assert.NoError(t, err)
			assert.Equal(t, tt.want, userID)
		})
	}
}

func TestHMACVerifier_NoUsableIdentity(t *testing.T) {
	verifier := NewHMACVerifier(testSecret)
	_, err := verifier.Verify(signClaims(t, jwt.MapClaims{"sub": "not-numeric"}))
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
