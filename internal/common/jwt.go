package common

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier resolves a bearer credential to a user identity. The token
// issuer itself is an external collaborator; this side only verifies.
type TokenVerifier interface {
	Verify(tokenString string) (uint64, error)
}

// identityClaims are the claim names accepted as the subject identity,
// tried in order. Different issuers in the organization use different
// conventions, so all of them are tolerated.
var identityClaims = []string{"user_id", "sub", "id", "uid"}

type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(tokenString string) (uint64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrUnauthenticated
	}
	userID, ok := identityFromClaims(claims)
	if !ok {
		return 0, fmt.Errorf("%w: no usable identity claim", ErrUnauthenticated)
	}
	return userID, nil
}

func identityFromClaims(claims jwt.MapClaims) (uint64, bool) {
	for _, name := range identityClaims {
		raw, ok := claims[name]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case float64:
			if v > 0 {
				return uint64(v), true
			}
		case string:
			if id, err := strconv.ParseUint(v, 10, 64); err == nil && id > 0 {
				return id, true
			}
		}
	}
	return 0, false
}

// GenerateToken mints an HS256 token carrying the user id. Used by tests
// and local tooling; production tokens come from the central issuer.
func GenerateToken(secret string, userID uint64, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     jwt.NewNumericDate(time.Now()),
		"exp":     jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
