package devserver

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// MintToken issues a signed dev credential for an arbitrary user. This exists
// only so local work and tests do not need the production identity provider.
func MintToken(secret, userID, name, role string) (string, error) {
	now := time.Now()
	claims := devClaims{
		Name: name,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
