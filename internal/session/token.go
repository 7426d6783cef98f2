package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// accessExpiry reads the exp claim without verifying the signature. The
// console cannot verify backend tokens; exp only drives the local
// authenticated/anonymous decision. Tokens that are not JWTs or carry no
// exp return the zero time.
func accessExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
