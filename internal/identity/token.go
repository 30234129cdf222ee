package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryHint extracts the exp claim from a token that happens to be a
// JWT. The signature is deliberately not verified: the client cannot
// verify it and must not try. The hint only schedules revalidation,
// the identity service stays the sole authority on token validity.
func ExpiryHint(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
