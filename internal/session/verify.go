// Package session owns the bearer-token lifecycle: structural verification,
// login against the catalog API, and the process-wide session state machine.
package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// VerifyFormat checks the token without any server round-trip: exactly three
// dot segments and a decodable claims payload. A payload without exp is valid
// indefinitely; with exp, the token is valid iff exp has not passed, compared
// in whole seconds with no skew allowance. Fails closed on any parse error.
func VerifyFormat(token string, now time.Time) bool {
	if strings.Count(token, ".") != 2 {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return false
	}
	if exp == nil {
		return true
	}
	return exp.Unix() >= now.Unix()
}
