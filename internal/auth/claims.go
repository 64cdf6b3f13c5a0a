package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims carried by control API tokens.
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// HasScope reports whether the space-separated scope claim contains s.
func (c *Claims) HasScope(s string) bool {
	for _, granted := range strings.Fields(c.Scope) {
		if granted == s {
			return true
		}
	}
	return false
}
