package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aelexs/timekeeper/internal/domain"
)

// ErrTokenExpired is returned when a validly signed token has expired.
// Callers can use errors.Is to check for this condition without importing
// the JWT library directly.
var ErrTokenExpired = jwt.ErrTokenExpired

// Validator validates RS256 control API tokens.
type Validator struct {
	keyStore KeyStore
	issuer   string
	audience string
	scope    string
	clock    domain.Clock
}

// ValidatorConfig holds configuration for creating a Validator.
type ValidatorConfig struct {
	KeyStore KeyStore
	Issuer   string
	Audience string
	// Scope that every token must carry. Empty means domain.ControlScope.
	Scope string
	Clock domain.Clock
}

// NewValidator creates a new JWT validator.
func NewValidator(cfg ValidatorConfig) *Validator {
	scope := cfg.Scope
	if scope == "" {
		scope = domain.ControlScope
	}
	return &Validator{
		keyStore: cfg.KeyStore,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		scope:    scope,
		clock:    cfg.Clock,
	}
}

// ValidateAccessToken parses and fully validates a JWT access token.
// Every failure wraps domain.ErrUnauthorized.
func (v *Validator) ValidateAccessToken(tokenString string) (*Claims, error) {
	var claims Claims

	opts := []jwt.ParserOption{
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithTimeFunc(v.clock.Now),
		jwt.WithExpirationRequired(),
	}

	if _, err := jwt.ParseWithClaims(tokenString, &claims, v.keyFunc, opts...); err != nil {
		return nil, fmt.Errorf("invalid access token: %w: %w", domain.ErrUnauthorized, err)
	}

	if !claims.HasScope(v.scope) {
		return nil, fmt.Errorf("missing %q scope: %w", v.scope, domain.ErrForbidden)
	}

	return &claims, nil
}

func (v *Validator) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}

	kid, ok := token.Header["kid"].(string)
	if !ok || kid == "" {
		return nil, fmt.Errorf("missing or invalid kid in token header")
	}

	return v.keyStore.PublicKey(kid)
}
