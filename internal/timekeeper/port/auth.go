package port

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aelexs/timekeeper/internal/auth"
	"github.com/aelexs/timekeeper/internal/domain"
	"github.com/aelexs/timekeeper/internal/errmap"
)

// TokenValidator validates bearer tokens. *auth.Validator satisfies it.
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

var _ TokenValidator = (*auth.Validator)(nil)

type claimsKey struct{}

// ClaimsFromContext returns the validated claims of the request, if any.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

// requireToken rejects requests without a valid bearer token. Browsers
// cannot set headers on an EventSource, so the event stream also accepts
// the token as an access_token query parameter.
func requireToken(v TokenValidator, logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			errmap.WriteHTTPError(w, domain.ErrUnauthorized)
			return
		}

		claims, err := v.ValidateAccessToken(token)
		if err != nil {
			logger.Debug("token rejected",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
			errmap.WriteHTTPError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if r.Method == http.MethodGet && r.URL.Path == "/v1/events" {
		return r.URL.Query().Get("access_token")
	}
	return ""
}
