package auth

import (
	"context"
	"net/http"
	"strings"
)

// CookieName holds the session token for browser clients.
const CookieName = "ride_session"

type contextKey string

const claimsKey contextKey = "ridedash-session-claims"

// WithClaims stores claims on the context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// FromContext retrieves claims stored by WithClaims.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// Middleware rejects requests without a valid session token.
type Middleware struct {
	Config Config
	// OnReject writes the 401 response; defaults to http.Error.
	OnReject func(w http.ResponseWriter, r *http.Request, err error)
}

// NewMiddleware constructs Middleware.
func NewMiddleware(cfg Config) Middleware {
	return Middleware{Config: cfg}
}

// Wrap wraps an http.Handler with authentication.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := Parse(tokenFromRequest(r), m.Config)
		if err != nil {
			if m.OnReject != nil {
				m.OnReject(w, r, err)
				return
			}
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// tokenFromRequest prefers a bearer header and falls back to the session cookie.
// Other authorization schemes are ignored.
func tokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}
