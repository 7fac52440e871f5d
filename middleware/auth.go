package middleware

import (
	"context"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kevinaaaquil/ontimenews/backend/apperr"
	"github.com/kevinaaaquil/ontimenews/backend/models"
	"github.com/kevinaaaquil/ontimenews/backend/service"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	claimsKey contextKey = "claims"
	userKey   contextKey = "user"
)

type TokenVerifier interface {
	Verify(token string) (*service.Claims, error)
}

type UserLookup interface {
	UserByEmail(ctx context.Context, email string) (*models.User, error)
}

// RequireAuthenticated rejects the request with 401 unless it carries a
// valid bearer token. Verified claims are stored in the request context.
func RequireAuthenticated(tokens TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				apperr.Write(w, apperr.Unauthorized("missing authorization header"))
				return
			}
			parts := strings.SplitN(auth, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				apperr.Write(w, apperr.Unauthorized("invalid authorization format"))
				return
			}
			claims, err := tokens.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				apperr.Write(w, apperr.Unauthorized("invalid or expired token"))
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after RequireAuthenticated. It looks the caller up
// on every request and rejects with 403 unless the stored role is admin.
// Lookup failures are logged with their cause and answered with 500.
func RequireAdmin(users UserLookup, log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				apperr.Write(w, apperr.Unauthorized("authentication required"))
				return
			}
			user, err := users.UserByEmail(r.Context(), claims.Email)
			if err != nil {
				log.Error().
					Err(err).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("request_id", chimw.GetReqID(r.Context())).
					Str("email", claims.Email).
					Msg("failed to load user")
				apperr.Write(w, apperr.Internal("failed to load user", err))
				return
			}
			if !user.IsAdmin() {
				apperr.Write(w, apperr.Forbidden("admin access required"))
				return
			}
			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*service.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*service.Claims)
	return c, ok && c != nil
}

// EmailFromContext returns the authenticated email, or "" for anonymous requests.
func EmailFromContext(ctx context.Context) string {
	if c, ok := ClaimsFromContext(ctx); ok {
		return c.Email
	}
	return ""
}

// UserFromContext returns the user RequireAdmin loaded, if it ran.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

// WithClaims returns ctx carrying claims, as RequireAuthenticated would.
func WithClaims(ctx context.Context, claims *service.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}
