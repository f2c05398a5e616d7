package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"movie-watchlist/internal/metrics"
	"movie-watchlist/internal/model"
	"movie-watchlist/internal/security"
	"movie-watchlist/pkg/apierror"
)

type authenticator interface {
	Authenticate(ctx context.Context, token string) (model.Principal, error)
}

type contextKey string

const principalContextKey contextKey = "auth_principal"

// DefaultPublicPaths are reachable without a bearer token. A path matches when
// it equals an entry or continues it with a '/'.
var DefaultPublicPaths = []string{
	"/auth/register",
	"/auth/login",
	"/auth/streaming",
	"/docs",
	"/openapi.yaml",
	"/health",
	"/metrics",
}

type AuthMiddleware struct {
	auth        authenticator
	metrics     *metrics.Metrics
	publicPaths []string
}

func NewAuthMiddleware(auth authenticator, m *metrics.Metrics, publicPaths ...string) *AuthMiddleware {
	if len(publicPaths) == 0 {
		publicPaths = DefaultPublicPaths
	}
	return &AuthMiddleware{auth: auth, metrics: m, publicPaths: publicPaths}
}

// Resolve is the request gate. Outside the public paths it requires an
// "Authorization: Bearer <token>" header, resolves the identity behind the
// token and attaches it to the request context. Rejected requests never reach
// a handler.
func (m *AuthMiddleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || m.isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			m.metrics.GateRejected("missing_header")
			writeAPIError(w, apierror.Unauthenticated("missing or invalid authorization header").Wrap(model.ErrUnauthenticated))
			return
		}

		principal, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			m.metrics.GateRejected(rejectionReason(err))

			var apiErr *apierror.APIError
			if errors.As(err, &apiErr) {
				writeAPIError(w, apiErr)
				return
			}
			slog.Error("identity resolution failed", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected server error")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			writeAPIError(w, apierror.Unauthenticated("authentication required").Wrap(model.ErrUnauthenticated))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, _ := PrincipalFromContext(r.Context())
		if !principal.User.IsAdmin() {
			writeAPIError(w, apierror.Forbidden("admin privileges required").Wrap(model.ErrForbidden))
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func (m *AuthMiddleware) isPublic(path string) bool {
	for _, public := range m.publicPaths {
		if path == public || strings.HasPrefix(path, public+"/") {
			return true
		}
	}
	return false
}

func WithPrincipal(ctx context.Context, principal model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(model.Principal)
	return principal, ok
}

// bearerToken accepts exactly "Bearer <token>".
func bearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, security.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, model.ErrSessionNotFound):
		return "inactive_session"
	case errors.Is(err, model.ErrUserNotFound):
		return "unknown_user"
	case errors.Is(err, model.ErrUnauthenticated):
		return "suspended"
	default:
		return "error"
	}
}
