package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-watchlist/internal/metrics"
	"movie-watchlist/internal/model"
	"movie-watchlist/internal/security"
	"movie-watchlist/pkg/apierror"
)

type stubAuthenticator struct {
	principal model.Principal
	err       error
	calls     int
	lastToken string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (model.Principal, error) {
	s.calls++
	s.lastToken = token
	return s.principal, s.err
}

func okHandler(reached *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*reached = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_Resolve(t *testing.T) {
	t.Run("public paths bypass the gate", func(t *testing.T) {
		auth := &stubAuthenticator{}
		mw := NewAuthMiddleware(auth, metrics.NewNop())

		for _, path := range []string{"/auth/login", "/auth/register", "/docs", "/openapi.yaml", "/health", "/auth/streaming/x"} {
			reached := false
			rec := httptest.NewRecorder()
			mw.Resolve(okHandler(&reached)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			assert.True(t, reached, path)
			assert.Equal(t, http.StatusOK, rec.Code, path)
		}
		assert.Zero(t, auth.calls)
	})

	t.Run("prefix match stops at segment boundary", func(t *testing.T) {
		auth := &stubAuthenticator{}
		mw := NewAuthMiddleware(auth, metrics.NewNop())

		reached := false
		rec := httptest.NewRecorder()
		mw.Resolve(okHandler(&reached)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/loginx", nil))

		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed headers are rejected before authentication", func(t *testing.T) {
		m := metrics.NewNop()
		auth := &stubAuthenticator{}
		mw := NewAuthMiddleware(auth, m)

		for _, header := range []string{"", "Bearer", "Bearer ", "bearer abc", "Token abc", "Bearer a b"} {
			reached := false
			req := httptest.NewRequest(http.MethodGet, "/watchlist/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			mw.Resolve(okHandler(&reached)).ServeHTTP(rec, req)

			assert.False(t, reached, header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		}
		assert.Zero(t, auth.calls)
		assert.Equal(t, float64(6), testutil.ToFloat64(m.GateRejections.WithLabelValues("missing_header")))
	})

	t.Run("invalid token", func(t *testing.T) {
		m := metrics.NewNop()
		auth := &stubAuthenticator{err: apierror.Unauthenticated("invalid or expired token").Wrap(security.ErrInvalidToken)}
		mw := NewAuthMiddleware(auth, m)

		reached := false
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer abc")
		rec := httptest.NewRecorder()
		mw.Resolve(okHandler(&reached)).ServeHTTP(rec, req)

		assert.False(t, reached)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "abc", auth.lastToken)
		assert.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)
		assert.Equal(t, float64(1), testutil.ToFloat64(m.GateRejections.WithLabelValues("invalid_token")))
	})

	t.Run("store failure is an internal error", func(t *testing.T) {
		auth := &stubAuthenticator{err: errors.New("connection refused")}
		mw := NewAuthMiddleware(auth, metrics.NewNop())

		reached := false
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer abc")
		rec := httptest.NewRecorder()
		mw.Resolve(okHandler(&reached)).ServeHTTP(rec, req)

		assert.False(t, reached)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})

	t.Run("attaches the principal", func(t *testing.T) {
		auth := &stubAuthenticator{principal: model.Principal{User: model.User{ID: 3, Role: model.RoleUser}, Token: "abc"}}
		mw := NewAuthMiddleware(auth, metrics.NewNop())

		var got model.Principal
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var ok bool
			got, ok = PrincipalFromContext(r.Context())
			require.True(t, ok)
		})

		req := httptest.NewRequest(http.MethodGet, "/watchlist/summary/all", nil)
		req.Header.Set("Authorization", "Bearer abc")
		mw.Resolve(next).ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, int64(3), got.User.ID)
	})
}

func TestAuthMiddleware_Guards(t *testing.T) {
	mw := NewAuthMiddleware(&stubAuthenticator{}, nil)

	tests := []struct {
		name      string
		principal *model.Principal
		guard     func(http.Handler) http.Handler
		want      int
	}{
		{name: "auth without principal", guard: mw.RequireAuth, want: http.StatusUnauthorized},
		{name: "auth with principal", principal: &model.Principal{User: model.User{ID: 1, Role: model.RoleUser}}, guard: mw.RequireAuth, want: http.StatusOK},
		{name: "admin without principal", guard: mw.RequireAdmin, want: http.StatusUnauthorized},
		{name: "admin as user", principal: &model.Principal{User: model.User{ID: 1, Role: model.RoleUser}}, guard: mw.RequireAdmin, want: http.StatusForbidden},
		{name: "admin as admin", principal: &model.Principal{User: model.User{ID: 1, Role: model.RoleAdmin}}, guard: mw.RequireAdmin, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached := false
			req := httptest.NewRequest(http.MethodGet, "/auth/admins", nil)
			if tt.principal != nil {
				req = req.WithContext(WithPrincipal(req.Context(), *tt.principal))
			}
			rec := httptest.NewRecorder()
			tt.guard(okHandler(&reached)).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.want == http.StatusOK, reached)
			switch tt.want {
			case http.StatusForbidden:
				assert.Contains(t, rec.Body.String(), `"code":"FORBIDDEN"`)
			case http.StatusUnauthorized:
				assert.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)
			}
		})
	}
}
