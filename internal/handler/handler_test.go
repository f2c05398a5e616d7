package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"movie-watchlist/internal/metrics"
	"movie-watchlist/internal/middleware"
	"movie-watchlist/internal/model"
	"movie-watchlist/internal/repository"
	"movie-watchlist/internal/security"
	"movie-watchlist/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func asUser(req *http.Request, id int64, role string) *http.Request {
	principal := model.Principal{User: model.User{ID: id, Username: "u", Role: role, Status: model.StatusActive}, Token: "tok"}
	return req.WithContext(middleware.WithPrincipal(req.Context(), principal))
}

func watchlistRouter(h *WatchlistHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/watchlist/summary/all", h.Summary)
	r.Get("/watchlist/", h.List)
	r.Delete("/watchlist/", h.RemoveBulk)
	r.Post("/watchlist/{movieId}", h.Add)
	r.Put("/watchlist/{movieId}", h.UpdateStatus)
	r.Get("/watchlist/{movieId}", h.Exists)
	r.Delete("/watchlist/{movieId}", h.Remove)
	return r
}

func TestWatchlistHandler_Add(t *testing.T) {
	t.Run("returns created entry in a list", func(t *testing.T) {
		store := new(repository.MockWatchlistStore)
		h := NewWatchlistHandler(service.NewWatchlistService(store, nil))
		store.On("WithinTx", mock.Anything).Return(nil)
		store.On("Find", mock.Anything, int64(1), int64(42)).Return(model.WatchlistEntry{}, model.ErrNotInWatchlist)
		store.On("MovieExists", mock.Anything, int64(42)).Return(true, nil)
		store.On("Insert", mock.Anything, int64(1), int64(42), model.WatchStatusToWatch).
			Return(model.WatchlistEntry{ID: 5, UserID: 1, MovieID: 42, Status: model.WatchStatusToWatch}, nil)

		req := asUser(httptest.NewRequest(http.MethodPost, "/watchlist/42", nil), 1, model.RoleUser)
		rec := httptest.NewRecorder()
		watchlistRouter(h).ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var entries []model.WatchlistEntry
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, int64(42), entries[0].MovieID)
	})

	t.Run("duplicate is a 400 conflict", func(t *testing.T) {
		store := new(repository.MockWatchlistStore)
		h := NewWatchlistHandler(service.NewWatchlistService(store, nil))
		store.On("WithinTx", mock.Anything).Return(nil)
		store.On("Find", mock.Anything, int64(1), int64(42)).Return(model.WatchlistEntry{MovieID: 42}, nil)

		req := asUser(httptest.NewRequest(http.MethodPost, "/watchlist/42", strings.NewReader(`{"status":"Watched"}`)), 1, model.RoleUser)
		rec := httptest.NewRecorder()
		watchlistRouter(h).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "CONFLICT", decodeEnvelope(t, rec).Error.Code)
	})

	t.Run("non numeric movie id", func(t *testing.T) {
		h := NewWatchlistHandler(service.NewWatchlistService(new(repository.MockWatchlistStore), nil))

		req := asUser(httptest.NewRequest(http.MethodPost, "/watchlist/abc", nil), 1, model.RoleUser)
		rec := httptest.NewRecorder()
		watchlistRouter(h).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWatchlistHandler_List(t *testing.T) {
	t.Run("items in body and total in header", func(t *testing.T) {
		store := new(repository.MockWatchlistStore)
		h := NewWatchlistHandler(service.NewWatchlistService(store, nil))
		want := model.WatchlistQuery{UserID: 1, Status: model.WatchStatusWatched, SortColumn: "movie_id", Descending: false, Page: 2, Size: 10}
		store.On("List", mock.Anything, want).Return(model.WatchlistPage{
			Total: 15,
			Items: []model.WatchlistItem{{ID: 11, MovieID: 11, MovieTitle: "Heat", Status: model.WatchStatusWatched, CreatedAt: time.Now()}},
		}, nil)

		req := asUser(httptest.NewRequest(http.MethodGet, "/watchlist/?page=2&size=10&sort=movie_id&desc=false&status_filter=Watched", nil), 1, model.RoleUser)
		rec := httptest.NewRecorder()
		watchlistRouter(h).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "15", rec.Header().Get("X-Total-Count"))
		var items []model.WatchlistItem
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &items))
		assert.Len(t, items, 1)
		assert.Equal(t, "Heat", items[0].MovieTitle)
	})

	t.Run("bad sort field", func(t *testing.T) {
		h := NewWatchlistHandler(service.NewWatchlistService(new(repository.MockWatchlistStore), nil))

		req := asUser(httptest.NewRequest(http.MethodGet, "/watchlist/?sort=title", nil), 1, model.RoleUser)
		rec := httptest.NewRecorder()
		watchlistRouter(h).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWatchlistHandler_RemoveBulkAndSummary(t *testing.T) {
	store := new(repository.MockWatchlistStore)
	h := NewWatchlistHandler(service.NewWatchlistService(store, nil))
	store.On("DeleteMany", mock.Anything, int64(1), []int64{4, 5}).Return(int64(0), nil)
	store.On("Summary", mock.Anything, int64(1)).Return(model.WatchlistSummary{Total: 3, ToWatch: 2, Watched: 1}, nil)

	rec := httptest.NewRecorder()
	watchlistRouter(h).ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodDelete, "/watchlist/", strings.NewReader(`[4,5]`)), 1, model.RoleUser))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	watchlistRouter(h).ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodGet, "/watchlist/summary/all", nil), 1, model.RoleUser))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_movies":3,"to_watch":2,"watched":1}`, string(decodeEnvelope(t, rec).Data))
}

func TestWatchlistHandler_Exists(t *testing.T) {
	store := new(repository.MockWatchlistStore)
	h := NewWatchlistHandler(service.NewWatchlistService(store, nil))
	store.On("Find", mock.Anything, int64(1), int64(8)).Return(model.WatchlistEntry{}, model.ErrNotInWatchlist)

	rec := httptest.NewRecorder()
	watchlistRouter(h).ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodGet, "/watchlist/8", nil), 1, model.RoleUser))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"inWatchlist":false}`, string(decodeEnvelope(t, rec).Data))
}

func newTestAccounts(t *testing.T) (*service.AccountService, *repository.MockUserStore, *repository.MockSessionStore) {
	t.Helper()
	tokens, err := security.NewTokenManager("test-secret", "HS256", time.Hour)
	require.NoError(t, err)
	users := new(repository.MockUserStore)
	sessions := new(repository.MockSessionStore)
	hasher := security.NewPasswordHasher(security.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
	return service.NewAccountService(users, sessions, hasher, tokens, nil, metrics.NewNop(), service.AccountOptions{}), users, sessions
}

func TestAuthHandler_Me(t *testing.T) {
	accounts, users, _ := newTestAccounts(t)
	h := NewAuthHandler(accounts)
	users.On("FindByID", mock.Anything, int64(3)).Return(model.User{ID: 3, Username: "dan", Email: "dan@example.com", PasswordHash: "secret-hash", Role: model.RoleUser, Status: model.StatusActive}, nil)

	rec := httptest.NewRecorder()
	h.Me(rec, asUser(httptest.NewRequest(http.MethodGet, "/auth/me", nil), 3, model.RoleUser))

	require.Equal(t, http.StatusOK, rec.Code)
	var users3 []model.PublicUser
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &users3))
	require.Len(t, users3, 1)
	assert.Equal(t, "dan", users3[0].Username)
	assert.NotContains(t, rec.Body.String(), "secret-hash")
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		accounts, _, _ := newTestAccounts(t)
		h := NewAuthHandler(accounts)

		rec := httptest.NewRecorder()
		h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("weak password", func(t *testing.T) {
		accounts, users, _ := newTestAccounts(t)
		h := NewAuthHandler(accounts)
		users.On("EmailTaken", mock.Anything, "eve@example.com", int64(0)).Return(false, nil)
		users.On("UsernameTaken", mock.Anything, "eve", int64(0)).Return(false, nil)

		rec := httptest.NewRecorder()
		h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register",
			strings.NewReader(`{"username":"eve","email":"eve@example.com","password":"password"}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "BAD_REQUEST", decodeEnvelope(t, rec).Error.Code)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	accounts, _, sessions := newTestAccounts(t)
	h := NewAuthHandler(accounts)
	sessions.On("FindByToken", mock.Anything, "tok").Return(model.LoginSession{ID: 2, Status: model.StatusActive}, nil)
	sessions.On("UpdateStatus", mock.Anything, int64(2), model.StatusSuspended).Return(nil)

	rec := httptest.NewRecorder()
	h.Logout(rec, asUser(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), 3, model.RoleUser))

	assert.Equal(t, http.StatusOK, rec.Code)
	sessions.AssertExpectations(t)
}

func TestUserHandler_Delete(t *testing.T) {
	accounts, users, _ := newTestAccounts(t)
	h := NewUserHandler(accounts)
	users.On("Delete", mock.Anything, int64(9)).Return(model.DeletedUser{}, model.ErrUserNotFound)

	r := chi.NewRouter()
	r.Delete("/auth/{id}", h.Delete)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodDelete, "/auth/9", nil), 1, model.RoleAdmin))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type stubHealth struct{ err error }

func (s stubHealth) Health(context.Context) error { return s.err }

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(stubHealth{}).Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	NewHealthHandler(stubHealth{err: errors.New("down")}).Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWriteError_HidesUnclassifiedErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password authentication")
}

func TestDocsHandler(t *testing.T) {
	dir := t.TempDir()
	specPath := dir + "/openapi.yaml"
	require.NoError(t, os.WriteFile(specPath, []byte("openapi: 3.0.3\n"), 0o600))

	rec := httptest.NewRecorder()
	NewDocsHandler(specPath).OpenAPI(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "openapi: 3.0.3\n", rec.Body.String())

	rec = httptest.NewRecorder()
	NewDocsHandler(dir+"/missing.yaml").OpenAPI(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	NewDocsHandler(specPath).SwaggerUI(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `url: "/openapi.yaml"`)
}
