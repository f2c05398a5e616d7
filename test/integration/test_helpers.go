//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"movie-watchlist/internal/app"
	"movie-watchlist/internal/config"
	"movie-watchlist/internal/database"
)

type testEnv struct {
	server *httptest.Server
	db     *database.DB
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// newTestEnv builds the full application against TEST_DATABASE_URL and wipes
// every table first. Tests in this package share one database, so they do not
// run in parallel.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := &config.Config{
		Env:                  "test",
		ServerPort:           "0",
		RequestTimeout:       10 * time.Second,
		ShutdownTimeout:      time.Second,
		DatabaseURL:          dsn,
		DBMaxConns:           4,
		DBMinConns:           1,
		JWTSecret:            "integration-secret",
		JWTAlgorithm:         "HS256",
		JWTAccessTTL:         time.Hour,
		EnforceSessionStatus: true,
		CORSOrigins:          []string{"*"},
		DocsSpecPath:         "../../docs/openapi.yaml",
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	application, err := app.New(ctx, cfg, logger)
	require.NoError(t, err)
	t.Cleanup(application.Close)

	db, err := database.New(ctx, database.Options{URL: dsn, MaxConns: 2, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = db.Pool.Exec(ctx, `TRUNCATE audit_entries, watchlist, user_logins, movies, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(server.Close)

	return &testEnv{server: server, db: db}
}

// seedMovies inserts count movies and returns their ids in insertion order.
func (e *testEnv) seedMovies(t *testing.T, count int) []int64 {
	t.Helper()

	ids := make([]int64, 0, count)
	for i := 1; i <= count; i++ {
		var id int64
		err := e.db.Pool.QueryRow(context.Background(),
			`INSERT INTO movies (title, genre, release_year) VALUES ($1, 'Drama', $2) RETURNING id`,
			fmt.Sprintf("Movie %02d", i), 1990+i,
		).Scan(&id)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func (e *testEnv) url(path string) string {
	return e.server.URL + path
}

// registerAndLogin creates an account and returns a bearer token for it.
func (e *testEnv) registerAndLogin(t *testing.T, username string, role string) string {
	t.Helper()

	email := username + "@example.com"
	resp := doJSONRequest(t, http.MethodPost, e.url("/auth/register"), map[string]string{
		"username": username,
		"email":    email,
		"role":     role,
		"password": "Str0ng!Pass",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSONRequest(t, http.MethodPost, e.url("/auth/login"), map[string]string{
		"email":    email,
		"password": "Str0ng!Pass",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	decodeData(t, resp, &token)
	require.Equal(t, "bearer", token.TokenType)
	require.NotEmpty(t, token.AccessToken)

	return token.AccessToken
}

func doRequest(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func doJSONRequest(t *testing.T, method string, url string, body any, accessToken string) *http.Response {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	return doRequest(t, newAuthRequest(t, method, url, payload, accessToken))
}

func doAuthRequest(t *testing.T, method string, url string, accessToken string) *http.Response {
	t.Helper()

	return doRequest(t, newAuthRequest(t, method, url, nil, accessToken))
}

func newAuthRequest(t *testing.T, method string, url string, body []byte, accessToken string) *http.Request {
	t.Helper()

	req := mustNewRequest(t, method, url, body)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return req
}

func mustNewRequest(t *testing.T, method string, url string, body []byte) *http.Request {
	t.Helper()

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func decodeData(t *testing.T, resp *http.Response, dst any) {
	t.Helper()

	env := decodeEnvelope(t, resp)
	require.True(t, env.Success)
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func requireErrorCode(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()

	require.Equal(t, status, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	require.Equal(t, code, env.Error.Code)
}
