package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/exam-results/internal/auth"
	"github.com/hongminglow/exam-results/internal/middleware"
	"github.com/hongminglow/exam-results/internal/models"
	"github.com/hongminglow/exam-results/internal/testutil"
)

const testPassword = "Exam1!pw"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testEnv struct {
	store   *testutil.MemoryStore
	tokens  *auth.TokenManager
	handler http.Handler
}

func newTestEnv(t *testing.T, strict bool) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := testutil.NewMemoryStore()
	tokens := auth.NewTokenManager("test-secret", "exam-results-test", time.Hour)
	authenticator := auth.NewAuthenticator(store, tokens)

	r := chi.NewRouter()
	NewHealthHandler(time.Now()).Register(r)
	NewAuthHandler(authenticator, store, logger).Register(r)
	NewResultHandler(store, auth.NewGuard(strict), logger).
		Register(r, middleware.NewAuthenticator(tokens, authenticator, logger))

	return &testEnv{store: store, tokens: tokens, handler: r}
}

// user stores an account directly and returns it with a signed token.
func (e *testEnv) user(t *testing.T, username, role string) (models.User, string) {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	created, err := e.store.CreateUser(context.Background(), models.User{
		Username:     username,
		Name:         username,
		Email:        username + "@example.com",
		Role:         role,
		PasswordHash: hash,
	})
	require.NoError(t, err)
	token, err := e.tokens.Generate(created)
	require.NoError(t, err)
	return created, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	require.Equal(t, rec.Code, env.Code)
	return rec, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}
