package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaledger/casa-ledger/internal/api/middleware"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	svc, err := NewService(hash, testSigningKey, slog.Default())
	require.NoError(t, err)
	return svc
}

func TestLoginAndVerify(t *testing.T) {
	svc := newTestService(t)

	t.Run("correct password yields a valid token", func(t *testing.T) {
		token, err := svc.Login("hunter2")
		require.NoError(t, err)
		assert.NoError(t, svc.VerifyToken(token))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login("letmein")
		assert.ErrorIs(t, err, ErrWrongPassword)
	})

	t.Run("garbage token", func(t *testing.T) {
		assert.ErrorIs(t, svc.VerifyToken("not.a.jwt"), ErrInvalidSession)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		hash, err := HashPassword("hunter2")
		require.NoError(t, err)
		other, err := NewService(hash, "ffffffffffffffffffffffffffffffff", slog.Default())
		require.NoError(t, err)

		token, err := other.Login("hunter2")
		require.NoError(t, err)
		assert.ErrorIs(t, svc.VerifyToken(token), ErrInvalidSession)
	})
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService("", testSigningKey, slog.Default())
	assert.Error(t, err)

	_, err = NewService("somehash", "short", slog.Default())
	assert.Error(t, err)
}

func TestLoginHandler(t *testing.T) {
	svc := newTestService(t)
	handler := NewHandler(svc, false)

	t.Run("sets the session cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"password":"hunter2"}`))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, middleware.SessionCookie, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.NoError(t, svc.VerifyToken(cookies[0].Value))
	})

	t.Run("wrong password is 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"password":"nope"}`))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "wrong password", body["error"])
	})
}

func TestRequireSession(t *testing.T) {
	svc := newTestService(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	guarded := middleware.RequireSession(svc, next)

	t.Run("no cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/expenses", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid cookie passes through", func(t *testing.T) {
		token, err := svc.Login("hunter2")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
