package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hangoutx/hangoutx-server/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_bearerToken(t *testing.T) {
	tcases := []struct {
		name     string
		header   string
		expected string
		ok       bool
	}{
		{
			name:     "valid bearer token",
			header:   "Bearer abc.def.ghi",
			expected: "abc.def.ghi",
			ok:       true,
		},
		{
			name:   "missing header",
			header: "",
			ok:     false,
		},
		{
			name:   "wrong scheme",
			header: "Basic dXNlcjpwYXNz",
			ok:     false,
		},
		{
			name:   "bearer with empty token",
			header: "Bearer ",
			ok:     false,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			token, ok := bearerToken(req)
			assert.Equal(t, tc.ok, ok, "expected ok to be %t", tc.ok)
			if tc.ok {
				assert.Equal(t, tc.expected, token, "expected extracted token to match")
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	app := &HangoutApp{signingKey: []byte("test-signing-key"), log: testutil.TestLogger(t)}

	t.Run("passes user id to handler", func(t *testing.T) {
		token, err := app.createJwt(42, time.Hour)
		require.NoError(t, err)

		var gotId int
		handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			id, ok := UserId(r.Context())
			require.True(t, ok, "expected user id in request context")
			gotId = id
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "expected handler to run")
		assert.Equal(t, 42, gotId, "expected user id from token")
		assert.Contains(t, w.Header().Get("Cache-Control"), "no-store", "expected authenticated responses to be uncacheable")
	})

	t.Run("fails without token", func(t *testing.T) {
		handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be called without a token")
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		handler(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "expected 401 response")
	})

	t.Run("fails with garbage token", func(t *testing.T) {
		handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler should not be called with a bad token")
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		w := httptest.NewRecorder()
		handler(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "expected 401 response")
	})
}

func TestErrorHandler(t *testing.T) {
	app := &HangoutApp{log: testutil.TestLogger(t)}

	handler := app.errorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code, "expected panic to map to 500")
	assert.Equal(t, "close", w.Header().Get("Connection"), "expected connection to be closed")
}
