package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/seoscan/internal/infra/session"
)

func sessionHandler(t *testing.T, mgr *session.Manager) http.Handler {
	t.Helper()
	return RequireSession(mgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := UserFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(p.UserID + "|" + p.Email))
	}))
}

func TestRequireSession(t *testing.T) {
	mgr := session.NewManager("test-secret", time.Hour)
	token, _, err := mgr.Issue("u-1", "a@example.com")
	require.NoError(t, err)
	h := sessionHandler(t, mgr)

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u-1|a@example.com", rec.Body.String())
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/profile", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"statusCode":401,"message":"Unauthorized"}`, rec.Body.String())
	})

	t.Run("forged", func(t *testing.T) {
		other := session.NewManager("other-secret", time.Hour)
		forged, _, err := other.Issue("u-1", "a@example.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: forged})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestUserFromContextEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := UserFromContext(req.Context())
	assert.False(t, ok)
}
