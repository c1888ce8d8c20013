package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func handler(t *testing.T, wantID string, wantOK bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserID(r.Context())
		assert.Equal(t, wantOK, ok)
		assert.Equal(t, wantID, id)
	})
}

func TestAuth(t *testing.T) {
	token, err := IssueToken(secret, "user-1", time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	Auth(secret)(handler(t, "user-1", true)).ServeHTTP(httptest.NewRecorder(), r)
}

func TestAuth_noToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	Auth(secret)(handler(t, "", false)).ServeHTTP(httptest.NewRecorder(), r)
}

func TestAuth_invalidToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer garbage")

	Auth(secret)(handler(t, "", false)).ServeHTTP(httptest.NewRecorder(), r)
}

func TestAuth_wrongSecret(t *testing.T) {
	token, err := IssueToken([]byte("other-secret"), "user-1", time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	Auth(secret)(handler(t, "", false)).ServeHTTP(httptest.NewRecorder(), r)
}

func TestAuth_expiredToken(t *testing.T) {
	token, err := IssueToken(secret, "user-1", -time.Hour)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	Auth(secret)(handler(t, "", false)).ServeHTTP(httptest.NewRecorder(), r)
}

func TestRequireAuth(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	called := false
	RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	})).ServeHTTP(w, r)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
