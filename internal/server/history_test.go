package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buddiee-app/buddiee/internal/entities"
)

func Test_trackView(t *testing.T) {
	s, router := setupTestRouter(t)

	r, err := http.NewRequest(http.MethodPost, "/v1/posts/post-1/view", nil)
	require.NoError(t, err)
	r.Header.Set("Authorization", authHeader(t, "user-1"))

	s.EXPECT().TrackView(gomock.Any(), "user-1", "post-1").Return(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func Test_listHistory(t *testing.T) {
	s, router := setupTestRouter(t)

	r, err := http.NewRequest(http.MethodGet, "/v1/history", nil)
	require.NoError(t, err)
	r.Header.Set("Authorization", authHeader(t, "user-1"))

	s.EXPECT().History(gomock.Any(), "user-1").Return([]*entities.Post{
		{
			ID:          "post-1",
			Owner:       "owner",
			Username:    "sophie_l",
			MainCaption: "caption",
			Subject:     "study",
			Source:      "app",
			CreatedAt:   time.Unix(100, 0),
		},
	}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"post-1"`)
}

func Test_clearHistory(t *testing.T) {
	s, router := setupTestRouter(t)

	r, err := http.NewRequest(http.MethodDelete, "/v1/history", nil)
	require.NoError(t, err)
	r.Header.Set("Authorization", authHeader(t, "user-1"))

	s.EXPECT().ClearHistory(gomock.Any(), "user-1").Return(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func Test_getHistorySettings(t *testing.T) {
	s, router := setupTestRouter(t)

	r, err := http.NewRequest(http.MethodGet, "/v1/history/settings", nil)
	require.NoError(t, err)
	r.Header.Set("Authorization", authHeader(t, "user-1"))

	s.EXPECT().HistoryEnabled(gomock.Any(), "user-1").Return(true, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"enabled": true}`, w.Body.String())
}

func Test_setHistorySettings(t *testing.T) {
	s, router := setupTestRouter(t)

	r, err := http.NewRequest(http.MethodPut, "/v1/history/settings", strings.NewReader(`{"enabled": false}`))
	require.NoError(t, err)
	r.Header.Set("Authorization", authHeader(t, "user-1"))

	s.EXPECT().SetHistoryEnabled(gomock.Any(), "user-1", false).Return(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func Test_history_unauthorized(t *testing.T) {
	_, router := setupTestRouter(t)

	r, err := http.NewRequest(http.MethodGet, "/v1/history", nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
