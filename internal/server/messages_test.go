package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buddiee-app/buddiee/internal/entities"
	"github.com/buddiee-app/buddiee/internal/storage"
)

func Test_sendMessage(t *testing.T) {
	s, router := setupTestRouter(t)

	r, err := http.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(`{"receiver": "user-2", "text": "hi"}`))
	require.NoError(t, err)
	r.Header.Set("Authorization", authHeader(t, "user-1"))

	s.EXPECT().SendMessage(gomock.Any(), gomock.Any()).Do(func(_ context.Context, m *entities.Message) {
		assert.Equal(t, "user-1", m.Sender)
		assert.Equal(t, "user-2", m.Receiver)
		assert.Equal(t, "hi", m.Text)
	}).Return(&entities.Message{
		ID:        "msg-1",
		Sender:    "user-1",
		Receiver:  "user-2",
		Text:      "hi",
		CreatedAt: time.Unix(100, 0),
	}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `
{
   "id":"msg-1",
   "sender":"user-1",
   "receiver":"user-2",
   "text":"hi",
   "created_at":100,
   "read":false
}`, w.Body.String())
}

func Test_inbox(t *testing.T) {
	s, router := setupTestRouter(t)

	r, err := http.NewRequest(http.MethodGet, "/v1/messages", nil)
	require.NoError(t, err)
	r.Header.Set("Authorization", authHeader(t, "user-1"))

	s.EXPECT().Inbox(gomock.Any(), "user-1").Return([]*entities.Message{}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func Test_conversation(t *testing.T) {
	s, router := setupTestRouter(t)

	r, err := http.NewRequest(http.MethodGet, "/v1/messages/user-2", nil)
	require.NoError(t, err)
	r.Header.Set("Authorization", authHeader(t, "user-1"))

	s.EXPECT().Conversation(gomock.Any(), "user-1", "user-2").Return([]*entities.Message{
		{ID: "msg-1", Sender: "user-1", Receiver: "user-2", Text: "hi", CreatedAt: time.Unix(100, 0)},
	}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"msg-1"`)
}

func Test_markMessageRead(t *testing.T) {
	s, router := setupTestRouter(t)

	r, err := http.NewRequest(http.MethodPut, "/v1/messages/msg-1/read", nil)
	require.NoError(t, err)
	r.Header.Set("Authorization", authHeader(t, "user-1"))

	s.EXPECT().MarkMessageRead(gomock.Any(), "msg-1", "user-1").Return(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func Test_markMessageRead_notReceiver(t *testing.T) {
	s, router := setupTestRouter(t)

	r, err := http.NewRequest(http.MethodPut, "/v1/messages/msg-1/read", nil)
	require.NoError(t, err)
	r.Header.Set("Authorization", authHeader(t, "stranger"))

	s.EXPECT().MarkMessageRead(gomock.Any(), "msg-1", "stranger").Return(storage.ErrNotFound)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
