package suggestions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buddiee-app/buddiee/internal/entities"
)

func TestClient_FetchPosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success_posts": [
				{
					"id": "abc123",
					"title": "Study group for finals",
					"description": "Looking for people to revise with",
					"image_urls": ["https://i.redd.it/pic.jpg"],
					"user": {"id": "t2_user", "username": "redditor"},
					"category": "study",
					"location": "London, UK",
					"source": "reddit",
					"created_at": "2024-01-02T15:04:05",
					"is_private": false,
					"is_pinned": false
				}
			],
			"filtered_debug_info": [
				{"title": "Old post", "reason": "Too old"}
			],
			"status_message": "ok",
			"is_complete": true
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	res, err := c.FetchPosts(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Posts, 1)
	p := res.Posts[0]
	assert.Equal(t, "abc123", p.ID)
	assert.Equal(t, "t2_user", p.Owner)
	assert.Equal(t, "redditor", p.Username)
	assert.Equal(t, "Study group for finals", p.MainCaption)
	assert.Equal(t, "study", p.Subject)
	assert.Equal(t, entities.RedditSource, p.Source)
	assert.Equal(t, time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC), p.CreatedAt)

	require.Len(t, res.Filtered, 1)
	assert.Equal(t, "Too old", res.Filtered[0].Reason)
	assert.Equal(t, "ok", res.StatusMessage)
}

func TestClient_FetchPosts_badStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	_, err := c.FetchPosts(context.Background())
	assert.Error(t, err)
}

func TestClient_FetchPosts_rfc3339(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success_posts": [{"id": "a", "title": "t", "user": {"id": "u", "username": "n"}, "created_at": "2024-01-02T15:04:05Z"}], "filtered_debug_info": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	res, err := c.FetchPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Posts, 1)
	assert.Equal(t, time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC), res.Posts[0].CreatedAt)
}
