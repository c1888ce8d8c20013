package inmemory

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buddiee-app/buddiee/internal/entities"
	"github.com/buddiee-app/buddiee/internal/storage"
)

var ctx = context.Background()

func newPost(id, owner string, createdAt time.Time) *entities.Post {
	return &entities.Post{
		ID:          id,
		Owner:       owner,
		Username:    owner,
		MainCaption: "caption " + id,
		Subject:     "study",
		Source:      entities.AppSource,
		CreatedAt:   createdAt,
	}
}

func TestInMemory_CreatePost(t *testing.T) {
	s := New()

	require.NoError(t, s.CreatePost(ctx, newPost("post", "owner", time.Unix(1, 0))))

	p, err := s.GetPost(ctx, "post")
	require.NoError(t, err)
	assert.Equal(t, "caption post", p.MainCaption)

	assert.ErrorIs(t, s.CreatePost(ctx, newPost("post", "owner", time.Unix(1, 0))), storage.ErrAlreadyExists)
}

func TestInMemory_GetPost_notFound(t *testing.T) {
	s := New()

	_, err := s.GetPost(ctx, "ghost")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInMemory_ListPosts(t *testing.T) {
	s := New()

	for i := 1; i <= 5; i++ {
		p := newPost(fmt.Sprintf("post-%d", i), "owner", time.Unix(int64(i), 0))
		p.Likes = uint32(i % 3)
		require.NoError(t, s.CreatePost(ctx, p))
	}

	posts, err := s.ListPosts(ctx, &storage.ListPostsParams{
		SortBy:  storage.CreatedAtSortType,
		OrderBy: storage.DescendingOrder,
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, posts, 5)
	assert.Equal(t, "post-5", posts[0].ID)
	assert.Equal(t, "post-1", posts[4].ID)

	posts, err = s.ListPosts(ctx, &storage.ListPostsParams{
		SortBy:  storage.CreatedAtSortType,
		OrderBy: storage.AscendingOrder,
		Limit:   2,
	})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "post-1", posts[0].ID)
}

func TestInMemory_ListPosts_after(t *testing.T) {
	s := New()

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.CreatePost(ctx, newPost(fmt.Sprintf("post-%d", i), "owner", time.Unix(int64(i), 0))))
	}

	after := "post-4"
	posts, err := s.ListPosts(ctx, &storage.ListPostsParams{
		SortBy:  storage.CreatedAtSortType,
		OrderBy: storage.DescendingOrder,
		Limit:   10,
		After:   &after,
	})
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "post-3", posts[0].ID)
}

func TestInMemory_ListPosts_afterFilteredOut(t *testing.T) {
	s := New()

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.CreatePost(ctx, newPost(fmt.Sprintf("post-%d", i), "owner", time.Unix(int64(i), 0))))
	}

	// cursor post went private, pagination still keysets off it
	require.NoError(t, s.SetPostPrivacy(ctx, "post-4", true))

	after := "post-4"
	posts, err := s.ListPosts(ctx, &storage.ListPostsParams{
		SortBy:  storage.CreatedAtSortType,
		OrderBy: storage.DescendingOrder,
		Limit:   10,
		After:   &after,
	})
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "post-3", posts[0].ID)
	assert.Equal(t, "post-1", posts[2].ID)
}

func TestInMemory_ListPosts_privacy(t *testing.T) {
	s := New()

	require.NoError(t, s.CreatePost(ctx, newPost("public", "owner", time.Unix(1, 0))))

	private := newPost("private", "owner", time.Unix(2, 0))
	private.IsPrivate = true
	require.NoError(t, s.CreatePost(ctx, private))

	params := storage.ListPostsParams{
		SortBy:  storage.CreatedAtSortType,
		OrderBy: storage.DescendingOrder,
		Limit:   10,
	}

	posts, err := s.ListPosts(ctx, &params)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "public", posts[0].ID)

	owner := "owner"
	params.VisibleTo = &owner
	posts, err = s.ListPosts(ctx, &params)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	stranger := "stranger"
	params.VisibleTo = &stranger
	posts, err = s.ListPosts(ctx, &params)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestInMemory_LikePost(t *testing.T) {
	s := New()

	require.NoError(t, s.CreatePost(ctx, newPost("post", "owner", time.Unix(1, 0))))

	for i := 0; i < 3; i++ {
		require.NoError(t, s.LikePost(ctx, "post"))
	}

	p, err := s.GetPost(ctx, "post")
	require.NoError(t, err)
	assert.EqualValues(t, 3, p.Likes)

	assert.ErrorIs(t, s.LikePost(ctx, "ghost"), storage.ErrNotFound)
}

func TestInMemory_Pin(t *testing.T) {
	s := New()

	require.NoError(t, s.CreatePost(ctx, newPost("a", "owner", time.Unix(1, 0))))
	require.NoError(t, s.CreatePost(ctx, newPost("b", "owner", time.Unix(2, 0))))

	require.NoError(t, s.SetPostPinned(ctx, "a", true))

	p, err := s.GetPinnedPost(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, "a", p.ID)

	// pinning another post goes through unpin-then-pin
	require.NoError(t, s.UnpinPosts(ctx, "owner"))
	require.NoError(t, s.SetPostPinned(ctx, "b", true))

	p, err = s.GetPinnedPost(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, "b", p.ID)

	a, err := s.GetPost(ctx, "a")
	require.NoError(t, err)
	assert.False(t, a.IsPinned)

	_, err = s.GetPinnedPost(ctx, "stranger")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInMemory_DeletePost_cascades(t *testing.T) {
	s := New()

	require.NoError(t, s.CreatePost(ctx, newPost("post", "owner", time.Unix(1, 0))))
	require.NoError(t, s.AddComment(ctx, &entities.Comment{
		ID: "comment", PostID: "post", Owner: "user", Text: "hi", CreatedAt: time.Unix(2, 0),
	}))
	require.NoError(t, s.AddToHistory(ctx, "user", "post", storage.HistoryLimit))

	require.NoError(t, s.DeletePost(ctx, "post"))

	_, err := s.GetPost(ctx, "post")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	comments, err := s.ListComments(ctx, "post")
	require.NoError(t, err)
	assert.Empty(t, comments)

	history, err := s.ListHistory(ctx, "user")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestInMemory_ReplacePostsBySource(t *testing.T) {
	s := New()

	require.NoError(t, s.CreatePost(ctx, newPost("own", "owner", time.Unix(1, 0))))

	old := newPost("old-reddit", "r1", time.Unix(2, 0))
	old.Source = entities.RedditSource
	require.NoError(t, s.CreatePost(ctx, old))

	fresh := newPost("new-reddit", "r2", time.Unix(3, 0))
	fresh.Source = entities.RedditSource
	require.NoError(t, s.ReplacePostsBySource(ctx, entities.RedditSource, []*entities.Post{fresh}))

	_, err := s.GetPost(ctx, "old-reddit")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.GetPost(ctx, "new-reddit")
	assert.NoError(t, err)

	// user-authored content survives the replacement
	_, err = s.GetPost(ctx, "own")
	assert.NoError(t, err)
}

func TestInMemory_History(t *testing.T) {
	s := New()

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.CreatePost(ctx, newPost(fmt.Sprintf("post-%d", i), "owner", time.Unix(int64(i), 0))))
	}

	require.NoError(t, s.AddToHistory(ctx, "user", "post-1", storage.HistoryLimit))
	require.NoError(t, s.AddToHistory(ctx, "user", "post-2", storage.HistoryLimit))
	require.NoError(t, s.AddToHistory(ctx, "user", "post-1", storage.HistoryLimit))

	history, err := s.ListHistory(ctx, "user")
	require.NoError(t, err)
	require.Len(t, history, 2)
	// re-viewing moves the post to the front without duplicating it
	assert.Equal(t, "post-1", history[0].ID)
	assert.Equal(t, "post-2", history[1].ID)
}

func TestInMemory_History_limit(t *testing.T) {
	s := New()

	for i := 0; i < storage.HistoryLimit+10; i++ {
		id := fmt.Sprintf("post-%d", i)
		require.NoError(t, s.CreatePost(ctx, newPost(id, "owner", time.Unix(int64(i), 0))))
		require.NoError(t, s.AddToHistory(ctx, "user", id, storage.HistoryLimit))
	}

	history, err := s.ListHistory(ctx, "user")
	require.NoError(t, err)
	require.Len(t, history, storage.HistoryLimit)
	assert.Equal(t, fmt.Sprintf("post-%d", storage.HistoryLimit+9), history[0].ID)
}

func TestInMemory_History_unknownPost(t *testing.T) {
	s := New()

	assert.ErrorIs(t, s.AddToHistory(ctx, "user", "ghost", storage.HistoryLimit), storage.ErrNotFound)
}

func TestInMemory_HistoryEnabled(t *testing.T) {
	s := New()

	enabled, err := s.IsHistoryEnabled(ctx, "user")
	require.NoError(t, err)
	assert.True(t, enabled)

	require.NoError(t, s.SetHistoryEnabled(ctx, "user", false))

	enabled, err = s.IsHistoryEnabled(ctx, "user")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestInMemory_Users(t *testing.T) {
	s := New()

	u := &entities.User{ID: "user", Username: "sophie_l", CreatedAt: time.Unix(1, 0)}
	require.NoError(t, s.CreateUser(ctx, u, "hash"))

	assert.ErrorIs(t, s.CreateUser(ctx, &entities.User{ID: "other", Username: "sophie_l"}, "hash"),
		storage.ErrAlreadyExists)

	got, err := s.GetUserByUsername(ctx, "sophie_l")
	require.NoError(t, err)
	assert.Equal(t, "user", got.ID)

	hash, err := s.GetPasswordHash(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, "hash", hash)

	bio := "updated bio"
	require.NoError(t, s.UpdateProfile(ctx, &storage.UpdateProfileParams{ID: "user", Bio: &bio}))

	got, err = s.GetUser(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, "updated bio", got.Bio)
	assert.Equal(t, "sophie_l", got.Username)
}

func TestInMemory_Messages(t *testing.T) {
	s := New()

	require.NoError(t, s.CreateMessage(ctx, &entities.Message{
		ID: "m1", Sender: "a", Receiver: "b", Text: "hi", CreatedAt: time.Unix(1, 0),
	}))
	require.NoError(t, s.CreateMessage(ctx, &entities.Message{
		ID: "m2", Sender: "b", Receiver: "a", Text: "hey", CreatedAt: time.Unix(2, 0),
	}))
	require.NoError(t, s.CreateMessage(ctx, &entities.Message{
		ID: "m3", Sender: "c", Receiver: "b", Text: "yo", CreatedAt: time.Unix(3, 0),
	}))

	conv, err := s.ListConversation(ctx, "a", "b")
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, "m1", conv[0].ID)

	inbox, err := s.ListInbox(ctx, "b")
	require.NoError(t, err)
	require.Len(t, inbox, 2)

	require.NoError(t, s.MarkMessageRead(ctx, "m1", "b"))
	assert.ErrorIs(t, s.MarkMessageRead(ctx, "m2", "b"), storage.ErrNotFound)
}

func TestInMemory_InTx(t *testing.T) {
	s := New()

	require.NoError(t, s.CreatePost(ctx, newPost("a", "owner", time.Unix(1, 0))))
	require.NoError(t, s.CreatePost(ctx, newPost("b", "owner", time.Unix(2, 0))))
	require.NoError(t, s.SetPostPinned(ctx, "a", true))

	require.NoError(t, s.InTx(ctx, func(tx storage.Storage) error {
		if err := tx.UnpinPosts(ctx, "owner"); err != nil {
			return err
		}

		return tx.SetPostPinned(ctx, "b", true)
	}))

	p, err := s.GetPinnedPost(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, "b", p.ID)

	assert.Error(t, s.InTx(ctx, func(tx storage.Storage) error {
		return tx.InTx(ctx, func(storage.Storage) error { return nil })
	}))
}

func TestInMemory_Snapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := NewWithSnapshot(path)
	require.NoError(t, err)

	require.NoError(t, s.CreatePost(ctx, newPost("post", "owner", time.Unix(1, 0).UTC())))
	require.NoError(t, s.CreateUser(ctx, &entities.User{ID: "user", Username: "sophie_l", CreatedAt: time.Unix(2, 0).UTC()}, "hash"))
	require.NoError(t, s.AddToHistory(ctx, "user", "post", storage.HistoryLimit))
	require.NoError(t, s.SetHistoryEnabled(ctx, "other", false))

	restored, err := NewWithSnapshot(path)
	require.NoError(t, err)

	p, err := restored.GetPost(ctx, "post")
	require.NoError(t, err)
	assert.Equal(t, "caption post", p.MainCaption)

	u, err := restored.GetUser(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, "sophie_l", u.Username)

	hash, err := restored.GetPasswordHash(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, "hash", hash)

	history, err := restored.ListHistory(ctx, "user")
	require.NoError(t, err)
	require.Len(t, history, 1)

	enabled, err := restored.IsHistoryEnabled(ctx, "other")
	require.NoError(t, err)
	assert.False(t, enabled)
}
