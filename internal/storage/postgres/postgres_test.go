//+build integration

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	m "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/buddiee-app/buddiee/internal/entities"
	"github.com/buddiee-app/buddiee/internal/storage"
)

var (
	db  *sql.DB
	ctx = context.Background()
	s   storage.Storage
)

func TestMain(m *testing.M) {
	shutdown := setup()

	s = New(db)

	code := m.Run()
	shutdown()
	os.Exit(code)
}

func setup() func() {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:12",
		Env:          map[string]string{"POSTGRES_PASSWORD": "root"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp"),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
	})
	if err != nil {
		logrus.WithError(err).Fatalf("failed to create container")
	}

	if err := c.Start(ctx); err != nil {
		logrus.WithError(err).Fatal("failed to start container")
	}

	host, err := c.Host(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("failed to get host")
	}

	port, err := c.MappedPort(ctx, "5432")
	if err != nil {
		logrus.WithError(err).Fatal("failed to map port")
	}

	dsn := fmt.Sprintf("host=%s port=%d user=postgres password=root sslmode=disable", host, port.Int())

	db, err = sql.Open("postgres", dsn)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open connection")
	}

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("failed to ping postgres")
	}

	shutdownFn := func() {
		if c != nil {
			c.Terminate(ctx)
		}
	}

	migrate("postgres", "root", host, "postgres", port.Int())

	return shutdownFn
}

func migrate(username, password, hostname, dbname string, port int) {
	_, currFile, _, ok := runtime.Caller(0)
	if !ok {
		logrus.Fatal("failed to get current file location")
	}

	migrations := filepath.Join(currFile, "../../../../scripts/migrations/postgres/")

	migrator, err := m.New(
		fmt.Sprintf("file://%s", migrations),
		fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			username, password, hostname, port, dbname),
	)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create migrator")
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil {
		logrus.WithError(err).Fatal("failed to migrate")
	}
}

func cleanup(t *testing.T) {
	_, err := db.ExecContext(ctx, `DELETE FROM browsing_history`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM history_settings`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM message`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM comment`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM post`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM "user"`)
	require.NoError(t, err)
}

func newPost(id, owner string, createdAt time.Time) *entities.Post {
	return &entities.Post{
		ID:          id,
		Owner:       owner,
		Username:    owner,
		Photos:      []string{},
		MainCaption: "caption " + id,
		Subject:     "study",
		Source:      entities.AppSource,
		CreatedAt:   createdAt,
	}
}

func TestPg_Ping(t *testing.T) {
	require.NoError(t, s.Ping(ctx))
}

func TestPg_CreatePost(t *testing.T) {
	defer cleanup(t)

	require.NoError(t, s.CreatePost(ctx, newPost("post", "owner", time.Unix(1, 0).UTC())))

	p, err := s.GetPost(ctx, "post")
	require.NoError(t, err)
	assert.Equal(t, "caption post", p.MainCaption)
	assert.Equal(t, entities.AppSource, p.Source)

	assert.ErrorIs(t, s.CreatePost(ctx, newPost("post", "owner", time.Unix(1, 0).UTC())), storage.ErrAlreadyExists)
}

func TestPg_GetPost_notFound(t *testing.T) {
	defer cleanup(t)

	_, err := s.GetPost(ctx, "ghost")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPg_ListPosts(t *testing.T) {
	defer cleanup(t)

	for i := 1; i <= 5; i++ {
		p := newPost(fmt.Sprintf("post-%d", i), "owner", time.Unix(int64(i), 0).UTC())
		require.NoError(t, s.CreatePost(ctx, p))
	}

	posts, err := s.ListPosts(ctx, &storage.ListPostsParams{
		SortBy:  storage.CreatedAtSortType,
		OrderBy: storage.DescendingOrder,
		Limit:   3,
	})
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "post-5", posts[0].ID)

	after := posts[2].ID
	posts, err = s.ListPosts(ctx, &storage.ListPostsParams{
		SortBy:  storage.CreatedAtSortType,
		OrderBy: storage.DescendingOrder,
		Limit:   3,
		After:   &after,
	})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "post-2", posts[0].ID)
}

func TestPg_ListPosts_privacy(t *testing.T) {
	defer cleanup(t)

	require.NoError(t, s.CreatePost(ctx, newPost("public", "owner", time.Unix(1, 0).UTC())))

	private := newPost("private", "owner", time.Unix(2, 0).UTC())
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

	owner := "owner"
	params.VisibleTo = &owner
	posts, err = s.ListPosts(ctx, &params)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestPg_LikePost(t *testing.T) {
	defer cleanup(t)

	require.NoError(t, s.CreatePost(ctx, newPost("post", "owner", time.Unix(1, 0).UTC())))

	require.NoError(t, s.LikePost(ctx, "post"))
	require.NoError(t, s.LikePost(ctx, "post"))

	p, err := s.GetPost(ctx, "post")
	require.NoError(t, err)
	assert.EqualValues(t, 2, p.Likes)

	assert.ErrorIs(t, s.LikePost(ctx, "ghost"), storage.ErrNotFound)
}

func TestPg_Pin(t *testing.T) {
	defer cleanup(t)

	require.NoError(t, s.CreatePost(ctx, newPost("a", "owner", time.Unix(1, 0).UTC())))
	require.NoError(t, s.CreatePost(ctx, newPost("b", "owner", time.Unix(2, 0).UTC())))

	require.NoError(t, s.InTx(ctx, func(tx storage.Storage) error {
		if err := tx.UnpinPosts(ctx, "owner"); err != nil {
			return err
		}

		return tx.SetPostPinned(ctx, "a", true)
	}))

	p, err := s.GetPinnedPost(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, "a", p.ID)

	require.NoError(t, s.InTx(ctx, func(tx storage.Storage) error {
		if err := tx.UnpinPosts(ctx, "owner"); err != nil {
			return err
		}

		return tx.SetPostPinned(ctx, "b", true)
	}))

	p, err = s.GetPinnedPost(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, "b", p.ID)

	a, err := s.GetPost(ctx, "a")
	require.NoError(t, err)
	assert.False(t, a.IsPinned)
}

func TestPg_ReplacePostsBySource(t *testing.T) {
	defer cleanup(t)

	require.NoError(t, s.CreatePost(ctx, newPost("own", "owner", time.Unix(1, 0).UTC())))

	old := newPost("old-reddit", "r1", time.Unix(2, 0).UTC())
	old.Source = entities.RedditSource
	require.NoError(t, s.CreatePost(ctx, old))

	fresh := newPost("new-reddit", "r2", time.Unix(3, 0).UTC())
	fresh.Source = entities.RedditSource

	require.NoError(t, s.InTx(ctx, func(tx storage.Storage) error {
		return tx.ReplacePostsBySource(ctx, entities.RedditSource, []*entities.Post{fresh})
	}))

	_, err := s.GetPost(ctx, "old-reddit")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.GetPost(ctx, "new-reddit")
	assert.NoError(t, err)

	_, err = s.GetPost(ctx, "own")
	assert.NoError(t, err)
}

func TestPg_Comments(t *testing.T) {
	defer cleanup(t)

	require.NoError(t, s.CreatePost(ctx, newPost("post", "owner", time.Unix(1, 0).UTC())))

	require.NoError(t, s.AddComment(ctx, &entities.Comment{
		ID: "c1", PostID: "post", Owner: "user", Username: "user", Text: "first", CreatedAt: time.Unix(2, 0).UTC(),
	}))
	require.NoError(t, s.AddComment(ctx, &entities.Comment{
		ID: "c2", PostID: "post", Owner: "user", Username: "user", Text: "second", CreatedAt: time.Unix(3, 0).UTC(),
	}))

	comments, err := s.ListComments(ctx, "post")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Text)

	assert.ErrorIs(t, s.AddComment(ctx, &entities.Comment{
		ID: "c3", PostID: "ghost", Owner: "user", Username: "user", Text: "lost", CreatedAt: time.Unix(4, 0).UTC(),
	}), storage.ErrNotFound)

	// comments go away with their post
	require.NoError(t, s.DeletePost(ctx, "post"))

	comments, err = s.ListComments(ctx, "post")
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestPg_Users(t *testing.T) {
	defer cleanup(t)

	require.NoError(t, s.CreateUser(ctx, &entities.User{
		ID: "user", Username: "sophie_l", Interests: []string{"gym"}, CreatedAt: time.Unix(1, 0).UTC(),
	}, "hash"))

	assert.ErrorIs(t, s.CreateUser(ctx, &entities.User{
		ID: "other", Username: "sophie_l", CreatedAt: time.Unix(2, 0).UTC(),
	}, "hash"), storage.ErrAlreadyExists)

	u, err := s.GetUserByUsername(ctx, "sophie_l")
	require.NoError(t, err)
	assert.Equal(t, "user", u.ID)

	hash, err := s.GetPasswordHash(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, "hash", hash)

	bio := "updated"
	require.NoError(t, s.UpdateProfile(ctx, &storage.UpdateProfileParams{ID: "user", Bio: &bio}))

	u, err = s.GetUser(ctx, "user")
	require.NoError(t, err)
	assert.Equal(t, "updated", u.Bio)
	assert.Equal(t, "sophie_l", u.Username)
	assert.Equal(t, []string{"gym"}, u.Interests)
}

func TestPg_Messages(t *testing.T) {
	defer cleanup(t)

	require.NoError(t, s.CreateMessage(ctx, &entities.Message{
		ID: "m1", Sender: "a", Receiver: "b", Text: "hi", CreatedAt: time.Unix(1, 0).UTC(),
	}))
	require.NoError(t, s.CreateMessage(ctx, &entities.Message{
		ID: "m2", Sender: "b", Receiver: "a", Text: "hey", CreatedAt: time.Unix(2, 0).UTC(),
	}))

	conv, err := s.ListConversation(ctx, "a", "b")
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, "m1", conv[0].ID)

	inbox, err := s.ListInbox(ctx, "b")
	require.NoError(t, err)
	require.Len(t, inbox, 1)

	require.NoError(t, s.MarkMessageRead(ctx, "m1", "b"))
	assert.ErrorIs(t, s.MarkMessageRead(ctx, "m1", "stranger"), storage.ErrNotFound)
}

func TestPg_History(t *testing.T) {
	defer cleanup(t)

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.CreatePost(ctx, newPost(fmt.Sprintf("post-%d", i), "owner", time.Unix(int64(i), 0).UTC())))
	}

	require.NoError(t, s.AddToHistory(ctx, "user", "post-1", storage.HistoryLimit))
	require.NoError(t, s.AddToHistory(ctx, "user", "post-2", storage.HistoryLimit))
	require.NoError(t, s.AddToHistory(ctx, "user", "post-1", storage.HistoryLimit))

	history, err := s.ListHistory(ctx, "user")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "post-1", history[0].ID)

	assert.ErrorIs(t, s.AddToHistory(ctx, "user", "ghost", storage.HistoryLimit), storage.ErrNotFound)

	require.NoError(t, s.ClearHistory(ctx, "user"))

	history, err = s.ListHistory(ctx, "user")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPg_History_limit(t *testing.T) {
	defer cleanup(t)

	limit := 3
	for i := 0; i < limit+2; i++ {
		id := fmt.Sprintf("post-%d", i)
		require.NoError(t, s.CreatePost(ctx, newPost(id, "owner", time.Unix(int64(i+1), 0).UTC())))
		require.NoError(t, s.AddToHistory(ctx, "user", id, limit))
	}

	history, err := s.ListHistory(ctx, "user")
	require.NoError(t, err)
	require.Len(t, history, limit)
	assert.Equal(t, fmt.Sprintf("post-%d", limit+1), history[0].ID)
}

func TestPg_HistoryEnabled(t *testing.T) {
	defer cleanup(t)

	enabled, err := s.IsHistoryEnabled(ctx, "user")
	require.NoError(t, err)
	assert.True(t, enabled)

	require.NoError(t, s.SetHistoryEnabled(ctx, "user", false))

	enabled, err = s.IsHistoryEnabled(ctx, "user")
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, s.SetHistoryEnabled(ctx, "user", true))

	enabled, err = s.IsHistoryEnabled(ctx, "user")
	require.NoError(t, err)
	assert.True(t, enabled)
}
