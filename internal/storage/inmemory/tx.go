package inmemory

import (
	"context"
	"errors"

	"github.com/buddiee-app/buddiee/internal/entities"
	"github.com/buddiee-app/buddiee/internal/storage"
)

var errNestedTx = errors.New("can not run InTx in tx")

// tx is a view of inMemory used within InTx. It skips locking and snapshotting
// since InTx holds the write lock for the whole callback.
type tx struct {
	s *inMemory
}

func (t tx) InTx(context.Context, func(s storage.Storage) error) error { return errNestedTx }

func (t tx) Ping(context.Context) error { return nil }

func (t tx) CreatePost(_ context.Context, p *entities.Post) error { return t.s.createPost(p) }

func (t tx) GetPost(_ context.Context, id string) (*entities.Post, error) { return t.s.getPost(id) }

func (t tx) ListPosts(_ context.Context, p *storage.ListPostsParams) ([]*entities.Post, error) {
	return t.s.listPosts(p)
}

func (t tx) UpdatePost(_ context.Context, p *storage.UpdatePostParams) error {
	return t.s.updatePost(p)
}

func (t tx) DeletePost(_ context.Context, id string) error { return t.s.deletePost(id) }

func (t tx) LikePost(_ context.Context, id string) error { return t.s.likePost(id) }

func (t tx) SetPostPrivacy(_ context.Context, id string, private bool) error {
	return t.s.setPostPrivacy(id, private)
}

func (t tx) SetPostPinned(_ context.Context, id string, pinned bool) error {
	return t.s.setPostPinned(id, pinned)
}

func (t tx) UnpinPosts(_ context.Context, owner string) error { return t.s.unpinPosts(owner) }

func (t tx) GetPinnedPost(_ context.Context, owner string) (*entities.Post, error) {
	return t.s.getPinnedPost(owner)
}

func (t tx) ReplacePostsBySource(_ context.Context, source string, posts []*entities.Post) error {
	return t.s.replacePostsBySource(source, posts)
}

func (t tx) AddComment(_ context.Context, c *entities.Comment) error { return t.s.addComment(c) }

func (t tx) ListComments(_ context.Context, postID string) ([]*entities.Comment, error) {
	return t.s.listComments(postID)
}

func (t tx) CreateUser(_ context.Context, u *entities.User, passwordHash string) error {
	return t.s.createUser(u, passwordHash)
}

func (t tx) GetUser(_ context.Context, id string) (*entities.User, error) { return t.s.getUser(id) }

func (t tx) GetUserByUsername(_ context.Context, username string) (*entities.User, error) {
	return t.s.getUserByUsername(username)
}

func (t tx) GetPasswordHash(_ context.Context, id string) (string, error) {
	return t.s.getPasswordHash(id)
}

func (t tx) UpdateProfile(_ context.Context, p *storage.UpdateProfileParams) error {
	return t.s.updateProfile(p)
}

func (t tx) CreateMessage(_ context.Context, m *entities.Message) error {
	return t.s.createMessage(m)
}

func (t tx) ListConversation(_ context.Context, a, b string) ([]*entities.Message, error) {
	return t.s.listConversation(a, b)
}

func (t tx) ListInbox(_ context.Context, user string) ([]*entities.Message, error) {
	return t.s.listInbox(user)
}

func (t tx) MarkMessageRead(_ context.Context, id, reader string) error {
	return t.s.markMessageRead(id, reader)
}

func (t tx) AddToHistory(_ context.Context, user, postID string, limit int) error {
	return t.s.addToHistory(user, postID, limit)
}

func (t tx) ListHistory(_ context.Context, user string) ([]*entities.Post, error) {
	return t.s.listHistory(user)
}

func (t tx) ClearHistory(_ context.Context, user string) error { return t.s.clearHistory(user) }

func (t tx) SetHistoryEnabled(_ context.Context, user string, enabled bool) error {
	return t.s.setHistoryEnabled(user, enabled)
}

func (t tx) IsHistoryEnabled(_ context.Context, user string) (bool, error) {
	return t.s.isHistoryEnabled(user)
}
