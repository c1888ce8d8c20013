// Package impl is implementation of service interface.
package impl

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/buddiee-app/buddiee/internal/entities"
	"github.com/buddiee-app/buddiee/internal/service"
	"github.com/buddiee-app/buddiee/internal/storage"
)

const maxMainCaptionLen = 200
const minPasswordLen = 6

type srv struct {
	s storage.Storage
}

// New creates new instance of service.
func New(s storage.Storage) service.Service {
	return srv{
		s: s,
	}
}

func (s srv) Ping(ctx context.Context) error {
	return s.s.Ping(ctx)
}

func (s srv) CreatePost(ctx context.Context, p *entities.Post) (*entities.Post, error) {
	if p.Owner == "" {
		return nil, fmt.Errorf("%w: owner is required", service.ErrInvalidRequest)
	}
	if p.MainCaption == "" {
		return nil, fmt.Errorf("%w: main caption is required", service.ErrInvalidRequest)
	}
	if utf8.RuneCountInString(p.MainCaption) > maxMainCaptionLen {
		return nil, fmt.Errorf("%w: main caption is too long", service.ErrInvalidRequest)
	}
	if p.Subject == "" {
		return nil, fmt.Errorf("%w: subject is required", service.ErrInvalidRequest)
	}
	if len(p.Photos) > entities.MaxPostPhotos {
		return nil, fmt.Errorf("%w: too many photos", service.ErrInvalidRequest)
	}

	out := *p
	out.ID = uuid.NewString()
	out.CreatedAt = time.Now().UTC()
	out.Likes = 0
	out.IsPinned = false
	if out.Source == "" {
		out.Source = entities.AppSource
	}

	if out.Username == "" {
		u, err := s.s.GetUser(ctx, out.Owner)
		if err != nil {
			return nil, fmt.Errorf("failed to get post author: %w", err)
		}
		out.Username = u.Username
	}

	if err := s.s.CreatePost(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return &out, nil
}

func (s srv) GetPost(ctx context.Context, id, viewer string) (*entities.Post, error) {
	p, err := s.s.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	// a private post exists only for its author
	if p.IsPrivate && p.Owner != viewer {
		return nil, storage.ErrNotFound
	}

	return p, nil
}

func (s srv) ListPosts(ctx context.Context, p *storage.ListPostsParams) ([]*entities.Post, error) {
	posts, err := s.s.ListPosts(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, nil
}

func (s srv) UpdatePost(ctx context.Context, actor string, p *storage.UpdatePostParams) error {
	if p.MainCaption == "" {
		return fmt.Errorf("%w: main caption is required", service.ErrInvalidRequest)
	}
	if utf8.RuneCountInString(p.MainCaption) > maxMainCaptionLen {
		return fmt.Errorf("%w: main caption is too long", service.ErrInvalidRequest)
	}
	if p.Subject == "" {
		return fmt.Errorf("%w: subject is required", service.ErrInvalidRequest)
	}
	if len(p.Photos) > entities.MaxPostPhotos {
		return fmt.Errorf("%w: too many photos", service.ErrInvalidRequest)
	}

	if err := s.checkPostOwner(ctx, p.ID, actor); err != nil {
		return err
	}

	if err := s.s.UpdatePost(ctx, p); err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	return nil
}

func (s srv) DeletePost(ctx context.Context, actor, id string) error {
	if err := s.checkPostOwner(ctx, id, actor); err != nil {
		return err
	}

	if err := s.s.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	return nil
}

func (s srv) LikePost(ctx context.Context, id string) error {
	if err := s.s.LikePost(ctx, id); err != nil {
		return fmt.Errorf("failed to like post: %w", err)
	}

	return nil
}

func (s srv) SetPostPrivacy(ctx context.Context, actor, id string, private bool) error {
	if err := s.checkPostOwner(ctx, id, actor); err != nil {
		return err
	}

	if err := s.s.SetPostPrivacy(ctx, id, private); err != nil {
		return fmt.Errorf("failed to set post privacy: %w", err)
	}

	return nil
}

// PinPost unpins every other post of the actor and pins the target within one
// transaction, so at most one pinned post per owner is ever observable.
func (s srv) PinPost(ctx context.Context, actor, id string) error {
	if err := s.checkPostOwner(ctx, id, actor); err != nil {
		return err
	}

	if err := s.s.InTx(ctx, func(tx storage.Storage) error {
		if err := tx.UnpinPosts(ctx, actor); err != nil {
			return err
		}

		return tx.SetPostPinned(ctx, id, true)
	}); err != nil {
		return fmt.Errorf("failed to pin post: %w", err)
	}

	return nil
}

func (s srv) UnpinPost(ctx context.Context, actor, id string) error {
	if err := s.checkPostOwner(ctx, id, actor); err != nil {
		return err
	}

	if err := s.s.SetPostPinned(ctx, id, false); err != nil {
		return fmt.Errorf("failed to unpin post: %w", err)
	}

	return nil
}

func (s srv) GetPinnedPost(ctx context.Context, owner string) (*entities.Post, error) {
	p, err := s.s.GetPinnedPost(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get pinned post: %w", err)
	}

	return p, nil
}

func (s srv) ReplaceSuggestedPosts(ctx context.Context, source string, posts []*entities.Post) error {
	// user-authored content is never replaced wholesale
	if source == entities.AppSource || source == "" {
		return fmt.Errorf("%w: source %q can not be replaced", service.ErrInvalidRequest, source)
	}

	for _, p := range posts {
		if p.Source != source {
			return fmt.Errorf("%w: post %s has source %q", service.ErrInvalidRequest, p.ID, p.Source)
		}
	}

	if err := s.s.InTx(ctx, func(tx storage.Storage) error {
		return tx.ReplacePostsBySource(ctx, source, posts)
	}); err != nil {
		return fmt.Errorf("failed to replace posts: %w", err)
	}

	return nil
}

func (s srv) AddComment(ctx context.Context, c *entities.Comment) (*entities.Comment, error) {
	if c.Text == "" {
		return nil, fmt.Errorf("%w: text is required", service.ErrInvalidRequest)
	}
	if c.Owner == "" {
		return nil, fmt.Errorf("%w: owner is required", service.ErrInvalidRequest)
	}

	out := *c
	out.ID = uuid.NewString()
	out.CreatedAt = time.Now().UTC()

	if out.Username == "" {
		u, err := s.s.GetUser(ctx, out.Owner)
		if err != nil {
			return nil, fmt.Errorf("failed to get comment author: %w", err)
		}
		out.Username = u.Username
	}

	if err := s.s.AddComment(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	return &out, nil
}

func (s srv) ListComments(ctx context.Context, postID string) ([]*entities.Comment, error) {
	comments, err := s.s.ListComments(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, nil
}

func (s srv) Register(ctx context.Context, u *entities.User, password string) (*entities.User, error) {
	if u.Username == "" {
		return nil, fmt.Errorf("%w: username is required", service.ErrInvalidRequest)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password is too short", service.ErrInvalidRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	out := *u
	out.ID = uuid.NewString()
	out.CreatedAt = time.Now().UTC()

	if err := s.s.CreateUser(ctx, &out, string(hash)); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, service.ErrUsernameTaken
		}

		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &out, nil
}

func (s srv) Login(ctx context.Context, username, password string) (*entities.User, error) {
	u, err := s.s.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, service.ErrInvalidCredentials
		}

		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	hash, err := s.s.GetPasswordHash(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get password hash: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, service.ErrInvalidCredentials
	}

	return u, nil
}

func (s srv) GetUser(ctx context.Context, id string) (*entities.User, error) {
	u, err := s.s.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// ResolveUser never fails with not-found: ids referenced by posts and comments
// may be absent from the roster (seeded and scraped content), so an unknown id
// produces a transient displayable user instead of an error.
func (s srv) ResolveUser(ctx context.Context, id, fallbackUsername string) (*entities.User, error) {
	u, err := s.s.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &entities.User{
				ID:       id,
				Username: fallbackUsername,
			}, nil
		}

		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (s srv) UpdateProfile(ctx context.Context, p *storage.UpdateProfileParams) error {
	if p.Username != nil && *p.Username == "" {
		return fmt.Errorf("%w: username can not be empty", service.ErrInvalidRequest)
	}

	if err := s.s.UpdateProfile(ctx, p); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return service.ErrUsernameTaken
		}

		return fmt.Errorf("failed to update profile: %w", err)
	}

	return nil
}

func (s srv) SendMessage(ctx context.Context, m *entities.Message) (*entities.Message, error) {
	if m.Text == "" {
		return nil, fmt.Errorf("%w: text is required", service.ErrInvalidRequest)
	}
	if m.Receiver == "" {
		return nil, fmt.Errorf("%w: receiver is required", service.ErrInvalidRequest)
	}
	if m.Receiver == m.Sender {
		return nil, fmt.Errorf("%w: can not message yourself", service.ErrInvalidRequest)
	}

	out := *m
	out.ID = uuid.NewString()
	out.CreatedAt = time.Now().UTC()
	out.Read = false

	if err := s.s.CreateMessage(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return &out, nil
}

func (s srv) Conversation(ctx context.Context, a, b string) ([]*entities.Message, error) {
	messages, err := s.s.ListConversation(ctx, a, b)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation: %w", err)
	}

	return messages, nil
}

func (s srv) Inbox(ctx context.Context, user string) ([]*entities.Message, error) {
	messages, err := s.s.ListInbox(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}

	return messages, nil
}

func (s srv) MarkMessageRead(ctx context.Context, id, reader string) error {
	if err := s.s.MarkMessageRead(ctx, id, reader); err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}

	return nil
}

func (s srv) TrackView(ctx context.Context, user, postID string) error {
	// the post must be visible to the viewer, private posts of other
	// owners are untrackable
	if _, err := s.GetPost(ctx, postID, user); err != nil {
		return err
	}

	enabled, err := s.s.IsHistoryEnabled(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to get history setting: %w", err)
	}

	if !enabled {
		return nil
	}

	if err := s.s.AddToHistory(ctx, user, postID, storage.HistoryLimit); err != nil {
		return fmt.Errorf("failed to add to history: %w", err)
	}

	return nil
}

func (s srv) History(ctx context.Context, user string) ([]*entities.Post, error) {
	posts, err := s.s.ListHistory(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	// a viewed post may have been made private since
	out := posts[:0]
	for _, p := range posts {
		if p.IsPrivate && p.Owner != user {
			continue
		}
		out = append(out, p)
	}

	return out, nil
}

func (s srv) ClearHistory(ctx context.Context, user string) error {
	if err := s.s.ClearHistory(ctx, user); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	return nil
}

// SetHistoryEnabled turning history off also wipes what was collected.
func (s srv) SetHistoryEnabled(ctx context.Context, user string, enabled bool) error {
	if err := s.s.SetHistoryEnabled(ctx, user, enabled); err != nil {
		return fmt.Errorf("failed to set history setting: %w", err)
	}

	if !enabled {
		if err := s.s.ClearHistory(ctx, user); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
	}

	return nil
}

func (s srv) HistoryEnabled(ctx context.Context, user string) (bool, error) {
	enabled, err := s.s.IsHistoryEnabled(ctx, user)
	if err != nil {
		return false, fmt.Errorf("failed to get history setting: %w", err)
	}

	return enabled, nil
}

func (s srv) checkPostOwner(ctx context.Context, id, actor string) error {
	p, err := s.s.GetPost(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get post: %w", err)
	}

	if p.Owner != actor {
		return service.ErrForbidden
	}

	return nil
}
