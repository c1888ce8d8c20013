// Package service contains interface for service business-logic.
package service

import (
	"context"
	"errors"

	"github.com/buddiee-app/buddiee/internal/entities"
	"github.com/buddiee-app/buddiee/internal/storage"
)

//go:generate mockgen -destination=./mock/service.go -package=mock -source=service.go

// ErrInvalidRequest returned when a mutation payload fails validation.
var ErrInvalidRequest = errors.New("invalid request")

// ErrForbidden returned when the actor is not allowed to modify the target.
var ErrForbidden = errors.New("forbidden")

// ErrUsernameTaken ...
var ErrUsernameTaken = errors.New("username is taken")

// ErrInvalidCredentials ...
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service ...
type Service interface {
	Ping(ctx context.Context) error

	CreatePost(ctx context.Context, p *entities.Post) (*entities.Post, error)
	GetPost(ctx context.Context, id, viewer string) (*entities.Post, error)
	ListPosts(ctx context.Context, p *storage.ListPostsParams) ([]*entities.Post, error)
	UpdatePost(ctx context.Context, actor string, p *storage.UpdatePostParams) error
	DeletePost(ctx context.Context, actor, id string) error
	LikePost(ctx context.Context, id string) error
	SetPostPrivacy(ctx context.Context, actor, id string, private bool) error
	PinPost(ctx context.Context, actor, id string) error
	UnpinPost(ctx context.Context, actor, id string) error
	GetPinnedPost(ctx context.Context, owner string) (*entities.Post, error)
	ReplaceSuggestedPosts(ctx context.Context, source string, posts []*entities.Post) error

	AddComment(ctx context.Context, c *entities.Comment) (*entities.Comment, error)
	ListComments(ctx context.Context, postID string) ([]*entities.Comment, error)

	Register(ctx context.Context, u *entities.User, password string) (*entities.User, error)
	Login(ctx context.Context, username, password string) (*entities.User, error)
	GetUser(ctx context.Context, id string) (*entities.User, error)
	ResolveUser(ctx context.Context, id, fallbackUsername string) (*entities.User, error)
	UpdateProfile(ctx context.Context, p *storage.UpdateProfileParams) error

	SendMessage(ctx context.Context, m *entities.Message) (*entities.Message, error)
	Conversation(ctx context.Context, a, b string) ([]*entities.Message, error)
	Inbox(ctx context.Context, user string) ([]*entities.Message, error)
	MarkMessageRead(ctx context.Context, id, reader string) error

	TrackView(ctx context.Context, user, postID string) error
	History(ctx context.Context, user string) ([]*entities.Post, error)
	ClearHistory(ctx context.Context, user string) error
	SetHistoryEnabled(ctx context.Context, user string, enabled bool) error
	HistoryEnabled(ctx context.Context, user string) (bool, error)
}
