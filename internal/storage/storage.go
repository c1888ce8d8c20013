// Package storage contains a storage interface.
package storage

import (
	"context"
	"fmt"

	"github.com/buddiee-app/buddiee/internal/entities"
)

//go:generate mockgen -destination=./mock/storage.go -package=mock -source=storage.go

// ErrNotFound ...
var ErrNotFound = fmt.Errorf("not found")

// ErrAlreadyExists ...
var ErrAlreadyExists = fmt.Errorf("already exists")

// HistoryLimit is the maximum count of posts kept in a user's browsing history.
const HistoryLimit = 50

// Storage provides methods for interacting with database.
type Storage interface {
	InTx(ctx context.Context, f func(s Storage) error) error
	Ping(ctx context.Context) error

	CreatePost(ctx context.Context, p *entities.Post) error
	GetPost(ctx context.Context, id string) (*entities.Post, error)
	ListPosts(ctx context.Context, p *ListPostsParams) ([]*entities.Post, error)
	UpdatePost(ctx context.Context, p *UpdatePostParams) error
	DeletePost(ctx context.Context, id string) error
	LikePost(ctx context.Context, id string) error
	SetPostPrivacy(ctx context.Context, id string, private bool) error
	SetPostPinned(ctx context.Context, id string, pinned bool) error
	UnpinPosts(ctx context.Context, owner string) error
	GetPinnedPost(ctx context.Context, owner string) (*entities.Post, error)
	ReplacePostsBySource(ctx context.Context, source string, posts []*entities.Post) error

	AddComment(ctx context.Context, c *entities.Comment) error
	ListComments(ctx context.Context, postID string) ([]*entities.Comment, error)

	CreateUser(ctx context.Context, u *entities.User, passwordHash string) error
	GetUser(ctx context.Context, id string) (*entities.User, error)
	GetUserByUsername(ctx context.Context, username string) (*entities.User, error)
	GetPasswordHash(ctx context.Context, id string) (string, error)
	UpdateProfile(ctx context.Context, p *UpdateProfileParams) error

	CreateMessage(ctx context.Context, m *entities.Message) error
	ListConversation(ctx context.Context, a, b string) ([]*entities.Message, error)
	ListInbox(ctx context.Context, user string) ([]*entities.Message, error)
	MarkMessageRead(ctx context.Context, id, reader string) error

	AddToHistory(ctx context.Context, user, postID string, limit int) error
	ListHistory(ctx context.Context, user string) ([]*entities.Post, error)
	ClearHistory(ctx context.Context, user string) error
	SetHistoryEnabled(ctx context.Context, user string, enabled bool) error
	IsHistoryEnabled(ctx context.Context, user string) (bool, error)
}

// SortType ...
type SortType string

const (
	// CreatedAtSortType ...
	CreatedAtSortType SortType = "created_at"
	// LikesSortType ...
	LikesSortType SortType = "likes"
)

// OrderType ...
type OrderType string

const (
	// AscendingOrder ...
	AscendingOrder OrderType = "asc"
	// DescendingOrder ...
	DescendingOrder OrderType = "desc"
)

// ListPostsParams ...
type ListPostsParams struct {
	SortBy  SortType
	OrderBy OrderType
	Limit   uint16
	Owner   *string
	Subject *string
	Source  *string
	// VisibleTo includes private posts owned by the given user.
	// Private posts of other owners are never returned.
	VisibleTo *string
	After     *string
}

// UpdatePostParams ...
type UpdatePostParams struct {
	ID              string
	Photos          []string
	MainCaption     string
	DetailedCaption string
	Subject         string
	Location        string
	UserLocation    string
}

// UpdateProfileParams describes a merge of changed profile fields, nil fields are kept as is.
type UpdateProfileParams struct {
	ID        string
	Username  *string
	Avatar    *string
	Bio       *string
	Location  *string
	Interests []string
}
