package server

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/buddiee-app/buddiee/internal/entities"
	"github.com/buddiee-app/buddiee/internal/storage"
)

const maxLimit = 100
const defaultLimit = 20

// Error ...
type Error struct {
	Error string `json:"error"`
}

// Post ...
type Post struct {
	ID              string   `json:"id"`
	Owner           string   `json:"owner"`
	Username        string   `json:"username"`
	Photos          []string `json:"photos"`
	MainCaption     string   `json:"main_caption"`
	DetailedCaption string   `json:"detailed_caption"`
	Subject         string   `json:"subject"`
	Location        string   `json:"location"`
	UserLocation    string   `json:"user_location"`
	Source          string   `json:"source"`
	CreatedAt       int64    `json:"created_at"`
	Likes           uint32   `json:"likes"`
	IsPrivate       bool     `json:"is_private"`
	IsPinned        bool     `json:"is_pinned"`
}

// Comment ...
type Comment struct {
	ID        string `json:"id"`
	PostID    string `json:"post_id"`
	Owner     string `json:"owner"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
}

// User ...
type User struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Avatar    string   `json:"avatar"`
	Bio       string   `json:"bio"`
	Location  string   `json:"location"`
	Interests []string `json:"interests"`
	CreatedAt int64    `json:"created_at"`
}

// Message ...
type Message struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
	Read      bool   `json:"read"`
}

// ListPostsResponse ...
type ListPostsResponse struct {
	Posts []Post `json:"posts"`
}

// CreatePostRequest ...
type CreatePostRequest struct {
	Photos          []string `json:"photos"`
	MainCaption     string   `json:"main_caption"`
	DetailedCaption string   `json:"detailed_caption"`
	Subject         string   `json:"subject"`
	Location        string   `json:"location"`
	UserLocation    string   `json:"user_location"`
}

// UpdatePostRequest ...
type UpdatePostRequest struct {
	Photos          []string `json:"photos"`
	MainCaption     string   `json:"main_caption"`
	DetailedCaption string   `json:"detailed_caption"`
	Subject         string   `json:"subject"`
	Location        string   `json:"location"`
	UserLocation    string   `json:"user_location"`
}

// SetPrivacyRequest ...
type SetPrivacyRequest struct {
	IsPrivate bool `json:"is_private"`
}

// AddCommentRequest ...
type AddCommentRequest struct {
	Text string `json:"text"`
}

// RegisterRequest ...
type RegisterRequest struct {
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	Avatar    string   `json:"avatar"`
	Bio       string   `json:"bio"`
	Location  string   `json:"location"`
	Interests []string `json:"interests"`
}

// LoginRequest ...
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse ...
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// UpdateProfileRequest ...
type UpdateProfileRequest struct {
	Username  *string  `json:"username"`
	Avatar    *string  `json:"avatar"`
	Bio       *string  `json:"bio"`
	Location  *string  `json:"location"`
	Interests []string `json:"interests"`
}

// SendMessageRequest ...
type SendMessageRequest struct {
	Receiver string `json:"receiver"`
	Text     string `json:"text"`
}

// HistorySettings ...
type HistorySettings struct {
	Enabled bool `json:"enabled"`
}

func toPostResponse(p *entities.Post) Post {
	photos := p.Photos
	if photos == nil {
		photos = []string{}
	}

	return Post{
		ID:              p.ID,
		Owner:           p.Owner,
		Username:        p.Username,
		Photos:          photos,
		MainCaption:     p.MainCaption,
		DetailedCaption: p.DetailedCaption,
		Subject:         p.Subject,
		Location:        p.Location,
		UserLocation:    p.UserLocation,
		Source:          p.Source,
		CreatedAt:       p.CreatedAt.Unix(),
		Likes:           p.Likes,
		IsPrivate:       p.IsPrivate,
		IsPinned:        p.IsPinned,
	}
}

func toListPostsResponse(posts []*entities.Post) ListPostsResponse {
	out := ListPostsResponse{
		Posts: make([]Post, 0, len(posts)),
	}

	for _, p := range posts {
		out.Posts = append(out.Posts, toPostResponse(p))
	}

	return out
}

func toCommentResponse(c *entities.Comment) Comment {
	return Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		Owner:     c.Owner,
		Username:  c.Username,
		Text:      c.Text,
		CreatedAt: c.CreatedAt.Unix(),
	}
}

func toUserResponse(u *entities.User) User {
	interests := u.Interests
	if interests == nil {
		interests = []string{}
	}

	return User{
		ID:        u.ID,
		Username:  u.Username,
		Avatar:    u.Avatar,
		Bio:       u.Bio,
		Location:  u.Location,
		Interests: interests,
		CreatedAt: u.CreatedAt.Unix(),
	}
}

func toMessageResponse(m *entities.Message) Message {
	return Message{
		ID:        m.ID,
		Sender:    m.Sender,
		Receiver:  m.Receiver,
		Text:      m.Text,
		CreatedAt: m.CreatedAt.Unix(),
		Read:      m.Read,
	}
}

func extractListParamsFromQuery(q url.Values) (*storage.ListPostsParams, error) {
	out := storage.ListPostsParams{
		SortBy:  storage.CreatedAtSortType,
		OrderBy: storage.DescendingOrder,
		Limit:   defaultLimit,
	}

	switch s := q.Get("sortBy"); s {
	case "":
	case "created_at":
		out.SortBy = storage.CreatedAtSortType
	case "likes":
		out.SortBy = storage.LikesSortType
	default:
		return nil, fmt.Errorf("%w: invalid sortBy", errInvalidRequest)
	}

	switch s := q.Get("orderBy"); s {
	case "":
	case "asc":
		out.OrderBy = storage.AscendingOrder
	case "desc":
		out.OrderBy = storage.DescendingOrder
	default:
		return nil, fmt.Errorf("%w: invalid orderBy", errInvalidRequest)
	}

	if s := q.Get("limit"); s != "" {
		limit, err := strconv.ParseUint(s, 10, 16)
		if err != nil || limit == 0 || limit > maxLimit {
			return nil, fmt.Errorf("%w: invalid limit", errInvalidRequest)
		}
		out.Limit = uint16(limit)
	}

	if s := q.Get("owner"); s != "" {
		out.Owner = &s
	}

	if s := q.Get("subject"); s != "" {
		out.Subject = &s
	}

	if s := q.Get("source"); s != "" {
		if s != entities.AppSource && s != entities.RedditSource {
			return nil, fmt.Errorf("%w: invalid source", errInvalidRequest)
		}
		out.Source = &s
	}

	if s := q.Get("after"); s != "" {
		out.After = &s
	}

	return &out, nil
}
