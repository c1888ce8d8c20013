// Package entities contains main entities of service.
package entities

import (
	"time"
)

// Post sources.
const (
	// AppSource marks posts created by users through the app.
	AppSource = "app"
	// RedditSource marks posts suggested by the scraper backend.
	RedditSource = "reddit"
)

// MaxPostPhotos is the maximum count of photos attached to a post.
const MaxPostPhotos = 6

// Post is an activity listing authored by a user or pulled from an external source.
type Post struct {
	ID              string
	Owner           string
	Username        string
	Photos          []string
	MainCaption     string
	DetailedCaption string
	Subject         string
	Location        string
	UserLocation    string
	Source          string
	CreatedAt       time.Time
	Likes           uint32
	IsPrivate       bool
	IsPinned        bool
}

// Comment ...
type Comment struct {
	ID        string
	PostID    string
	Owner     string
	Username  string
	Text      string
	CreatedAt time.Time
}

// User ...
type User struct {
	ID        string
	Username  string
	Avatar    string
	Bio       string
	Location  string
	Interests []string
	CreatedAt time.Time
}

// Message is a direct message between two users, immutable once sent.
type Message struct {
	ID        string
	Sender    string
	Receiver  string
	Text      string
	CreatedAt time.Time
	Read      bool
}

// FilteredPost describes a post rejected by the suggestions backend with a reason.
type FilteredPost struct {
	Title  string
	Reason string
}
