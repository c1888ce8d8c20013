package suggestions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/buddiee-app/buddiee/internal/entities"
)

const fetchTimeout = 5 * time.Second

// Client talks to the scraper backend.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates Client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: fetchTimeout,
		},
	}
}

type fetchedUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type fetchedPost struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	ImageURLs   []string    `json:"image_urls"`
	User        fetchedUser `json:"user"`
	Category    string      `json:"category"`
	Location    string      `json:"location"`
	Source      string      `json:"source"`
	CreatedAt   isoTime     `json:"created_at"`
	IsPrivate   bool        `json:"is_private"`
	IsPinned    bool        `json:"is_pinned"`
}

type filteredPost struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

type fetchResponse struct {
	SuccessPosts      []fetchedPost  `json:"success_posts"`
	FilteredDebugInfo []filteredPost `json:"filtered_debug_info"`
	StatusMessage     string         `json:"status_message"`
	IsComplete        bool           `json:"is_complete"`
}

// isoTime accepts RFC3339 timestamps with or without a timezone suffix.
type isoTime time.Time

func (t *isoTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		parsed, err = time.Parse("2006-01-02T15:04:05", s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
	}

	*t = isoTime(parsed)

	return nil
}

// FetchPosts requests a scraper run and maps its output to posts.
func (c *Client) FetchPosts(ctx context.Context) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/posts", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body fetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := FetchResult{
		Posts:         make([]*entities.Post, 0, len(body.SuccessPosts)),
		Filtered:      make([]entities.FilteredPost, 0, len(body.FilteredDebugInfo)),
		StatusMessage: body.StatusMessage,
	}

	for _, p := range body.SuccessPosts {
		out.Posts = append(out.Posts, &entities.Post{
			ID:              p.ID,
			Owner:           p.User.ID,
			Username:        p.User.Username,
			Photos:          p.ImageURLs,
			MainCaption:     p.Title,
			DetailedCaption: p.Description,
			Subject:         p.Category,
			Location:        p.Location,
			UserLocation:    p.Location,
			Source:          entities.RedditSource,
			CreatedAt:       time.Time(p.CreatedAt).UTC(),
		})
	}

	for _, f := range body.FilteredDebugInfo {
		out.Filtered = append(out.Filtered, entities.FilteredPost{
			Title:  f.Title,
			Reason: f.Reason,
		})
	}

	return &out, nil
}
