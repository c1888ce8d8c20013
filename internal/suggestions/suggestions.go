// Package suggestions contains the interface of the suggested-posts refresher.
package suggestions

import (
	"context"

	"github.com/buddiee-app/buddiee/internal/entities"
	"github.com/buddiee-app/buddiee/internal/health"
)

//go:generate mockgen -destination=./mock/suggestions.go -package=suggestions -source=suggestions.go

// FetchResult is a scraper run outcome.
type FetchResult struct {
	Posts         []*entities.Post
	Filtered      []entities.FilteredPost
	StatusMessage string
}

// Fetcher fetches suggested posts from the scraper backend.
type Fetcher interface {
	FetchPosts(ctx context.Context) (*FetchResult, error)
}

// Refresher periodically replaces suggested posts with fresh ones.
type Refresher interface {
	health.Pinger

	Run(ctx context.Context) error
}
