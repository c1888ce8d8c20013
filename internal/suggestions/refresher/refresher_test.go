package refresher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buddiee-app/buddiee/internal/entities"
	servicemock "github.com/buddiee-app/buddiee/internal/service/mock"
	"github.com/buddiee-app/buddiee/internal/suggestions"
	fetchermock "github.com/buddiee-app/buddiee/internal/suggestions/mock"
)

func TestRefresher_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := fetchermock.NewMockFetcher(ctrl)
	s := servicemock.NewMockService(ctrl)

	posts := []*entities.Post{{ID: "1", Source: entities.RedditSource}}

	f.EXPECT().FetchPosts(gomock.Any()).Return(&suggestions.FetchResult{Posts: posts}, nil)

	done := make(chan struct{})
	s.EXPECT().ReplaceSuggestedPosts(gomock.Any(), entities.RedditSource, posts).DoAndReturn(
		func(_ context.Context, _ string, _ []*entities.Post) error {
			close(done)
			return nil
		})

	r := New(f, s, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = r.Run(ctx)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresh was not applied")
	}
	cancel()

	_, err := r.Ping(ctx)
	assert.NoError(t, err)
}

func TestRefresher_fetchError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := fetchermock.NewMockFetcher(ctrl)
	s := servicemock.NewMockService(ctrl)

	f.EXPECT().FetchPosts(gomock.Any()).Return(nil, errors.New("scraper down"))

	r := &refresher{f: f, s: s, interval: time.Hour}
	r.refresh(context.Background())

	// state was kept, health reflects the failure
	_, err := r.Ping(context.Background())
	assert.Error(t, err)
}

func TestRefresher_staleResultDiscarded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := fetchermock.NewMockFetcher(ctrl)
	s := servicemock.NewMockService(ctrl)

	r := &refresher{f: f, s: s, interval: time.Hour}

	// a newer fetch starts while this one is in flight
	f.EXPECT().FetchPosts(gomock.Any()).DoAndReturn(func(context.Context) (*suggestions.FetchResult, error) {
		atomic.AddUint64(&r.seq, 1)
		return &suggestions.FetchResult{Posts: []*entities.Post{{ID: "stale", Source: entities.RedditSource}}}, nil
	})

	r.refresh(context.Background())

	_, err := r.Ping(context.Background())
	require.Error(t, err)
}

func TestRefresher_overlappingRefreshWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := fetchermock.NewMockFetcher(ctrl)
	s := servicemock.NewMockService(ctrl)

	r := &refresher{f: f, s: s, interval: time.Hour}

	fresh := []*entities.Post{{ID: "fresh", Source: entities.RedditSource}}

	// the newer refresh runs to completion while the first fetch is still
	// in flight, only its result may be applied
	gomock.InOrder(
		f.EXPECT().FetchPosts(gomock.Any()).DoAndReturn(func(ctx context.Context) (*suggestions.FetchResult, error) {
			r.refresh(ctx)
			return &suggestions.FetchResult{Posts: []*entities.Post{{ID: "stale", Source: entities.RedditSource}}}, nil
		}),
		f.EXPECT().FetchPosts(gomock.Any()).Return(&suggestions.FetchResult{Posts: fresh}, nil),
	)

	s.EXPECT().ReplaceSuggestedPosts(gomock.Any(), entities.RedditSource, fresh).Return(nil)

	r.refresh(context.Background())

	_, err := r.Ping(context.Background())
	assert.NoError(t, err)
}
