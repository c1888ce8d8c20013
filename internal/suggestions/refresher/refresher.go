// Package refresher keeps suggested posts up to date.
package refresher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/buddiee-app/buddiee/internal/entities"
	"github.com/buddiee-app/buddiee/internal/service"
	"github.com/buddiee-app/buddiee/internal/suggestions"
)

var log = logrus.WithField("package", "refresher")

type refresher struct {
	f        suggestions.Fetcher
	s        service.Service
	interval time.Duration

	// seq orders fetches so a slow one can not overwrite a newer result.
	seq uint64

	mu          sync.Mutex
	lastSuccess time.Time
}

// New creates a refresher which replaces suggested posts every interval.
func New(f suggestions.Fetcher, s service.Service, interval time.Duration) suggestions.Refresher {
	return &refresher{
		f:        f,
		s:        s,
		interval: interval,
	}
}

func (r *refresher) Run(ctx context.Context) error {
	r.refresh(ctx)

	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			go r.refresh(ctx)
		}
	}
}

func (r *refresher) refresh(ctx context.Context) {
	token := atomic.AddUint64(&r.seq, 1)

	res, err := r.f.FetchPosts(ctx)
	if err != nil {
		log.WithError(err).Error("failed to fetch suggested posts")
		return
	}

	// the check and the apply stay under one lock, otherwise a newer
	// refresh could land between them and get overwritten
	r.mu.Lock()
	defer r.mu.Unlock()

	if atomic.LoadUint64(&r.seq) != token {
		log.Debug("discarding stale fetch result")
		return
	}

	if err := r.s.ReplaceSuggestedPosts(ctx, entities.RedditSource, res.Posts); err != nil {
		log.WithError(err).Error("failed to replace suggested posts")
		return
	}

	for _, f := range res.Filtered {
		log.WithFields(logrus.Fields{
			"title":  f.Title,
			"reason": f.Reason,
		}).Debug("post filtered out by scraper")
	}

	log.WithField("count", len(res.Posts)).Info("suggested posts refreshed")

	r.lastSuccess = time.Now()
}

func (r *refresher) Ping(_ context.Context) (interface{}, error) {
	r.mu.Lock()
	last := r.lastSuccess
	r.mu.Unlock()

	if last.IsZero() {
		return nil, fmt.Errorf("no successful refresh yet")
	}

	if since := time.Since(last); since > 3*r.interval {
		return last, fmt.Errorf("last refresh was %s ago", since)
	}

	return last, nil
}

func (r *refresher) Name() string {
	return "suggestions"
}
