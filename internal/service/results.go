package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/powerpix/powerpix-api/internal/pkg/drawresults"
)

type ResultsFeed interface {
	LatestOfficialResult(ctx context.Context) (*drawresults.OfficialResult, error)
}

type LatestResult struct {
	Result    *drawresults.OfficialResult `json:"result"`
	FetchedAt time.Time                   `json:"fetched_at"`
}

// ResultsService keeps the last published result for display. It is never applied to a round.
type ResultsService struct {
	feed ResultsFeed
	now  func() time.Time

	mu     sync.RWMutex
	latest LatestResult
}

func NewResultsService(feed ResultsFeed) *ResultsService {
	return &ResultsService{
		feed: feed,
		now:  time.Now,
	}
}

func (s *ResultsService) Refresh(ctx context.Context) (LatestResult, error) {
	res, err := s.feed.LatestOfficialResult(ctx)
	if err != nil {
		return LatestResult{}, fmt.Errorf("s.feed.LatestOfficialResult -> %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if res != nil {
		s.latest = LatestResult{Result: res, FetchedAt: s.now()}
	}

	return s.latest, nil
}

// Latest serves the cached copy, fetching once when nothing is cached yet.
func (s *ResultsService) Latest(ctx context.Context) (LatestResult, error) {
	s.mu.RLock()
	cached := s.latest
	s.mu.RUnlock()

	if cached.Result != nil {
		return cached, nil
	}

	return s.Refresh(ctx)
}
