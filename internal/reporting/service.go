package reporting

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/meridianbank/meridian-core/internal/shared"
)

// Service answers analytical queries, caching results between version bumps.
type Service struct {
	repo  Repository
	cache *Cache
	clock shared.Clock
}

// NewService builds the reporting service.
func NewService(repo Repository, cache *Cache, clock shared.Clock) *Service {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{repo: repo, cache: cache, clock: clock}
}

// MostActiveAccounts returns the accounts with the most outbound movements.
func (s *Service) MostActiveAccounts(ctx context.Context, order string, limit int) ([]ActiveAccount, error) {
	if order != "asc" {
		order = "desc"
	}

	key, err := s.cache.BuildKey(ctx, "reporting", "most-active", order, strconv.Itoa(limit))
	if err != nil {
		return nil, err
	}

	var results []ActiveAccount
	err = s.cache.FetchJSON(ctx, key, &results, func(ctx context.Context) (any, error) {
		return s.repo.MostActiveAccounts(ctx, order, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("reporting: most active accounts: %w", err)
	}
	return results, nil
}

// Summary returns the dashboard headline numbers for the current day.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	now := s.clock.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	key, err := s.cache.BuildKey(ctx, "reporting", "summary", midnight.Format("2006-01-02"))
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (any, error) {
		return s.repo.Summary(ctx, midnight)
	})
	if err != nil {
		return Summary{}, fmt.Errorf("reporting: summary: %w", err)
	}
	return summary, nil
}

// Invalidate advances the cache version after bulk changes to the log.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
