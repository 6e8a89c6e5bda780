package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/juanroddotdev/LeadForge/internal/lead"
	"github.com/juanroddotdev/LeadForge/internal/telemetry"
)

const defaultQuotaPause = 2 * time.Second

// Config holds discovery service knobs.
type Config struct {
	// QuotaPause is how long to wait after a quota-exhausted response
	// before moving on to the next query template.
	QuotaPause time.Duration
}

// Service resolves a business to its most likely website. It runs a small
// set of query templates of decreasing specificity and returns the first
// result link that survives the filters.
type Service struct {
	searcher   lead.Searcher
	filter     *linkFilter
	quotaPause time.Duration
	pause      func(ctx context.Context, d time.Duration)
	logger     *zap.Logger
}

// New builds a discovery service around a searcher.
func New(searcher lead.Searcher, cfg Config, logger *zap.Logger) *Service {
	pauseFor := cfg.QuotaPause
	if pauseFor <= 0 {
		pauseFor = defaultQuotaPause
	}
	return &Service{
		searcher:   searcher,
		filter:     newLinkFilter(),
		quotaPause: pauseFor,
		pause:      sleepContext,
		logger:     logger,
	}
}

func queryTemplates(name, location string) []string {
	return []string{
		fmt.Sprintf("%q official website %s", name, location),
		fmt.Sprintf("%q website %s", name, location),
		fmt.Sprintf("%q %s", name, location),
		fmt.Sprintf("%q official website", name),
	}
}

// Discover runs the query templates in order and returns a tagged result.
// Without credentials it returns NotFound immediately, no provider calls.
func (s *Service) Discover(ctx context.Context, name, location string) lead.DiscoveryResult {
	if !s.searcher.Configured() {
		s.logger.Warn("search credentials not configured, skipping discovery",
			zap.String("business_name", name),
		)
		return s.observe(lead.NotFound("search credentials not configured"))
	}

	var lastErr error
	for _, query := range queryTemplates(name, location) {
		items, err := s.searcher.Search(ctx, query)
		if err != nil {
			lastErr = err
			if errors.Is(err, lead.ErrQuotaExhausted) {
				telemetry.ObserveSearch("quota")
				s.logger.Warn("search quota exhausted, pausing before next query",
					zap.String("query", query),
					zap.Duration("pause", s.quotaPause),
				)
				s.pause(ctx, s.quotaPause)
				continue
			}
			telemetry.ObserveSearch("error")
			s.logger.Warn("search query failed",
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}
		telemetry.ObserveSearch("ok")

		for _, item := range items {
			ok, reason := s.filter.Allow(item.Link, name)
			if !ok {
				s.logger.Debug("result filtered",
					zap.String("url", item.Link),
					zap.String("reason", reason),
				)
				continue
			}
			s.logger.Info("website candidate found",
				zap.String("business_name", name),
				zap.String("url", item.Link),
				zap.String("query", query),
			)
			return s.observe(lead.Found(item.Link))
		}
	}

	if lastErr != nil {
		return s.observe(lead.ProviderFailure(lastErr.Error()))
	}
	return s.observe(lead.NotFound("no acceptable result for any query"))
}

func (s *Service) observe(res lead.DiscoveryResult) lead.DiscoveryResult {
	telemetry.ObserveDiscovery(string(res.Outcome))
	return res
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
