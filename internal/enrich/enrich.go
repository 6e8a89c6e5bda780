// Package enrich orchestrates website identification for stored businesses:
// discovery, verification, store update, and the identified event.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/juanroddotdev/LeadForge/internal/lead"
	"github.com/juanroddotdev/LeadForge/internal/telemetry"
)

// Status classifies one identification attempt.
type Status string

const (
	// StatusIdentified means a website was discovered, verified and saved.
	StatusIdentified Status = "identified"
	// StatusAlreadyIdentified means the business already had a website.
	StatusAlreadyIdentified Status = "already_identified"
	// StatusNoWebsite means nothing acceptable was discovered or verified.
	StatusNoWebsite Status = "no_website"
	// StatusNotFound means the batch index did not address a business.
	StatusNotFound Status = "not_found"
)

// BatchItem is the outcome for one index of a batch request.
type BatchItem struct {
	BusinessID int
	Status     Status
	Business   *lead.Business
}

// Config holds enrichment knobs.
type Config struct {
	// RequestsPerSecond paces discovery attempts. Identification stays
	// strictly sequential; the limiter spaces consecutive attempts.
	RequestsPerSecond float64
	// Topic receives WebsiteIdentifiedEvent payloads.
	Topic string
}

// Service runs website identification against the store.
type Service struct {
	store      lead.Store
	discoverer lead.Discoverer
	verifier   lead.Verifier
	publisher  lead.Publisher
	limiter    *rate.Limiter
	clock      lead.Clock
	logger     *zap.Logger
	topic      string
}

// New builds an enrichment service. The publisher may be nil when no event
// transport is configured.
func New(
	store lead.Store,
	discoverer lead.Discoverer,
	verifier lead.Verifier,
	publisher lead.Publisher,
	cfg Config,
	clock lead.Clock,
	logger *zap.Logger,
) *Service {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Service{
		store:      store,
		discoverer: discoverer,
		verifier:   verifier,
		publisher:  publisher,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		clock:      clock,
		logger:     logger,
		topic:      cfg.Topic,
	}
}

// IdentifyByID looks up one business by id and attempts identification.
// A store miss surfaces as lead.NotFoundError.
func (s *Service) IdentifyByID(ctx context.Context, id string) (lead.Business, Status, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return lead.Business{}, "", err
	}
	return s.identify(ctx, b)
}

// IdentifyBatch processes the indexes strictly in order. Unknown indexes and
// already-identified businesses are reported without consuming pacing; the
// returned error is reserved for store or cancellation failures that abort
// the whole batch.
func (s *Service) IdentifyBatch(ctx context.Context, indexes []int) ([]BatchItem, error) {
	results := make([]BatchItem, 0, len(indexes))
	for _, idx := range indexes {
		b, err := s.store.GetByIndex(ctx, idx)
		if err != nil {
			var nfe *lead.NotFoundError
			if errors.As(err, &nfe) {
				results = append(results, BatchItem{BusinessID: idx, Status: StatusNotFound})
				continue
			}
			return nil, err
		}

		updated, status, err := s.identify(ctx, b)
		if err != nil {
			return nil, err
		}
		business := updated
		results = append(results, BatchItem{BusinessID: idx, Status: status, Business: &business})
	}
	return results, nil
}

func (s *Service) identify(ctx context.Context, b lead.Business) (lead.Business, Status, error) {
	if b.HasWebsite() {
		s.logger.Debug("website already identified",
			zap.String("business_id", b.ID),
			zap.Stringp("website", b.Website),
		)
		return b, StatusAlreadyIdentified, nil
	}

	if err := s.wait(ctx); err != nil {
		return lead.Business{}, "", err
	}

	res := s.discoverer.Discover(ctx, b.BusinessName, b.Location)
	if res.Outcome != lead.OutcomeFound {
		s.logger.Info("no website discovered",
			zap.String("business_id", b.ID),
			zap.String("business_name", b.BusinessName),
			zap.String("outcome", string(res.Outcome)),
			zap.String("detail", res.Detail),
		)
		return b, StatusNoWebsite, nil
	}

	if !s.verifier.Verify(ctx, res.URL) {
		telemetry.ObserveVerification("rejected")
		s.logger.Info("discovered website failed verification",
			zap.String("business_id", b.ID),
			zap.String("url", res.URL),
		)
		return b, StatusNoWebsite, nil
	}
	telemetry.ObserveVerification("ok")

	updated, err := s.store.SetWebsite(ctx, b.ID, res.URL)
	if err != nil {
		return lead.Business{}, "", fmt.Errorf("save website: %w", err)
	}

	s.publishIdentified(ctx, updated)
	s.logger.Info("website identified",
		zap.String("business_id", updated.ID),
		zap.String("business_name", updated.BusinessName),
		zap.String("website", res.URL),
	)
	return updated, StatusIdentified, nil
}

// wait paces discovery attempts so consecutive provider lookups stay spaced.
func (s *Service) wait(ctx context.Context) error {
	start := time.Now()
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("enrich pacing: %w", err)
	}
	telemetry.ObserveEnrichWait(time.Since(start))
	return nil
}

// publishIdentified emits the identified event best-effort; a broker failure
// never fails the identification itself.
func (s *Service) publishIdentified(ctx context.Context, b lead.Business) {
	if s.publisher == nil {
		return
	}
	website := ""
	if b.Website != nil {
		website = *b.Website
	}
	event := lead.WebsiteIdentifiedEvent{
		BusinessID:   b.ID,
		BusinessName: b.BusinessName,
		Website:      website,
		IdentifiedAt: s.clock.Now().UTC(),
	}
	id, err := s.publisher.Publish(ctx, s.topic, event)
	if err != nil {
		s.logger.Warn("website identified event publish failed",
			zap.String("business_id", b.ID),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("website identified event published",
		zap.String("business_id", b.ID),
		zap.String("message_id", id),
	)
}
