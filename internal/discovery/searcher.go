// Package discovery finds candidate business websites via an external
// search provider and filters them by heuristic rules.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/juanroddotdev/LeadForge/internal/lead"
)

const defaultEndpoint = "https://www.googleapis.com/customsearch/v1"

// Provider-level query knobs: top results per query, main-site results only,
// common document types excluded, restricted to the last year.
const (
	siteSearchFilter = "i"
	excludeTerms     = "pdf doc xls ppt"
	dateRestrict     = "y[1]"
)

// GoogleConfig configures the Custom Search client.
type GoogleConfig struct {
	APIKey            string
	EngineID          string
	Endpoint          string
	ResultsPerQuery   int
	Timeout           time.Duration
	RequestsPerSecond float64
}

// GoogleSearcher implements lead.Searcher against the Google Custom Search
// JSON API.
type GoogleSearcher struct {
	cfg        GoogleConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewGoogleSearcher builds a searcher from config. Missing credentials are
// allowed; Configured reports them and Discover short-circuits.
func NewGoogleSearcher(cfg GoogleConfig, logger *zap.Logger) *GoogleSearcher {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.ResultsPerQuery <= 0 {
		cfg.ResultsPerQuery = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	return &GoogleSearcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// Configured reports whether both search credentials are present.
func (s *GoogleSearcher) Configured() bool {
	return s.cfg.APIKey != "" && s.cfg.EngineID != ""
}

// Search issues one provider query and returns the raw result items.
// Quota/rate-limit responses map to lead.ErrQuotaExhausted.
func (s *GoogleSearcher) Search(ctx context.Context, query string) ([]lead.SearchItem, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search limiter: %w", err)
	}

	params := url.Values{}
	params.Set("key", s.cfg.APIKey)
	params.Set("cx", s.cfg.EngineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(s.cfg.ResultsPerQuery))
	params.Set("siteSearchFilter", siteSearchFilter)
	params.Set("excludeTerms", excludeTerms)
	params.Set("dateRestrict", dateRestrict)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &lead.ExternalServiceError{Provider: "google search", Detail: err.Error()}
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, &lead.ExternalServiceError{Provider: "google search", Detail: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		detail := strings.TrimSpace(string(body))
		if isQuotaResponse(resp.StatusCode, detail) {
			return nil, fmt.Errorf("status %d: %w", resp.StatusCode, lead.ErrQuotaExhausted)
		}
		return nil, &lead.ExternalServiceError{Provider: "google search", Status: resp.StatusCode, Detail: detail}
	}

	var parsed struct {
		Items []lead.SearchItem `json:"items"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &lead.ExternalServiceError{Provider: "google search", Detail: "malformed response: " + err.Error()}
	}
	s.logger.Debug("search results",
		zap.String("query", query),
		zap.Int("items", len(parsed.Items)),
	)
	return parsed.Items, nil
}

func isQuotaResponse(status int, body string) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	lower := strings.ToLower(body)
	return strings.Contains(lower, "quota") || strings.Contains(lower, "rate limit")
}
