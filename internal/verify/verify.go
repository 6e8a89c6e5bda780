// Package verify confirms that a discovered website candidate actually
// serves a page to a browser-like client.
package verify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

const defaultTimeout = 5 * time.Second

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// browserHeaders mimic a regular browser session. Accept-Encoding is left to
// the transport so response bodies arrive decompressed for the captcha scan.
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"DNT":                       "1",
	"Upgrade-Insecure-Requests": "1",
}

// Config controls verification behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Checker implements lead.Verifier with a Colly collector.
type Checker struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds a Checker.
func New(cfg Config, logger *zap.Logger) *Checker {
	if cfg.UserAgent == "" {
		cfg.UserAgent = browserUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	// Clones share the visited-URL store; every check must issue a fresh
	// request, so the same URL stays verifiable across calls.
	c.AllowURLRevisit = true
	// Deliver 4xx/5xx responses to OnResponse so their bodies can be
	// inspected instead of surfacing as collector errors.
	c.ParseHTTPErrorResponse = true

	return &Checker{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger,
	}
}

// Verify reports whether the URL serves a page that does not obviously block
// automated access. A URL without a scheme is tried as https first, then
// plain http.
func (c *Checker) Verify(ctx context.Context, rawURL string) bool {
	for _, candidate := range candidates(rawURL) {
		ok, err := c.check(ctx, candidate)
		if err != nil {
			c.logger.Debug("verification attempt failed",
				zap.String("url", candidate),
				zap.Error(err),
			)
			continue
		}
		if ok {
			c.logger.Info("website verified", zap.String("url", candidate))
			return true
		}
	}
	return false
}

func candidates(rawURL string) []string {
	if strings.HasPrefix(rawURL, "http") {
		return []string{rawURL}
	}
	return []string{"https://" + rawURL, "http://" + rawURL}
}

func (c *Checker) check(ctx context.Context, url string) (bool, error) {
	collector := c.baseCollector.Clone()
	collector.UserAgent = c.cfg.UserAgent
	collector.SetRequestTimeout(c.cfg.Timeout)

	var (
		status   int
		body     []byte
		fetchErr error
	)
	collector.OnRequest(func(r *colly.Request) {
		for key, value := range browserHeaders {
			r.Headers.Set(key, value)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return false, fmt.Errorf("verification canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return false, fmt.Errorf("visit failed: %w", err)
		}
		if fetchErr != nil {
			return false, fmt.Errorf("request failed: %w", fetchErr)
		}
	}

	if status == http.StatusForbidden {
		c.logger.Warn("website rejects automated access", zap.String("url", url))
		return false, nil
	}
	if bytes.Contains(bytes.ToLower(body), []byte("captcha")) {
		c.logger.Warn("website is showing a captcha", zap.String("url", url))
		return false, nil
	}
	return status == http.StatusOK, nil
}
