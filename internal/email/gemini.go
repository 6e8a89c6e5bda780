package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/juanroddotdev/LeadForge/internal/lead"
)

const (
	defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel    = "gemini-2.0-flash"
	defaultGeminiTimeout  = 30 * time.Second
)

// GeminiConfig configures the generation client.
type GeminiConfig struct {
	APIKey   string
	Endpoint string
	Model    string
	Timeout  time.Duration
}

// GeminiClient implements lead.Generator against the Gemini generateContent
// REST API.
type GeminiClient struct {
	cfg        GeminiConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGeminiClient builds a client from config. A missing API key is allowed
// at construction; Generate fails explicitly without making a network call.
func NewGeminiClient(cfg GeminiConfig, logger *zap.Logger) *GeminiClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultGeminiEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGeminiTimeout
	}
	return &GeminiClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends the prompt and returns the first candidate's text.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", &lead.ConfigurationError{Message: "GEMINI_API_KEY not set in environment."}
	}

	payload, err := json.Marshal(generateRequest{
		Contents: []generateContent{{Parts: []generatePart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode generation request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.cfg.Endpoint, c.cfg.Model, url.QueryEscape(c.cfg.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &lead.ExternalServiceError{Provider: "gemini", Detail: err.Error()}
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &lead.ExternalServiceError{Provider: "gemini", Detail: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &lead.GenerationError{Status: resp.StatusCode, Detail: strings.TrimSpace(string(body))}
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &lead.GenerationError{Detail: "malformed generation response: " + err.Error()}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", &lead.GenerationError{Detail: "generation response missing candidates"}
	}

	text := parsed.Candidates[0].Content.Parts[0].Text
	c.logger.Debug("email generated", zap.Int("chars", len(text)))
	return text, nil
}
