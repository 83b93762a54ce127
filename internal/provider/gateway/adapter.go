// Package gateway provides an adapter for OpenAI-compatible chat gateways
// (OpenRouter and proxied AI gateways). Their event streams already match the
// relay's client schema, so payloads are passed through unchanged.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/davidbz/affirmrelay/internal/domain"
	"github.com/davidbz/affirmrelay/internal/observability"
	"github.com/davidbz/affirmrelay/internal/provider/upstream"
	"github.com/davidbz/affirmrelay/internal/stream"
)

// Provider implements the domain.Provider interface for chat gateways.
type Provider struct {
	config  Config
	client  *http.Client
	metrics *observability.Metrics
}

// NewProvider creates a gateway provider. metrics may be nil.
func NewProvider(config Config, metrics *observability.Metrics) *Provider {
	return &Provider{
		config:  config,
		client:  upstream.NewHTTPClient(),
		metrics: metrics,
	}
}

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []domain.Message `json:"messages"`
	Stream      bool             `json:"stream"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Temperature float64          `json:"temperature,omitempty"`
}

// Stream opens a streaming chat completion.
func (p *Provider) Stream(ctx context.Context, req *domain.CompletionRequest) (<-chan domain.StreamChunk, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if p.config.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", p.config.Name, domain.ErrProviderNotConfigured)
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling gateway streaming API", observability.String("model", p.config.Model))

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+p.config.APIKey)
	if p.config.Referer != "" {
		headers.Set("HTTP-Referer", p.config.Referer)
	}
	if p.config.Title != "" {
		headers.Set("X-Title", p.config.Title)
	}

	//nolint:bodyclose // Response body is closed by stream.Pump
	resp, err := upstream.Open(ctx, p.client, upstream.Request{
		Provider: p.config.Name,
		URL:      strings.TrimRight(p.config.BaseURL, "/") + "/chat/completions",
		Headers:  headers,
		Body: chatRequest{
			Model:       p.config.Model,
			Messages:    req.Messages,
			Stream:      true,
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
		},
	})
	if err != nil {
		return nil, err
	}

	chunks := make(chan domain.StreamChunk)
	go stream.Pump(ctx, resp.Body, stream.NewPassthrough(), chunks,
		upstream.MalformedReporter(ctx, p.config.Name, p.metrics))

	return chunks, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.config.Name
}
