// Package gemini provides an adapter for the Google Generative Language API.
// Gemini has no system role in this relay's usage, so the conversation is
// merged into one prompt, and its JSON chunks are re-framed into deltas.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/davidbz/affirmrelay/internal/domain"
	"github.com/davidbz/affirmrelay/internal/observability"
	"github.com/davidbz/affirmrelay/internal/provider/upstream"
	"github.com/davidbz/affirmrelay/internal/stream"
)

const providerName = "gemini"

// Provider implements the domain.Provider interface for Gemini.
type Provider struct {
	config  Config
	client  *http.Client
	metrics *observability.Metrics
}

// NewProvider creates a Gemini provider. metrics may be nil.
func NewProvider(config Config, metrics *observability.Metrics) *Provider {
	return &Provider{
		config:  config,
		client:  upstream.NewHTTPClient(),
		metrics: metrics,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

// Stream opens a streamGenerateContent call.
func (p *Provider) Stream(ctx context.Context, req *domain.CompletionRequest) (<-chan domain.StreamChunk, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if p.config.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", providerName, domain.ErrProviderNotConfigured)
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling Gemini streaming API", observability.String("model", p.config.Model))

	headers := http.Header{}
	headers.Set("x-goog-api-key", p.config.APIKey)

	//nolint:bodyclose // Response body is closed by stream.Pump
	resp, err := upstream.Open(ctx, p.client, upstream.Request{
		Provider: providerName,
		URL:      p.endpoint(),
		Headers:  headers,
		Body:     toGenerateRequest(req),
	})
	if err != nil {
		return nil, err
	}

	chunks := make(chan domain.StreamChunk)
	go stream.Pump(ctx, resp.Body, stream.NewReframer(candidateText), chunks,
		upstream.MalformedReporter(ctx, providerName, p.metrics))

	return chunks, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return providerName
}

func (p *Provider) endpoint() string {
	return fmt.Sprintf("%s/%s/models/%s:streamGenerateContent?alt=sse",
		strings.TrimRight(p.config.BaseURL, "/"),
		strings.Trim(p.config.APIVersion, "/"),
		url.PathEscape(p.config.Model),
	)
}

func toGenerateRequest(req *domain.CompletionRequest) generateRequest {
	out := generateRequest{
		Contents: []content{{
			Role:  domain.RoleUser,
			Parts: []part{{Text: req.MergedPrompt()}},
		}},
	}

	if req.MaxTokens > 0 || req.Temperature > 0 {
		out.GenerationConfig = &generationConfig{
			MaxOutputTokens: req.MaxTokens,
			Temperature:     req.Temperature,
		}
	}

	return out
}

// candidateText joins every text part of the first candidate. A document may
// also be an array of chunks when the stream is not SSE-framed.
func candidateText(doc gjson.Result) string {
	if doc.IsArray() {
		var sb strings.Builder
		for _, item := range doc.Array() {
			sb.WriteString(candidateText(item))
		}
		return sb.String()
	}

	var sb strings.Builder
	for _, text := range doc.Get("candidates.0.content.parts.#.text").Array() {
		sb.WriteString(text.String())
	}
	return sb.String()
}
