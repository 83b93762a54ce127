// Package openai provides an adapter for the OpenAI API using the official SDK.
// It implements the domain.Provider interface and converts SDK stream chunks
// into the relay's delta events.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/davidbz/affirmrelay/internal/domain"
	"github.com/davidbz/affirmrelay/internal/observability"
	"github.com/davidbz/affirmrelay/internal/provider/upstream"
	"github.com/davidbz/affirmrelay/internal/stream"
)

const providerName = "openai"

// Provider implements the domain.Provider interface for OpenAI.
type Provider struct {
	client  openai.Client
	config  Config
	metrics *observability.Metrics
}

// NewProvider creates a new OpenAI provider. A missing API key is reported
// per request so the relay can answer with a configuration error.
func NewProvider(config Config, metrics *observability.Metrics) *Provider {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithHTTPClient(upstream.NewHTTPClient()),
		option.WithMaxRetries(0),
		option.WithHeader("User-Agent", upstream.UserAgent),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Provider{
		client:  openai.NewClient(opts...),
		config:  config,
		metrics: metrics,
	}
}

// Stream sends a completion request and returns a stream of chunks.
// The call returns once the upstream has answered with its status.
func (p *Provider) Stream(ctx context.Context, req *domain.CompletionRequest) (<-chan domain.StreamChunk, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	if p.config.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", providerName, domain.ErrProviderNotConfigured)
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling OpenAI streaming API", observability.String("model", p.config.Model))

	sdkStream := p.client.Chat.Completions.NewStreaming(ctx, p.toSDKParams(req))
	if err := sdkStream.Err(); err != nil {
		_ = sdkStream.Close()
		return nil, toDomainError(err)
	}

	chunks := make(chan domain.StreamChunk)

	go func() {
		defer close(chunks)
		defer sdkStream.Close()
		defer logger.Debug("OpenAI stream completed")

		for sdkStream.Next() {
			chunk := sdkStream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}

			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}

			if !send(ctx, chunks, domain.StreamChunk{Delta: delta, Payload: stream.EncodeDelta(delta)}) {
				return
			}
		}

		if err := sdkStream.Err(); err != nil {
			send(ctx, chunks, domain.StreamChunk{Error: fmt.Errorf("OpenAI stream error: %w", err)})
			return
		}

		send(ctx, chunks, domain.StreamChunk{Done: true})
	}()

	return chunks, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return providerName
}

// toSDKParams converts domain request to SDK ChatCompletionNewParams
func (p *Provider) toSDKParams(req *domain.CompletionRequest) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, len(req.Messages))
	for i, msg := range req.Messages {
		switch msg.Role {
		case domain.RoleSystem:
			messages[i] = openai.SystemMessage(msg.Content)
		default:
			messages[i] = openai.UserMessage(msg.Content)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.config.Model),
		Messages: messages,
	}

	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	return params
}

// toDomainError keeps the upstream status of SDK API errors.
func toDomainError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &domain.UpstreamStatusError{
			Provider:   providerName,
			StatusCode: apiErr.StatusCode,
			Body:       apiErr.Message,
		}
	}

	return fmt.Errorf("OpenAI API call failed: %w", err)
}

func send(ctx context.Context, out chan<- domain.StreamChunk, chunk domain.StreamChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
