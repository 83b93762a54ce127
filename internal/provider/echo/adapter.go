// Package echo provides an offline provider that streams the user's own words
// back as an OpenAI-style event stream. It makes no external API calls and is
// meant for local development and tests.
package echo

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/davidbz/affirmrelay/internal/domain"
	"github.com/davidbz/affirmrelay/internal/observability"
	"github.com/davidbz/affirmrelay/internal/provider/upstream"
	"github.com/davidbz/affirmrelay/internal/stream"
)

const providerName = "echo"

// Config contains echo provider configuration.
type Config struct {
	ChunkDelayMS int `env:"ECHO_CHUNK_DELAY_MS" envDefault:"10"`
}

// Provider implements the domain.Provider interface for echo testing.
type Provider struct {
	chunkDelay time.Duration
	metrics    *observability.Metrics
}

// NewProvider creates a new echo provider. metrics may be nil.
func NewProvider(config Config, metrics *observability.Metrics) *Provider {
	return &Provider{
		chunkDelay: time.Duration(config.ChunkDelayMS) * time.Millisecond,
		metrics:    metrics,
	}
}

// Stream writes a synthetic event stream and decodes it like a real upstream.
func (p *Provider) Stream(ctx context.Context, req *domain.CompletionRequest) (<-chan domain.StreamChunk, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("streaming echo request")

	pr, pw := io.Pipe()
	go p.write(ctx, pw, strings.Fields(buildEchoContent(req.Messages)))

	chunks := make(chan domain.StreamChunk)
	go stream.Pump(ctx, pr, stream.NewPassthrough(), chunks,
		upstream.MalformedReporter(ctx, providerName, p.metrics))

	return chunks, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return providerName
}

// write emits one event per word, then the terminator. It stops when the
// reader side is closed or ctx is done.
func (p *Provider) write(ctx context.Context, pw *io.PipeWriter, words []string) {
	for i, word := range words {
		delta := word
		if i < len(words)-1 {
			delta += " "
		}

		if err := stream.WriteEvent(pw, stream.EncodeDelta(delta)); err != nil {
			return
		}

		if p.chunkDelay > 0 {
			select {
			case <-ctx.Done():
				pw.CloseWithError(ctx.Err())
				return
			case <-time.After(p.chunkDelay):
			}
		}
	}

	_ = stream.WriteDone(pw)
	_ = pw.Close()
}

// buildEchoContent collects what the user said; system messages are skipped.
func buildEchoContent(messages []domain.Message) string {
	var parts []string
	for _, msg := range messages {
		if msg.Role == domain.RoleSystem {
			continue
		}
		parts = append(parts, msg.Content)
	}
	return strings.Join(parts, " ")
}
