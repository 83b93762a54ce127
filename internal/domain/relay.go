package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davidbz/affirmrelay/internal/observability"
)

// DefaultSystemPrompt frames every upstream call.
const DefaultSystemPrompt = `You are a warm, empathetic companion who generates personalized therapeutic affirmations. Your role is to validate the user's feelings and offer gentle, uplifting affirmations tailored to what they share.

STRICT RULES YOU MUST FOLLOW:
- NEVER provide medical advice, legal advice, or diagnose any condition.
- NEVER act as a therapist, counselor, or medical professional.
- NEVER provide instructions or guidance related to self-harm, suicide, or harming others.
- If a user expresses thoughts of self-harm, suicide, or harming others, respond ONLY with: "I hear you, and I'm glad you're reaching out. You deserve support from someone who can truly help. Please contact the 988 Suicide & Crisis Lifeline (call or text 988) or reach out to a trusted person in your life. You matter, and help is available."
- Keep responses to 2-4 sentences maximum.
- Be warm, specific, and personalized to what the user shared.
- Focus on validation, encouragement, and gentle reframing.
- Use "you" language to make affirmations feel personal.
- Do not use clinical or diagnostic language.
- Do not ask follow-up questions. Just provide the affirmation.`

// RelayConfig contains the process-wide upstream call settings.
type RelayConfig struct {
	Provider          string  `env:"UPSTREAM_PROVIDER"         envDefault:"openrouter"`
	SystemPrompt      string  `env:"RELAY_SYSTEM_PROMPT"`
	MaxTokens         int     `env:"RELAY_MAX_TOKENS"          envDefault:"0"`
	Temperature       float64 `env:"RELAY_TEMPERATURE"         envDefault:"0"`
	UpstreamTimeoutMS int     `env:"RELAY_UPSTREAM_TIMEOUT_MS" envDefault:"30000"`
	StreamTimeoutMS   int     `env:"RELAY_STREAM_TIMEOUT_MS"   envDefault:"120000"`
	Validation        ValidationConfig
}

const defaultUpstreamTimeout = 30 * time.Second

var errUpstreamTimeout = errors.New("upstream timeout exceeded")

// RelayService validates requests and opens normalized upstream streams.
type RelayService struct {
	provider        Provider
	validator       *Validator
	systemPrompt    string
	maxTokens       int
	temperature     float64
	upstreamTimeout time.Duration
	streamTimeout   time.Duration
}

// NewRelayService creates a relay bound to the configured provider (DI constructor).
func NewRelayService(registry ProviderRegistry, cfg *RelayConfig) (*RelayService, error) {
	if cfg == nil {
		return nil, errors.New("relay config cannot be nil")
	}

	provider, err := registry.Get(context.Background(), cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("upstream provider: %w", err)
	}

	prompt := cfg.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}

	upstreamTimeout := time.Duration(cfg.UpstreamTimeoutMS) * time.Millisecond
	if upstreamTimeout <= 0 {
		upstreamTimeout = defaultUpstreamTimeout
	}

	return &RelayService{
		provider:        provider,
		validator:       NewValidator(&cfg.Validation),
		systemPrompt:    prompt,
		maxTokens:       cfg.MaxTokens,
		temperature:     cfg.Temperature,
		upstreamTimeout: upstreamTimeout,
		streamTimeout:   time.Duration(cfg.StreamTimeoutMS) * time.Millisecond,
	}, nil
}

// ProviderName returns the name of the upstream provider in use.
func (s *RelayService) ProviderName() string {
	return s.provider.Name()
}

// Validate checks a raw request body.
func (s *RelayService) Validate(body []byte) (*GenerationRequest, error) {
	return s.validator.Validate(body)
}

// TooLarge returns the validation error for an oversized body.
func (s *RelayService) TooLarge() error {
	return s.validator.TooLarge()
}

// Session is an open upstream stream. Close must be called on every path.
type Session struct {
	Chunks <-chan StreamChunk
	cancel func()
}

// Close aborts the upstream call if it is still running.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Open issues the upstream call. The returned error is always a RelayError
// and is produced before any chunk exists; callers can still answer with JSON.
func (s *RelayService) Open(ctx context.Context, req *GenerationRequest) (*Session, error) {
	if req == nil {
		return nil, InternalError(errors.New("request cannot be nil"))
	}

	logger := observability.FromContext(ctx)

	streamCtx, cancelStream := ctx, context.CancelFunc(func() {})
	if s.streamTimeout > 0 {
		streamCtx, cancelStream = context.WithTimeout(ctx, s.streamTimeout)
	}

	upstreamCtx, cancel := context.WithCancelCause(streamCtx)
	release := func() {
		cancel(context.Canceled)
		cancelStream()
	}

	timer := time.AfterFunc(s.upstreamTimeout, func() { cancel(errUpstreamTimeout) })

	started := time.Now()
	chunks, err := s.provider.Stream(upstreamCtx, s.buildCompletion(req))
	stopped := timer.Stop()

	if err != nil {
		timedOut := errors.Is(context.Cause(upstreamCtx), errUpstreamTimeout)
		release()

		var relayErr *RelayError
		if timedOut {
			relayErr = TimeoutError(err)
		} else {
			relayErr = MapUpstreamError(err)
		}

		logger.Error("upstream call failed",
			observability.String("code", string(relayErr.Code)),
			observability.Int("status", relayErr.HTTPStatus),
			observability.Duration("elapsed", time.Since(started)),
			observability.Error(err),
		)
		return nil, relayErr
	}

	if !stopped {
		// Deadline hit between the response arriving and the timer stopping.
		release()
		drain(chunks)
		logger.Error("upstream call timed out", observability.Duration("elapsed", time.Since(started)))
		return nil, TimeoutError(errUpstreamTimeout)
	}

	logger.Info("upstream stream opened", observability.Duration("elapsed", time.Since(started)))

	return &Session{Chunks: chunks, cancel: release}, nil
}

func (s *RelayService) buildCompletion(req *GenerationRequest) *CompletionRequest {
	return &CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: s.systemPrompt},
			{Role: RoleUser, Content: req.Message},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	}
}

func drain(chunks <-chan StreamChunk) {
	go func() {
		for range chunks { //nolint:revive // draining
		}
	}()
}
