package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/davidbz/affirmrelay/internal/config"
	"github.com/davidbz/affirmrelay/internal/domain"
	"github.com/davidbz/affirmrelay/internal/observability"
	"github.com/davidbz/affirmrelay/internal/stream"
)

const defaultMaxBodyBytes = 16 << 10

// Handler handles HTTP requests.
type Handler struct {
	relay        *domain.RelayService
	metrics      *observability.Metrics
	maxBodyBytes int64
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(relay *domain.RelayService, metrics *observability.Metrics, cfg *config.ServerConfig) *Handler {
	maxBody := int64(defaultMaxBodyBytes)
	if cfg != nil && cfg.MaxBodyBytes > 0 {
		maxBody = cfg.MaxBodyBytes
	}

	return &Handler{
		relay:        relay,
		metrics:      metrics,
		maxBodyBytes: maxBody,
	}
}

type errorResponse struct {
	Error string           `json:"error"`
	Code  domain.ErrorCode `json:"code"`
}

// HandleGenerate validates the message, opens the upstream stream and relays
// it as server-sent events. Nothing is written before the upstream has
// answered; failures after that abort the connection without a terminator.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	provider := h.relay.ProviderName()
	ctx := observability.WithProvider(r.Context(), provider)
	logger := observability.FromContext(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn("request body too large", observability.Int("limit", int(tooLarge.Limit)))
			h.fail(ctx, w, h.relay.TooLarge(), started)
			return
		}
		h.fail(ctx, w, domain.InternalError(fmt.Errorf("read request body: %w", err)), started)
		return
	}

	req, err := h.relay.Validate(body)
	if err != nil {
		logger.Warn("request rejected", observability.Error(err))
		h.fail(ctx, w, err, started)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.fail(ctx, w, domain.StreamError(errors.New("response writer cannot flush")), started)
		return
	}

	logger.Info("generation request accepted", observability.Int("message_length", len(req.Message)))

	session, err := h.relay.Open(ctx, req)
	if err != nil {
		h.fail(ctx, w, err, started)
		return
	}
	defer session.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	deltas := 0
	defer func() {
		if h.metrics != nil {
			h.metrics.AddDeltas(provider, deltas)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("client disconnected", observability.Int("deltas", deltas))
			h.observe(provider, observability.OutcomeAborted, started)
			return

		case chunk, open := <-session.Chunks:
			if !open {
				h.abort(ctx, provider, errors.New("upstream stream closed without terminator"), deltas, started)
			}

			if chunk.Error != nil {
				h.abort(ctx, provider, chunk.Error, deltas, started)
			}

			if chunk.Done {
				if err := stream.WriteDone(w); err != nil {
					logger.Warn("failed to write terminator", observability.Error(err))
					h.observe(provider, observability.OutcomeAborted, started)
					return
				}
				flusher.Flush()

				logger.Info("stream completed",
					observability.Int("deltas", deltas),
					observability.Duration("elapsed", time.Since(started)),
				)
				h.observe(provider, observability.OutcomeCompleted, started)
				return
			}

			if err := stream.WriteEvent(w, chunk.Payload); err != nil {
				logger.Warn("failed to write event", observability.Error(err))
				h.observe(provider, observability.OutcomeAborted, started)
				return
			}
			flusher.Flush()
			deltas++
		}
	}
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.NewHealthStatus(time.Now()))
}

// fail answers a pre-stream failure with the JSON error contract.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error, started time.Time) {
	relayErr := domain.AsRelayError(err)

	if relayErr.HTTPStatus >= http.StatusInternalServerError {
		observability.FromContext(ctx).Error("request failed",
			observability.String("code", string(relayErr.Code)),
			observability.Error(err),
		)
	}

	h.observe(observability.RequestInfoFrom(ctx).Provider, string(relayErr.Code), started)
	writeJSON(w, relayErr.HTTPStatus, errorResponse{
		Error: relayErr.UserMessage,
		Code:  relayErr.Code,
	})
}

// abort ends a committed stream. The server closes the connection without
// the terminator so the client sees an incomplete stream.
func (h *Handler) abort(ctx context.Context, provider string, err error, deltas int, started time.Time) {
	observability.FromContext(ctx).Error("stream failed after headers were sent",
		observability.Int("deltas", deltas),
		observability.Error(err),
	)
	h.observe(provider, observability.OutcomeAborted, started)
	panic(http.ErrAbortHandler)
}

func (h *Handler) observe(provider, outcome string, started time.Time) {
	if h.metrics != nil {
		h.metrics.ObserveRequest(provider, outcome, time.Since(started))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Status is already written, an encode failure can only be dropped.
	_ = json.NewEncoder(w).Encode(v)
}
