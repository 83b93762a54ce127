// Package client consumes the relay's event stream. It offers a pull
// iterator (Client.Open) and a callback wrapper (Client.StreamAffirmation).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/davidbz/affirmrelay/internal/observability"
	"github.com/davidbz/affirmrelay/internal/stream"
)

const maxErrorBody = 4096

// Config contains client settings.
type Config struct {
	URL string `env:"AFFIRM_API_URL" envDefault:"http://localhost:3001/api/generate-affirmation"`
}

var (
	// ErrConnection reports a transport failure, including a stream that
	// ended before its terminator.
	ErrConnection = errors.New("connection failed")

	// ErrNoBody reports a success response without a body.
	ErrNoBody = errors.New("no response body")

	errIncomplete = errors.New("stream ended without terminator")
)

const (
	connectionMessage = "Connection error. Please try again."
	noBodyMessage     = "No response received."
)

// ResponseError is a non-success answer from the relay.
type ResponseError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ResponseError) Error() string {
	return e.Message
}

// Client calls the relay endpoint.
type Client struct {
	url  string
	http *http.Client
}

// New creates a client. httpClient may be nil.
func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		url:  cfg.URL,
		http: httpClient,
	}
}

// Open posts message and returns the stream once the relay has answered.
// Non-success statuses are returned as *ResponseError.
func (c *Client) Open(ctx context.Context, message string) (*Stream, error) {
	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, newResponseError(resp.StatusCode, errBody)
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, ErrNoBody
	}

	return &Stream{
		ctx:  ctx,
		body: resp.Body,
		dec:  stream.NewDeltaDecoder(),
		buf:  make([]byte, readBufferSize),
	}, nil
}

// Callbacks receive the events of one StreamAffirmation call. Exactly one of
// OnDone or OnError is called, once.
type Callbacks struct {
	OnDelta func(text string)
	OnDone  func()
	OnError func(message string)
}

// StreamAffirmation requests an affirmation and reports it through cb.
func (c *Client) StreamAffirmation(ctx context.Context, message string, cb Callbacks) {
	logger := observability.FromContext(ctx)

	s, err := c.Open(ctx, message)
	if err != nil {
		logger.Debug("affirmation request failed", observability.Error(err))
		callError(cb, err)
		return
	}
	defer s.Close()

	for s.Next() {
		if cb.OnDelta != nil {
			cb.OnDelta(s.Current())
		}
	}

	if err := s.Err(); err != nil {
		logger.Debug("affirmation stream failed", observability.Error(err))
		callError(cb, err)
		return
	}

	if cb.OnDone != nil {
		cb.OnDone()
	}
}

func callError(cb Callbacks, err error) {
	if cb.OnError != nil {
		cb.OnError(UserMessage(err))
	}
}

// UserMessage renders err as short text fit for display.
func UserMessage(err error) string {
	var respErr *ResponseError
	switch {
	case errors.As(err, &respErr):
		return respErr.Message
	case errors.Is(err, ErrNoBody):
		return noBodyMessage
	default:
		return connectionMessage
	}
}

func newResponseError(status int, body []byte) *ResponseError {
	serverMessage := "Unable to connect to the service."
	code := ""
	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		if msg := parsed.Get("error").String(); msg != "" {
			serverMessage = msg
		}
		code = parsed.Get("code").String()
	}

	message := serverMessage
	switch {
	case status == http.StatusBadRequest:
		// The relay's validation text is already user-facing.
	case status == http.StatusTooManyRequests:
		message = "Too many requests. Please wait a moment and try again."
	case status == http.StatusBadGateway || status == http.StatusServiceUnavailable:
		message = "Service temporarily unavailable. Please try again in a moment."
	case status == http.StatusGatewayTimeout:
		message = "Request timed out. Please try again."
	case status >= http.StatusInternalServerError:
		message = "Server error. Please try again later."
	}

	return &ResponseError{
		StatusCode: status,
		Code:       code,
		Message:    message,
	}
}
