// Package upstream holds the raw HTTP plumbing shared by the providers that
// speak to their APIs without an SDK.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/davidbz/affirmrelay/internal/domain"
)

// UserAgent identifies the relay to upstream providers.
const UserAgent = "affirmrelay/1.0"

// maxErrorBody caps how much of an error response is kept for logs.
const maxErrorBody = 4096

// NewHTTPClient returns a client suited to relaying event streams. There is
// no client-wide timeout: deadlines come from the request context.
func NewHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Compressed bodies would be buffered by the gzip reader.
	transport.DisableCompression = true

	return &http.Client{Transport: transport}
}

// Request describes one streaming POST.
type Request struct {
	Provider string
	URL      string
	Headers  http.Header
	Body     any
}

// Open executes the request and returns the response once the status is
// known. Non-success statuses are closed and returned as
// *domain.UpstreamStatusError; the caller owns the body on success.
func Open(ctx context.Context, client *http.Client, req Request) (*http.Response, error) {
	body, err := json.Marshal(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range req.Headers {
		httpReq.Header[k] = v
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		return nil, &domain.UpstreamStatusError{
			Provider:   req.Provider,
			StatusCode: resp.StatusCode,
			Body:       string(errBody),
		}
	}

	return resp, nil
}
