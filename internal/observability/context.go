package observability

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type requestInfoKey struct{}

// RequestInfo is the per-request correlation data attached to log lines.
type RequestInfo struct {
	TraceID   string
	RequestID string
	Provider  string
	Remote    string
}

// WithRequestInfo stores info in ctx, replacing any previous value.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom returns the info stored in ctx, or the zero value.
func RequestInfoFrom(ctx context.Context) RequestInfo {
	if info, ok := ctx.Value(requestInfoKey{}).(RequestInfo); ok {
		return info
	}
	return RequestInfo{}
}

// WithProvider records the upstream provider serving the request.
func WithProvider(ctx context.Context, provider string) context.Context {
	info := RequestInfoFrom(ctx)
	info.Provider = provider
	return WithRequestInfo(ctx, info)
}

// NewTraceID returns a W3C-compatible trace ID (32 lowercase hex chars).
func NewTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewRequestID returns a UUID request identifier.
func NewRequestID() string {
	return uuid.NewString()
}
