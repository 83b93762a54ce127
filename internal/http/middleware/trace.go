package middleware

import (
	"net/http"
	"regexp"

	"github.com/davidbz/affirmrelay/internal/observability"
)

const (
	requestIDHeader = "X-Request-Id"
	traceIDHeader   = "X-Trace-Id"
)

// Inbound IDs reach logs verbatim, so only plain tokens are accepted.
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// Trace attaches correlation IDs to the request context and echoes them as
// response headers. A well-formed inbound X-Request-Id is kept.
func Trace() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := observability.RequestInfo{
				TraceID:   observability.NewTraceID(),
				RequestID: r.Header.Get(requestIDHeader),
				Remote:    r.RemoteAddr,
			}
			if !requestIDPattern.MatchString(info.RequestID) {
				info.RequestID = observability.NewRequestID()
			}

			w.Header().Set(traceIDHeader, info.TraceID)
			w.Header().Set(requestIDHeader, info.RequestID)

			ctx := observability.WithRequestInfo(r.Context(), info)
			observability.FromContext(ctx).Debug("request started",
				observability.String("method", r.Method),
				observability.String("path", r.URL.Path),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
