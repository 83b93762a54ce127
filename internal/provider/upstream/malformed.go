package upstream

import (
	"context"

	"github.com/davidbz/affirmrelay/internal/observability"
	"github.com/davidbz/affirmrelay/internal/stream"
)

const maxLoggedLine = 256

// MalformedReporter logs and counts dropped stream lines. metrics may be nil.
func MalformedReporter(ctx context.Context, provider string, metrics *observability.Metrics) stream.MalformedFunc {
	logger := observability.FromContext(ctx)

	return func(line []byte) {
		if len(line) > maxLoggedLine {
			line = line[:maxLoggedLine]
		}
		logger.Warn("skipping malformed stream line",
			observability.String("line", string(line)),
		)
		if metrics != nil {
			metrics.IncMalformed(provider)
		}
	}
}
