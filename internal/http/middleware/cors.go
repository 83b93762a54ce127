package middleware

import (
	"context"
	"net/http"
	"slices"

	"github.com/rs/cors"

	"github.com/davidbz/affirmrelay/internal/config"
	"github.com/davidbz/affirmrelay/internal/observability"
)

// CORS answers cross-origin preflights before they reach the relay and
// exposes the correlation headers to browser clients. With no configured
// origins it is a no-op.
func CORS(cfg *config.CORSConfig) Middleware {
	if cfg == nil || len(cfg.AllowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return cors.New(corsOptions(cfg)).Handler
}

func corsOptions(cfg *config.CORSConfig) cors.Options {
	opts := cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   []string{requestIDHeader, traceIDHeader},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	// rs/cors reflects the caller's origin when credentials meet a wildcard.
	if opts.AllowCredentials && slices.Contains(opts.AllowedOrigins, "*") {
		observability.FromContext(context.Background()).Warn("ignoring CORS_ALLOW_CREDENTIALS with a wildcard origin")
		opts.AllowCredentials = false
	}

	return opts
}
