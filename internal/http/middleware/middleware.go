// Package middleware holds the HTTP middleware applied to every route.
package middleware

import (
	"net/http"

	"github.com/davidbz/affirmrelay/internal/config"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares; the first one is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// BuildMiddlewareChain returns the server middleware chain (DI constructor).
func BuildMiddlewareChain(cors *config.CORSConfig) Middleware {
	return Chain(
		CORS(cors),
		Trace(),
	)
}
