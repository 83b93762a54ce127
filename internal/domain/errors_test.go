package domain_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/affirmrelay/internal/domain"
)

func TestMapUpstreamStatus(t *testing.T) {
	tests := []struct {
		upstream int
		status   int
		code     domain.ErrorCode
	}{
		{upstream: http.StatusUnauthorized, status: http.StatusBadGateway, code: domain.CodeAuthError},
		{upstream: http.StatusForbidden, status: http.StatusBadGateway, code: domain.CodeAuthError},
		{upstream: http.StatusTooManyRequests, status: http.StatusTooManyRequests, code: domain.CodeRateLimited},
		{upstream: http.StatusPaymentRequired, status: http.StatusBadGateway, code: domain.CodeServiceUnavailable},
		{upstream: http.StatusInternalServerError, status: http.StatusBadGateway, code: domain.CodeUpstreamError},
		{upstream: http.StatusGatewayTimeout, status: http.StatusBadGateway, code: domain.CodeUpstreamError},
		{upstream: http.StatusBadRequest, status: http.StatusBadGateway, code: domain.CodeAPIError},
		{upstream: http.StatusNotFound, status: http.StatusBadGateway, code: domain.CodeAPIError},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.upstream), func(t *testing.T) {
			relayErr := domain.MapUpstreamStatus(tt.upstream, nil)

			require.Equal(t, tt.status, relayErr.HTTPStatus)
			require.Equal(t, tt.code, relayErr.Code)
		})
	}
}

func TestMapUpstreamError(t *testing.T) {
	t.Run("missing credentials is a config error", func(t *testing.T) {
		relayErr := domain.MapUpstreamError(fmt.Errorf("openai: %w", domain.ErrProviderNotConfigured))

		require.Equal(t, http.StatusInternalServerError, relayErr.HTTPStatus)
		require.Equal(t, domain.CodeConfigError, relayErr.Code)
	})

	t.Run("status errors keep their mapping", func(t *testing.T) {
		cause := &domain.UpstreamStatusError{Provider: "openrouter", StatusCode: 401, Body: "invalid key sk-123"}
		relayErr := domain.MapUpstreamError(fmt.Errorf("wrapped: %w", cause))

		require.Equal(t, domain.CodeAuthError, relayErr.Code)
		require.NotContains(t, relayErr.UserMessage, "sk-123")
		require.ErrorIs(t, relayErr, cause)
	})

	t.Run("deadline is a timeout", func(t *testing.T) {
		relayErr := domain.MapUpstreamError(fmt.Errorf("request failed: %w", context.DeadlineExceeded))

		require.Equal(t, http.StatusGatewayTimeout, relayErr.HTTPStatus)
		require.Equal(t, domain.CodeTimeout, relayErr.Code)
	})

	t.Run("anything else is a network error", func(t *testing.T) {
		relayErr := domain.MapUpstreamError(errors.New("dial tcp: lookup openrouter.ai: no such host"))

		require.Equal(t, http.StatusBadGateway, relayErr.HTTPStatus)
		require.Equal(t, domain.CodeNetworkError, relayErr.Code)
	})

	t.Run("relay errors pass through", func(t *testing.T) {
		original := domain.StreamError(nil)

		require.Same(t, original, domain.MapUpstreamError(original))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		require.Nil(t, domain.MapUpstreamError(nil))
	})
}

func TestAsRelayError(t *testing.T) {
	relayErr := domain.AsRelayError(errors.New("boom"))

	require.Equal(t, http.StatusInternalServerError, relayErr.HTTPStatus)
	require.Equal(t, domain.CodeInternalError, relayErr.Code)
	require.NotContains(t, relayErr.UserMessage, "boom")
	require.Contains(t, relayErr.Error(), "boom")
}
