package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/affirmrelay/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("should load config with defaults", func(t *testing.T) {
		// Clear environment
		os.Clearenv()

		cfg, err := config.Load()
		require.NoError(t, err)
		require.NotNil(t, cfg)

		require.Equal(t, 3001, cfg.Server.Port)
		require.Equal(t, 30, cfg.Server.ReadTimeout)
		require.Equal(t, 0, cfg.Server.WriteTimeout)
		require.Equal(t, int64(16384), cfg.Server.MaxBodyBytes)
		require.Equal(t, []string{"GET", "POST", "OPTIONS"}, cfg.CORS.AllowedMethods)
		require.Equal(t, "info", cfg.Log.Level)

		require.Equal(t, "openrouter", cfg.Relay.Provider)
		require.Equal(t, 30000, cfg.Relay.UpstreamTimeoutMS)
		require.Equal(t, 120000, cfg.Relay.StreamTimeoutMS)
		require.Equal(t, 3, cfg.Relay.Validation.MinLength)
		require.Equal(t, 1000, cfg.Relay.Validation.MaxLength)
		require.Empty(t, cfg.Relay.SystemPrompt)

		require.Empty(t, cfg.OpenRouter.APIKey)
		require.Equal(t, "https://openrouter.ai/api/v1", cfg.OpenRouter.BaseURL)
		require.Equal(t, "meta-llama/llama-3.2-3b-instruct:free", cfg.OpenRouter.Model)
		require.Equal(t, "https://ai.gateway.lovable.dev/v1", cfg.Gateway.BaseURL)
		require.Equal(t, "https://api.openai.com/v1", cfg.OpenAI.BaseURL)
		require.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
		require.Equal(t, "v1", cfg.Gemini.APIVersion)
		require.Equal(t, 10, cfg.Echo.ChunkDelayMS)
	})

	t.Run("should load config from environment variables", func(t *testing.T) {
		// Set environment variables using t.Setenv for automatic cleanup
		t.Setenv("SERVER_PORT", "9000")
		t.Setenv("SERVER_WRITE_TIMEOUT", "60")
		t.Setenv("UPSTREAM_PROVIDER", "gemini")
		t.Setenv("MESSAGE_MAX_LENGTH", "500")
		t.Setenv("RELAY_UPSTREAM_TIMEOUT_MS", "1500")
		t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
		t.Setenv("GEMINI_API_KEY", "gm-test")
		t.Setenv("GEMINI_MODEL", "gemini-2.0-flash")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

		cfg, err := config.Load()
		require.NoError(t, err)

		require.Equal(t, 9000, cfg.Server.Port)
		require.Equal(t, 60, cfg.Server.WriteTimeout)
		require.Equal(t, "gemini", cfg.Relay.Provider)
		require.Equal(t, 500, cfg.Relay.Validation.MaxLength)
		require.Equal(t, 1500, cfg.Relay.UpstreamTimeoutMS)
		require.Equal(t, "sk-or-test", cfg.OpenRouter.APIKey)
		require.Equal(t, "gm-test", cfg.Gemini.APIKey)
		require.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
		require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	})

	t.Run("should fail on malformed values", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "not-a-port")

		cfg, err := config.Load()
		require.Error(t, err)
		require.Nil(t, cfg)
	})
}

func TestParseDependenciesConfig(t *testing.T) {
	os.Clearenv()

	cfg, err := config.Load()
	require.NoError(t, err)

	deps := config.ParseDependenciesConfig(cfg)

	require.Same(t, &cfg.Server, deps.Server)
	require.Same(t, &cfg.Relay, deps.Relay)
	require.Same(t, &cfg.Gemini, deps.Gemini)
}
