package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/affirmrelay/internal/domain"
	"github.com/davidbz/affirmrelay/internal/observability"
	"github.com/davidbz/affirmrelay/internal/provider/echo"
	"github.com/davidbz/affirmrelay/internal/provider/gateway"
	"github.com/davidbz/affirmrelay/internal/provider/gemini"
	"github.com/davidbz/affirmrelay/internal/provider/openai"
)

// Config represents the relay configuration.
type Config struct {
	Server     ServerConfig
	CORS       CORSConfig
	Log        observability.LogConfig
	Relay      domain.RelayConfig
	OpenRouter gateway.OpenRouterConfig
	Gateway    gateway.ProxyConfig
	OpenAI     openai.Config
	Gemini     gemini.Config
	Echo       echo.Config
}

// ServerConfig contains HTTP server settings.
// WriteTimeout is 0 by default: a write deadline would cut long streams.
type ServerConfig struct {
	Port         int   `env:"SERVER_PORT"           envDefault:"3001"`
	ReadTimeout  int   `env:"SERVER_READ_TIMEOUT"   envDefault:"30"`
	WriteTimeout int   `env:"SERVER_WRITE_TIMEOUT"  envDefault:"0"`
	MaxBodyBytes int64 `env:"SERVER_MAX_BODY_BYTES" envDefault:"16384"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"false"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out

	Server     *ServerConfig
	CORS       *CORSConfig
	Log        *observability.LogConfig
	Relay      *domain.RelayConfig
	OpenRouter *gateway.OpenRouterConfig
	Gateway    *gateway.ProxyConfig
	OpenAI     *openai.Config
	Gemini     *gemini.Config
	Echo       *echo.Config
}

// Load loads environment files and parses configuration.
func Load() (*Config, error) {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		Server:     &cfg.Server,
		CORS:       &cfg.CORS,
		Log:        &cfg.Log,
		Relay:      &cfg.Relay,
		OpenRouter: &cfg.OpenRouter,
		Gateway:    &cfg.Gateway,
		OpenAI:     &cfg.OpenAI,
		Gemini:     &cfg.Gemini,
		Echo:       &cfg.Echo,
	}
}
