package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/affirmrelay/internal/config"
	"github.com/davidbz/affirmrelay/internal/domain"
	"github.com/davidbz/affirmrelay/internal/http"
	"github.com/davidbz/affirmrelay/internal/http/middleware"
	"github.com/davidbz/affirmrelay/internal/observability"
	"github.com/davidbz/affirmrelay/internal/provider/echo"
	"github.com/davidbz/affirmrelay/internal/provider/gateway"
	"github.com/davidbz/affirmrelay/internal/provider/gemini"
	"github.com/davidbz/affirmrelay/internal/provider/openai"
	"github.com/davidbz/affirmrelay/internal/provider/registry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *http.Server, logger *zap.Logger, relay *domain.RelayService) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		logger.Info("relay ready", zap.String("provider", relay.ProviderName()))

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})
	if err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}
	if err := container.Provide(observability.NewMetrics); err != nil {
		log.Fatalf("Failed to provide metrics: %v", err)
	}

	// Provider Registry
	if err := container.Provide(func() domain.ProviderRegistry {
		return registry.NewRegistry()
	}); err != nil {
		log.Fatalf("Failed to provide registry: %v", err)
	}

	// Every provider is registered; one without credentials answers with a
	// configuration error when selected.
	if err := container.Invoke(registerProviders); err != nil {
		log.Fatalf("Failed to register providers: %v", err)
	}

	// Domain Services
	if err := container.Provide(domain.NewRelayService); err != nil {
		log.Fatalf("Failed to provide relay service: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}

type providerConfigs struct {
	dig.In

	OpenRouter *gateway.OpenRouterConfig
	Gateway    *gateway.ProxyConfig
	OpenAI     *openai.Config
	Gemini     *gemini.Config
	Echo       *echo.Config
}

func registerProviders(
	reg domain.ProviderRegistry,
	cfg providerConfigs,
	metrics *observability.Metrics,
	logger *zap.Logger,
) error {
	ctx := context.Background()

	providers := []domain.Provider{
		gateway.NewProvider(cfg.OpenRouter.Gateway(), metrics),
		gateway.NewProvider(cfg.Gateway.Gateway(), metrics),
		gemini.NewProvider(*cfg.Gemini, metrics),
		openai.NewProvider(*cfg.OpenAI, metrics),
		echo.NewProvider(*cfg.Echo, metrics),
	}

	var errs []error
	for _, provider := range providers {
		if err := reg.Register(ctx, provider); err != nil {
			errs = append(errs, fmt.Errorf("failed to register %s provider: %w", provider.Name(), err))
		}
	}

	names, _ := reg.List(ctx)
	logger.Debug("providers registered", zap.Strings("providers", names))

	return errors.Join(errs...)
}
