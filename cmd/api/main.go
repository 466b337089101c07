package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/domain"
	"server/internal/generate"
	"server/internal/http/handlers"
	httpapi "server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/openai"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The batch-job registry is optional; the service is fully functional
	// without a database.
	var registry domain.BatchJobRegistry
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		registry = repo.NewBatchJobRepository(pool)
	}

	backend := openai.NewClient(openai.Options{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.ImageModel,
		Timeout: cfg.GenTimeout,
	})

	client := generate.NewClient(backend, logger, generate.ClientOptions{
		MaxAttempts: cfg.GenMaxAttempts,
		BackoffUnit: cfg.GenBackoff,
	})
	fast := generate.NewFastOrchestrator(client, logger, cfg.StylePrefix, cfg.FastParallel)
	batch := generate.NewBatchOrchestrator(backend, registry, logger, cfg.StylePrefix)
	status := generate.NewStatusResolver(backend, logger, cfg.DefaultAspect)

	app := handlers.NewApp(cfg, logger, fast, batch, status, registry)
	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("model", backend.Model()).Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
