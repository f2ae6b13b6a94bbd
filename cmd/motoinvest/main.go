package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"motoinvest/internal/amqp"
	"motoinvest/internal/backend"
	"motoinvest/internal/cli"
	apphttp "motoinvest/internal/http"
	"motoinvest/internal/log"
	"motoinvest/internal/media"
	"motoinvest/internal/mentor"
	"motoinvest/internal/services"
	"motoinvest/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	var st store.Store = result.Store
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, ledger events disabled", log.FieldError, err)
		} else {
			st = backend.WithEvents(st, amqpClient, logger)
			logger.Info("Ledger events enabled", "exchange", cfg.AMQPExchange)
		}
	}

	var mentorSvc mentor.Service = mentor.Unavailable{}
	if cfg.AnthropicAPIKey != "" {
		mentorSvc = mentor.NewClient(mentor.Config{
			APIKey:        cfg.AnthropicAPIKey,
			Model:         cfg.MentorModel,
			MaxTokens:     cfg.MentorMaxTokens,
			MaxToolRounds: cfg.MentorMaxToolRounds,
			Timeout:       cfg.MentorTimeout,
		}, logger)
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set, mentor chat disabled")
	}

	sessions := services.NewSessionManager(cfg.SessionCacheSize, cfg.SessionTTL, logger)
	sessions.Start(5 * time.Minute)

	app := services.NewApp(services.Options{
		Store:    st,
		Mentor:   mentorSvc,
		Sessions: sessions,
		Images:   media.NewPreparer(cfg.MediaMaxDimension),
		Logger:   logger,
	})

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		JWTSecret:          cfg.AuthJWTSecret,
		JWTIssuer:          cfg.AuthIssuer,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ContactURL:         cfg.AccessContactURL,
		Readiness:          result,
		AllowedOrigins:     cfg.AllowedOrigins,
	}, app, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		sessions.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if err := result.Close(); err != nil {
			logger.Warn("Backend close error", log.FieldError, err)
		}
	})

	logger.Info("Starting motoinvest server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
