package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AE-MS/AE-SearchME/internal/api"
	"github.com/AE-MS/AE-SearchME/internal/config"
	"github.com/AE-MS/AE-SearchME/internal/dialog"
	"github.com/AE-MS/AE-SearchME/internal/metrics"
	"github.com/AE-MS/AE-SearchME/internal/registry"
	"github.com/AE-MS/AE-SearchME/internal/search"
	"github.com/AE-MS/AE-SearchME/internal/teams"
	"github.com/AE-MS/AE-SearchME/internal/tracing"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// components holds the wired service.
type components struct {
	search     *search.Handler
	dispatcher *dialog.Dispatcher
	bot        *teams.Bot
}

// buildComponents wires the registry client, search handler, dispatcher and
// bot from configuration. m may be nil.
func buildComponents(cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) (*components, error) {
	client := registry.NewClient(cfg.Registry.BaseURL, cfg.Registry.Timeout.Duration(),
		registry.WithMetrics(m),
		registry.WithLogger(logger),
	)

	sh := search.NewHandler(client, search.Config{
		ResultSize:  cfg.Registry.ResultSize,
		PageBaseURL: cfg.Dialogs.PageBaseURL,
	}, search.WithMetrics(m), search.WithLogger(logger))

	dialogCfg, err := dialog.ConfigFrom(cfg.Dialogs)
	if err != nil {
		return nil, fmt.Errorf("dialogs: %w", err)
	}
	dd := dialog.NewDispatcher(dialogCfg, dialog.WithMetrics(m), dialog.WithLogger(logger))

	bot := teams.NewBot(sh, dd, teams.Config{
		AppID:       cfg.Bot.AppID,
		RequireAuth: cfg.Bot.RequireAuth,
		RateLimit:   cfg.Bot.RateLimit.Requests,
		RateWindow:  cfg.Bot.RateLimit.Window.Duration(),
	}, teams.WithMetrics(m), teams.WithLogger(logger))

	return &components{search: sh, dispatcher: dd, bot: bot}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration %s: %w", configPath, err)
	}

	logger := setupLogger(cfg.Logging)

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Msg("Starting SearchME")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := tracing.InitProvider(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Prometheus.Enabled {
		m = metrics.New(nil)
	}

	c, err := buildComponents(cfg, m, logger)
	if err != nil {
		return err
	}

	handler := api.NewHandler(c.search, c.dispatcher, Version, logger)
	router := api.NewRouter(handler, c.bot.HandleActivity, logger, api.RouterConfig{
		Metrics:        m,
		MetricsPath:    cfg.Metrics.Prometheus.Path,
		RequestTimeout: cfg.Server.HTTP.WriteTimeout.Duration(),
	})

	server := &http.Server{
		Addr:         cfg.Server.HTTP.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.HTTP.WriteTimeout.Duration(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("address", cfg.Server.HTTP.Address).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case serveErr = <-errCh:
		logger.Error().Err(serveErr).Msg("HTTP server failed")
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Tracing shutdown failed")
	}

	logger.Info().Msg("SearchME stopped")
	return serveErr
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var logger zerolog.Logger
	if cfg.Format == "json" {
		logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
	} else {
		console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		logger = zerolog.New(console).With().Timestamp().Caller().Logger()
	}

	switch strings.ToLower(cfg.Level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	return logger
}
