package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ysxye29-beep/tracnghiem/internal/auth"
	"github.com/ysxye29-beep/tracnghiem/internal/config"
	"github.com/ysxye29-beep/tracnghiem/internal/export"
	"github.com/ysxye29-beep/tracnghiem/internal/extract"
	"github.com/ysxye29-beep/tracnghiem/internal/logging"
	"github.com/ysxye29-beep/tracnghiem/internal/server"
	"github.com/ysxye29-beep/tracnghiem/internal/session"
	"github.com/ysxye29-beep/tracnghiem/pkg/http/ws"
)

// Application aggregates shared infrastructure (cache, HTTP server, workers).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	redis *redis.Client
	http  *http.Server

	reaper    *session.Reaper
	bgCancels []context.CancelFunc
}

// New bootstraps config, logger, Redis and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	store := session.NewRedisStore(redisClient, cfg.Session.SnapshotTTL)
	gateway := session.NewGateway(store, logger)

	var extractor session.Extractor
	if cfg.Extractor.URL != "" {
		extractor = extract.NewClient(extract.Config{
			URL:     cfg.Extractor.URL,
			APIKey:  cfg.Extractor.APIKey,
			Timeout: cfg.Extractor.HTTPTimeout,
		}, logger)
	} else {
		logger.Warn().Msg("extractor not configured; document intake disabled")
	}

	tokens := auth.NewManager(auth.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		TTL:    cfg.Security.GuestTTL,
		Issuer: cfg.Security.TokenIssuer,
	})

	wsHub := ws.NewHub(logger)
	manager := session.NewManager(gateway, extractor, export.NewRenderer(), session.ManagerOptions{
		Notifier: wsHub,
	}, logger)

	authHandlers := auth.NewHTTPHandlers(tokens, logger)
	sessionHandlers := session.NewHTTPHandlers(manager, cfg.Session.MaxUploadSize, logger)
	wsHandler := session.NewWSHandler(wsHub, tokens, logger)

	apiServer := server.NewHTTPServer(cfg, logger, redisClient, tokens, authHandlers, sessionHandlers, wsHandler)

	return &Application{
		cfg:       cfg,
		logger:    logger,
		redis:     redisClient,
		http:      apiServer,
		reaper:    session.NewReaper(manager, cfg.Session.ReapInterval, cfg.Session.IdleTimeout, logger),
		bgCancels: make([]context.CancelFunc, 0, 1),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	bgCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	go func() {
		if err := a.reaper.Run(bgCtx); err != nil && err != context.Canceled {
			a.logger.Warn().Err(err).Msg("session reaper stopped")
		}
	}()
}
