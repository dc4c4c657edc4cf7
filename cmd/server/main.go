package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/zhejian/link-shortener/internal/config"
	"github.com/zhejian/link-shortener/internal/infra"
	"github.com/zhejian/link-shortener/internal/observability"
	"github.com/zhejian/link-shortener/internal/server"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs, err := observability.Setup(ctx, observability.Config{
		ServiceName:  cfg.App.ServiceName,
		Environment:  cfg.App.Environment,
		OTLPEndpoint: cfg.App.OTLPEndpoint,
	})
	if err != nil {
		log.Fatalf("Failed to setup observability: %v", err)
	}
	logger := obs.Logger

	// Connect to redis only when it backs the clipboard
	var cache *redis.Client
	if cfg.Clipboard.Backend == config.ClipboardRedis {
		cache, err = infra.NewCacheClient(ctx, cfg.Cache.ConnectionString())
		if err != nil {
			logger.Error("failed to connect to cache", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer cache.Close()
		logger.Info("cache connected", slog.String("host", cfg.Cache.Host))
	}

	sessions, err := server.NewSessionService(cfg, cache, obs, clockwork.NewRealClock())
	if err != nil {
		logger.Error("failed to create session service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	srv := server.NewServer(cfg, sessions, cache, obs)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sessions.RunExpiry(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("server starting",
			slog.String("port", cfg.Server.Port),
			slog.String("alias_domain", cfg.Session.AliasDomain),
			slog.String("clipboard", cfg.Clipboard.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx, srv, sessions)
		obs.Shutdown(shutdownCtx)
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server exited gracefully")
}
