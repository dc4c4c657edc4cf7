package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/zhejian/link-shortener/internal/api"
	"github.com/zhejian/link-shortener/internal/config"
	"github.com/zhejian/link-shortener/internal/middleware"
	"github.com/zhejian/link-shortener/internal/observability"
	"github.com/zhejian/link-shortener/internal/repository"
	"github.com/zhejian/link-shortener/internal/service"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// redisPinger adapts *redis.Client to api.CacheInterface.
type redisPinger struct{ client *redis.Client }

func (r *redisPinger) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// NewSessionService wires the generator, the clipboard backend and the
// metrics into a session registry. cache is only used by the redis backend.
func NewSessionService(cfg *config.Config, cache *redis.Client, obs *observability.Observability, clock clockwork.Clock) (*service.SessionService, error) {
	metrics, err := service.NewMetrics(obs.Meter("github.com/zhejian/link-shortener/internal/service"))
	if err != nil {
		return nil, err
	}

	generator := service.NewGenerator(cfg.Session.AliasDomain, cfg.Session.TokenLength, service.WithClock(clock))

	sessions := service.NewSessionService(service.SessionConfig{
		GenerateDelay:   cfg.Session.GenerateDelay,
		CopyResetAfter:  cfg.Session.CopyResetAfter,
		HistoryCapacity: cfg.Session.HistoryCapacity,
		IdleTTL:         cfg.Session.IdleTTL,
	}, generator, clipboardFactory(cfg, cache, obs), clock, obs.Logger, metrics)

	return sessions, nil
}

func clipboardFactory(cfg *config.Config, cache *redis.Client, obs *observability.Observability) service.ClipboardFactory {
	if cfg.Clipboard.Backend != config.ClipboardRedis || cache == nil {
		return func(string) service.Clipboard {
			return repository.NewMemoryClipboard()
		}
	}

	breaker := repository.NewClipboardBreaker(repository.BreakerSettings{
		Name:             "clipboard-redis",
		FailureThreshold: uint32(cfg.Clipboard.FailureThreshold),
		OpenTimeout:      cfg.Clipboard.OpenTimeout,
	}, obs.Logger)

	return func(sessionID string) service.Clipboard {
		return repository.NewBreakerClipboard(
			repository.NewRedisClipboard(cache, sessionID, cfg.Clipboard.TTL),
			breaker,
		)
	}
}

// NewRouter returns a configured Gin router serving sessions.
// Useful for tests where the full HTTP server is not needed.
func NewRouter(cfg *config.Config, sessions service.SessionServiceInterface, cache *redis.Client, obs *observability.Observability) *gin.Engine {
	var pinger api.CacheInterface
	if cache != nil {
		pinger = &redisPinger{client: cache}
	}
	handler := api.NewHandler(sessions, pinger, obs.Logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.App.ServiceName))
	r.Use(middleware.Logging(obs.Logger))

	r.GET("/metrics", gin.WrapH(observability.MetricsHandler(obs.Registry)))
	handler.RegisterRoutes(r)
	return r
}

// NewServer returns the HTTP server around NewRouter
func NewServer(cfg *config.Config, sessions service.SessionServiceInterface, cache *redis.Client, obs *observability.Observability) *http.Server {
	router := NewRouter(cfg, sessions, cache, obs)

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// SessionCloser is the part of the session registry torn down on shutdown
type SessionCloser interface {
	CloseAll()
}

// Shutdown drains in-flight requests first and only then closes every
// session, so a session created by a late request is closed too.
func Shutdown(ctx context.Context, srv *http.Server, sessions SessionCloser) error {
	err := srv.Shutdown(ctx)
	sessions.CloseAll()
	return err
}
