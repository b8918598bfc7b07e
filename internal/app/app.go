// Package app wires the service together and owns its lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/grovemarket/search-service/pkg/database"
	"github.com/grovemarket/search-service/pkg/health"
	"github.com/grovemarket/search-service/pkg/kafka"
	"github.com/grovemarket/search-service/pkg/tracing"

	"github.com/grovemarket/search-service/internal/auth"
	"github.com/grovemarket/search-service/internal/cache"
	"github.com/grovemarket/search-service/internal/catalog/postgres"
	"github.com/grovemarket/search-service/internal/config"
	"github.com/grovemarket/search-service/internal/engine"
	"github.com/grovemarket/search-service/internal/engine/elasticsearch"
	enginemem "github.com/grovemarket/search-service/internal/engine/memory"
	"github.com/grovemarket/search-service/internal/event"
	handler "github.com/grovemarket/search-service/internal/handler/http"
	"github.com/grovemarket/search-service/internal/indexer"
	"github.com/grovemarket/search-service/internal/service"
)

const shutdownTimeout = 15 * time.Second

// App holds every long-lived component of the service.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	pool        *pgxpool.Pool
	redisClient *redis.Client
	queue       *indexer.Queue
	subscriber  *event.Subscriber
	dlq         *kafka.DLQProducer
	server      *http.Server
	syncer      *indexer.Syncer
	engine      engine.SearchEngine

	shutdownTracer func(context.Context) error
}

// New builds the application: search engine, catalog store, sync pipeline,
// event subscription, and the HTTP server. Nothing starts running until Run.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: log}

	shutdownTracer, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  cfg.ServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SampleRate:   cfg.TraceSampleRate,
		Enabled:      cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.shutdownTracer = shutdownTracer

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a.pool = pool
	store := postgres.NewStore(pool)

	eng, err := a.buildEngine()
	if err != nil {
		return nil, err
	}
	a.engine = eng
	gate := engine.NewGate(eng.Ping, cfg.HealthGateTTL)

	suggestionCache := a.buildSuggestionCache(ctx)

	a.syncer = indexer.NewSyncer(store, eng, log)
	a.queue = indexer.NewQueue(a.syncer, log)

	if cfg.KafkaEnabled {
		a.dlq = kafka.NewDLQProducer(cfg.KafkaBrokers, log)
		a.subscriber = event.NewSubscriber(cfg.KafkaBrokers, a.queue, a.dlq, log)
	}

	query := service.NewQueryService(eng, gate, store, log)
	suggest := service.NewSuggestionService(eng, gate, store, suggestionCache, log)

	searchHandler := handler.NewSearchHandler(query, suggest, log)
	adminHandler := handler.NewAdminHandler(a.syncer, a.queue, eng, log)

	router := handler.NewRouter(
		searchHandler,
		adminHandler,
		a.buildHealthHandler(eng),
		auth.NewValidator(cfg.JWTSecret),
		cfg.ServiceName,
		log,
	)

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

func (a *App) buildEngine() (engine.SearchEngine, error) {
	switch a.cfg.Engine {
	case "memory":
		a.logger.Warn("using in-memory search engine, index is not persisted")
		return enginemem.New(), nil
	default:
		eng, err := elasticsearch.New(a.cfg.ElasticURL, a.cfg.IndexName, a.logger)
		if err != nil {
			return nil, fmt.Errorf("create search engine: %w", err)
		}
		return eng, nil
	}
}

// buildSuggestionCache connects to Redis when enabled. A failed connection
// degrades to the no-op cache instead of failing startup; suggestions still
// work, just uncached.
func (a *App) buildSuggestionCache(ctx context.Context) cache.SuggestionCache {
	if !a.cfg.RedisEnabled {
		return cache.Noop{}
	}

	client, err := database.NewRedisClient(ctx, a.cfg.Redis())
	if err != nil {
		a.logger.Warn("redis unavailable, suggestion cache disabled", "error", err)
		return cache.Noop{}
	}
	a.redisClient = client
	return cache.NewRedisCache(client, cache.DefaultTTL, a.logger)
}

func (a *App) buildHealthHandler(eng engine.SearchEngine) *health.Handler {
	h := health.NewHandler()
	h.Register("postgres", func(ctx context.Context) error {
		return a.pool.Ping(ctx)
	})
	h.Register("search_engine", eng.Ping)
	if a.cfg.KafkaEnabled {
		h.Register("kafka", func(ctx context.Context) error {
			return kafka.PingBrokers(ctx, a.cfg.KafkaBrokers)
		})
	}
	if a.redisClient != nil {
		h.Register("redis", func(ctx context.Context) error {
			return a.redisClient.Ping(ctx).Err()
		})
	}
	return h
}

// Run starts the sync pipeline and the HTTP server, then blocks until the
// context is canceled or the server fails.
func (a *App) Run(ctx context.Context) error {
	// Best-effort: when the engine is down at boot the service still
	// starts and serves from the fallback path.
	if a.cfg.ReindexOnStart {
		if _, err := a.syncer.ReindexAll(ctx); err != nil {
			a.logger.Error("initial reindex failed", "error", err)
		}
	} else if err := a.initIndex(ctx); err != nil {
		a.logger.Warn("index init failed, continuing degraded", "error", err)
	}

	a.queue.Start(ctx)
	if a.subscriber != nil {
		a.subscriber.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		return a.shutdown()
	case err := <-errCh:
		_ = a.shutdown()
		return fmt.Errorf("http server: %w", err)
	}
}

func (a *App) initIndex(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return a.engine.Init(ctx)
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.server.Shutdown(ctx); err != nil {
		firstErr = fmt.Errorf("shutdown http server: %w", err)
	}

	if a.subscriber != nil {
		a.subscriber.Close()
	}
	a.queue.Close()
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.pool.Close()

	if err := a.shutdownTracer(ctx); err != nil && firstErr == nil {
		firstErr = err
	}

	a.logger.Info("shutdown complete")
	return firstErr
}
