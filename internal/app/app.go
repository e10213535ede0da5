// Package app wires configuration to the popup service and its backing stores.
package app

import (
	"context"
	"database/sql"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"popupforge/internal/config"
	"popupforge/internal/events"
	"popupforge/internal/identity"
	"popupforge/internal/idgen"
	"popupforge/internal/lifecycle"
	"popupforge/internal/platform/memory"
	"popupforge/internal/platform/postgres"
	"popupforge/internal/platform/redis"
	"popupforge/internal/popup"
)

type App struct {
	Service   *popup.Service
	Cache     *redis.Repository // nil when REDIS_URL is unset
	DB        *sql.DB           // nil with the memory driver
	Lifecycle *lifecycle.Manager

	rdb    *goredis.Client
	logger *zap.Logger
}

// Options override parts of the wiring. A nil Identity uses the request context.
type Options struct {
	Identity      popup.IdentityProvider
	SkipMigration bool
}

// Build connects every configured backend and assembles the service. On
// error, anything already opened is released.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (a *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a = &App{Lifecycle: lifecycle.New(cfg.Context.ShutdownTimeout, logger), logger: logger}
	defer func() {
		if err != nil {
			a.Lifecycle.Shutdown(context.Background())
			a = nil
		}
	}()

	var (
		store      popup.MessageStore
		eventStore popup.EventStore
		catalog    popup.Catalog
	)
	switch cfg.StoreDriver {
	case "memory":
		mem := memory.NewStore()
		store, eventStore, catalog = mem, mem, mem
		logger.Warn("using in-memory store; data is lost on restart")
	default:
		db, err := postgres.Open(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		a.DB = db
		a.Lifecycle.Register("postgres", lifecycle.Closer(db.Close))
		if cfg.Migrations.Enabled && !opts.SkipMigration {
			if err := postgres.Migrate(db, logger); err != nil {
				return nil, err
			}
		}
		pg := postgres.NewStore(db)
		store, eventStore, catalog = pg, pg, pg
	}

	var cache popup.Cache
	if cfg.Redis.URL != "" {
		rdb, err := redis.NewClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.rdb = rdb
		a.Lifecycle.Register("redis", lifecycle.Closer(rdb.Close))
		a.Cache = redis.NewRepository(rdb, catalog, cfg.Redis.TTL, logger)
		catalog, cache = a.Cache, a.Cache
	}

	var publisher events.Publisher = &events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		np, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			return nil, err
		}
		publisher = np
		logger.Info("publishing events to nats", zap.String("url", cfg.NATS.URL))
	}
	a.Lifecycle.Register("events", lifecycle.Closer(publisher.Close))

	ident := opts.Identity
	if ident == nil {
		ident = identity.ContextProvider{}
	}

	a.Service = popup.NewService(popup.Dependencies{
		Store:     store,
		Catalog:   catalog,
		Events:    eventStore,
		Cache:     cache,
		Identity:  ident,
		Publisher: publisher,
		NewID:     idgen.Message,
		EventID:   idgen.Event,
		Workers:   cfg.Queue.Workers,
		Logger:    logger,
	})
	return a, nil
}

// Check pings the configured backends and reports which are reachable.
func (a *App) Check(ctx context.Context) (map[string]bool, error) {
	status := map[string]bool{}
	var firstErr error
	if a.DB != nil {
		err := a.DB.PingContext(ctx)
		status["postgres"] = err == nil
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("postgres: %w", err)
		}
	}
	if a.rdb != nil {
		err := a.rdb.Ping(ctx).Err()
		status["redis"] = err == nil
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("redis: %w", err)
		}
	}
	return status, firstErr
}
