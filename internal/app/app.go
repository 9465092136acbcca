// Package app wires configuration into the running assistant: lexicon,
// catalog, cache, storage, telemetry and the chat pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/trace"

	"github.com/spherical-ai/asha/internal/cache"
	"github.com/spherical-ai/asha/internal/catalog"
	"github.com/spherical-ai/asha/internal/chat"
	"github.com/spherical-ai/asha/internal/config"
	"github.com/spherical-ai/asha/internal/lexicon"
	"github.com/spherical-ai/asha/internal/monitoring"
	"github.com/spherical-ai/asha/internal/observability"
	"github.com/spherical-ai/asha/internal/storage"
)

// Options tune what New builds.
type Options struct {
	// WithoutStorage skips the database. History, feedback, favorites and
	// applications are then unavailable.
	WithoutStorage bool
	// TraceOutput receives exported spans when tracing is enabled.
	TraceOutput io.Writer
	Now         func() time.Time
}

// App holds the long-lived components of one process.
type App struct {
	Config   *config.Config
	Logger   *observability.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	Tracer   trace.Tracer

	Lexicon   *lexicon.Lexicon
	Pipeline  *chat.Pipeline
	Cache     cache.Broker
	Catalog   *catalog.CachedProvider
	Store     *storage.Store
	Tracker   *monitoring.EventTracker
	Assistant *chat.Assistant
	Retention *monitoring.RetentionRunner

	closers []func(context.Context) error
}

// New builds every component named by cfg. Components already built are
// released when a later one fails.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger, opts Options) (_ *App, err error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	a := &App{Config: cfg, Logger: observability.OrNop(logger)}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	a.Lexicon, err = lexicon.Load(cfg.Lexicon.Path)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = observability.NewMetrics(a.Registry)

	tracer, shutdown, err := observability.SetupTracing(observability.TraceConfig{
		Enabled:     cfg.Observability.OTEL.Enabled,
		ServiceName: cfg.Observability.OTEL.ServiceName,
		Output:      opts.TraceOutput,
	})
	if err != nil {
		return nil, err
	}
	a.Tracer = tracer
	a.closers = append(a.closers, shutdown)

	cacheOpts, err := CacheOptions(cfg.Cache)
	if err != nil {
		return nil, err
	}
	a.Cache, err = cache.New(ctx, cacheOpts)
	if err != nil {
		return nil, fmt.Errorf("connect cache: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return a.Cache.Close() })

	static, err := catalog.NewStaticCatalog(opts.Now())
	if err != nil {
		return nil, err
	}
	a.Catalog = catalog.NewCachedProvider(static, a.Cache, cfg.Cache.TTL, a.Logger)

	if !opts.WithoutStorage {
		a.Store, err = storage.Open(ctx, cfg.Database.Driver, cfg.DatabaseDSN())
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return a.Store.Close() })

		a.Retention = monitoring.NewRetentionRunner(a.Store.Conversations, a.Logger, monitoring.RetentionConfig{
			MaxAge:   cfg.Retention.MaxAge,
			Schedule: cfg.Retention.Schedule,
		})
	}

	a.Tracker = monitoring.NewEventTracker(a.Logger, a.Cache)
	a.Pipeline = chat.NewPipeline(a.Lexicon, a.Logger)

	assistantOpts := []chat.Option{
		chat.WithTracker(a.Tracker),
		chat.WithMetrics(a.Metrics),
		chat.WithTracer(a.Tracer),
		chat.WithLogger(a.Logger),
		chat.WithClock(opts.Now),
	}
	if a.Store != nil {
		assistantOpts = append(assistantOpts, chat.WithHistory(a.Store.Conversations))
	}
	a.Assistant = chat.NewAssistant(a.Pipeline, a.Catalog, chat.Config{
		KnowledgeLimit:   cfg.Pipeline.KnowledgeLimit,
		CandidateLimit:   cfg.Pipeline.CandidateLimit,
		HistoryWindow:    cfg.Pipeline.HistoryWindow,
		MaxMessageLength: cfg.Pipeline.MaxMessageLength,
	}, assistantOpts...)

	return a, nil
}

// StartBackground starts scheduled jobs enabled by the configuration.
func (a *App) StartBackground() error {
	if a.Retention == nil || !a.Config.Retention.Enabled {
		return nil
	}
	if err := a.Retention.Start(); err != nil {
		return err
	}
	a.closers = append(a.closers, func(ctx context.Context) error {
		a.Retention.Stop(ctx)
		return nil
	})
	return nil
}

// Close releases components in reverse construction order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// CacheOptions translates the cache section, resolving a Redis URL.
func CacheOptions(cfg config.CacheConfig) (cache.Options, error) {
	opts := cache.Options{
		Driver:     cfg.Driver,
		MaxEntries: cfg.MaxEntries,
		Redis: cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Prefix:   cfg.Redis.Prefix,
		},
	}
	if cfg.Redis.URL != "" {
		parsed, err := cache.ParseRedisURL(cfg.Redis.URL)
		if err != nil {
			return cache.Options{}, err
		}
		parsed.PoolSize = cfg.Redis.PoolSize
		parsed.Prefix = cfg.Redis.Prefix
		opts.Redis = parsed
	}
	return opts, nil
}
