package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"jobfinder-engine/internal/config"
	"jobfinder-engine/internal/events"
	"jobfinder-engine/internal/httpapi"
	"jobfinder-engine/internal/notify"
	"jobfinder-engine/internal/poll"
	"jobfinder-engine/internal/scheduler"
	"jobfinder-engine/internal/scrape"
	"jobfinder-engine/internal/scrape/util"
	"jobfinder-engine/internal/store"
	"jobfinder-engine/internal/telemetry"

	rediscache "jobfinder-engine/internal/cache/redis"
)

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.App.Dev {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// newInstanceLock keeps a second engine from polling the same data dir.
func newInstanceLock(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(cfg.App.DataDir, "jobfinder.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock data dir: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another engine is running against %s", cfg.App.DataDir)
	}
	logger.Info("acquired instance lock", zap.String("path", lock.Path()))
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return lock.Unlock() },
	})
	return lock, nil
}

func storeDSN(cfg config.Config) string {
	dsn := cfg.Store.DSN
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") || filepath.IsAbs(dsn) {
		return dsn
	}
	return filepath.Join(cfg.App.DataDir, dsn)
}

func newStore(lc fx.Lifecycle, cfg config.Config, _ *flock.Flock, logger *zap.Logger) (store.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := store.Open(ctx, storeDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Info("store ready", zap.String("dsn", httpapi.Redact(cfg).Store.DSN))
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return st.Close() },
	})
	return st, nil
}

func newHTTPClient(cfg config.Config) *util.Client {
	hc := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
	return util.NewClient(hc, util.NewHostLimiter(cfg.Sources.RequestsPerSecond, cfg.Sources.Burst))
}

func newAggregator(cfg config.Config, client *util.Client, logger *zap.Logger) *scrape.Aggregator {
	adapters := scrape.NewAdapters(cfg, client, logger)
	agg := scrape.NewAggregator(logger, scrape.DefaultPolicy(), adapters...)
	logger.Info("adapters registered", zap.Strings("sources", agg.Adapters()))
	return agg
}

// newInteractiveSearcher puts the redis cache in front of the aggregator
// when one is configured. A cache that cannot be reached is skipped.
func newInteractiveSearcher(lc fx.Lifecycle, cfg config.Config, agg *scrape.Aggregator, logger *zap.Logger) interactiveSearcher {
	if cfg.Redis.URL == "" {
		return interactiveSearcher{agg}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	c, err := rediscache.New(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Warn("redis unavailable, search cache disabled", zap.Error(err))
		return interactiveSearcher{agg}
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return c.Close() },
	})
	return interactiveSearcher{scrape.NewCachedSearcher(agg, c, cfg.CacheTTL(), logger)}
}

// newNotifier always publishes to the SSE hub and adds NATS when a URL is set.
func newNotifier(lc fx.Lifecycle, cfg config.Config, hub *events.Hub, logger *zap.Logger) notify.Notifier {
	out := notify.Multi{notify.NewHub(hub)}
	if cfg.NATS.URL == "" {
		return out
	}
	n, err := notify.NewNATS(cfg.NATS.URL, cfg.NATS.Subject, logger)
	if err != nil {
		logger.Warn("nats unavailable, notifications limited to SSE", zap.Error(err))
		return out
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return n.Close() },
	})
	return append(out, n)
}

func newPoller(cfg config.Config, st store.Store, agg *scrape.Aggregator, n notify.Notifier, hub *events.Hub, logger *zap.Logger) *poll.Poller {
	return poll.New(st, agg, n, logger, poll.Options{
		Limit: cfg.Polling.ResultsLimit,
		Hub:   hub,
	})
}

func newScheduler(lc fx.Lifecycle, cfg config.Config, p *poll.Poller, logger *zap.Logger) (*scheduler.Scheduler, error) {
	s := scheduler.New(logger)
	err := s.Every(cfg.PollInterval(), "poll", func(ctx context.Context) error {
		_, err := p.RunOnce(ctx)
		if errors.Is(err, poll.ErrCycleRunning) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.Start()
			return nil
		},
		OnStop: s.Stop,
	})
	return s, nil
}

func newAPIDeps(
	cfg config.Config,
	boot bootstrap,
	st store.Store,
	searcher interactiveSearcher,
	p *poll.Poller,
	hub *events.Hub,
	token *httpapi.APIToken,
	logger *zap.Logger,
) httpapi.Deps {
	return httpapi.Deps{
		Store:       st,
		Searcher:    searcher,
		Poller:      p,
		Hub:         hub,
		Logger:      logger.Named("http"),
		Token:       token,
		MaxResults:  cfg.Search.MaxResults,
		Cfg:         cfg,
		UserCfgPath: boot.UserCfgPath,
	}
}

func newServer(lc fx.Lifecycle, cfg config.Config, deps httpapi.Deps, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Addr:              cfg.App.Addr,
		Handler:           httpapi.NewHandler(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("engine listening", zap.String("addr", "http://"+ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	return srv
}

// startTracing installs the OTLP exporter when an endpoint is configured;
// spans are no-ops otherwise.
func startTracing(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) error {
	if cfg.Telemetry.Endpoint == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
		return nil
	}
	logger.Info("tracing enabled", zap.String("endpoint", cfg.Telemetry.Endpoint))
	lc.Append(fx.Hook{OnStop: shutdown})
	return nil
}
