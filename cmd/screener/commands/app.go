package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/spreadscreener/internal/contracts"
	"github.com/wonny/spreadscreener/internal/expiry"
	"github.com/wonny/spreadscreener/internal/external/finviz"
	"github.com/wonny/spreadscreener/internal/external/polygon"
	"github.com/wonny/spreadscreener/internal/external/yahoo"
	"github.com/wonny/spreadscreener/internal/marketdata"
	"github.com/wonny/spreadscreener/internal/metrics"
	"github.com/wonny/spreadscreener/internal/screener"
	"github.com/wonny/spreadscreener/internal/trades"
	"github.com/wonny/spreadscreener/pkg/config"
	"github.com/wonny/spreadscreener/pkg/database"
	"github.com/wonny/spreadscreener/pkg/httputil"
	"github.com/wonny/spreadscreener/pkg/logger"
	"github.com/wonny/spreadscreener/pkg/redis"
)

const (
	breakerFailures = 5
	breakerOpenFor  = 30 * time.Second
	cachePrefix     = "spreadscreener"
)

// app holds every wired component a command may need
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	metrics  *metrics.Registry
	redis    *redis.Client
	db       *database.DB
	calendar *expiry.Calendar
	data     *marketdata.Service
	screener *screener.Screener
	presets  *screener.PresetBook
	trades   *trades.Service
}

// newApp builds the dependency graph
// config → logger → metrics → redis → providers → market data → screener → trades
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	a := &app{cfg: cfg, log: log}

	// 3. Metrics
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	// 4. Redis (no-op client when disabled)
	a.redis, err = redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// 5. Provider clients
	var limiter *redis.RateLimiter
	if a.redis.Enabled() {
		limiter = redis.NewRateLimiter(a.redis, cachePrefix)
	}

	polygonHTTP := a.providerHTTP("polygon", cfg.Polygon.RequestTimeout)
	yahooHTTP := a.providerHTTP("yahoo", cfg.Yahoo.RequestTimeout)
	finvizHTTP := a.providerHTTP("finviz", cfg.Yahoo.RequestTimeout)
	if limiter != nil {
		polygonHTTP.WithRateLimiter(limiter, redis.PolygonRateLimit)
		yahooHTTP.WithRateLimiter(limiter, redis.YahooRateLimit)
		finvizHTTP.WithRateLimiter(limiter, redis.FinvizRateLimit)
	} else {
		polygonHTTP.WithLocalRateLimit(cfg.Polygon.RequestsPerMin)
	}

	polygonClient := polygon.NewClient(polygonHTTP, log, cfg.Polygon.BaseURL, cfg.Polygon.APIKey)
	yahooClient := yahoo.NewClient(yahooHTTP, log, cfg.Yahoo.BaseURL)

	// 6. Market data
	a.calendar = expiry.New(nil)

	dataOpts := []marketdata.Option{}
	if cfg.Finviz.Enabled {
		dataOpts = append(dataOpts, marketdata.WithFinviz(finviz.NewClient(finvizHTTP, log, cfg.Finviz.BaseURL)))
	}
	if a.redis.Enabled() {
		dataOpts = append(dataOpts, marketdata.WithCache(redis.NewCache(a.redis, cachePrefix)))
	}
	a.data = marketdata.NewService(polygonClient, yahooClient, a.calendar, log, dataOpts...)

	// 7. Screener
	cache := screener.NewCache(log)
	if a.redis.Enabled() {
		cache = cache.WithRedis(redis.NewCache(a.redis, cachePrefix), cfg.Redis.ChainTTL)
	}
	a.screener = screener.New(a.data, log,
		screener.WithCache(cache),
		screener.WithMetrics(a.metrics),
		screener.WithConcurrency(cfg.Screener.Concurrency),
	)

	// 8. Presets
	var overrides []screener.Preset
	if cfg.Screener.PresetsFile != "" {
		overrides, err = screener.LoadPresets(cfg.Screener.PresetsFile)
		if err != nil {
			return nil, fmt.Errorf("load presets: %w", err)
		}
	}
	a.presets = screener.NewPresetBook(overrides)

	// 9. Trades
	store, err := a.tradeStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.trades = trades.NewService(store, log,
		trades.WithMarketData(a.data),
		trades.WithCache(cache),
		trades.WithMetrics(a.metrics),
	)

	log.WithFields(map[string]interface{}{
		"env":         cfg.Env,
		"trade_store": cfg.Trades.Store,
		"redis":       a.redis.Enabled(),
		"metrics":     cfg.MetricsEnabled,
	}).Debug("Application initialized")

	return a, nil
}

func (a *app) providerHTTP(name string, timeout time.Duration) *httputil.Client {
	return httputil.New(name, a.log).
		WithTimeout(timeout).
		WithCircuitBreaker(breakerFailures, breakerOpenFor).
		WithObserver(a.metrics.ObserveProvider)
}

func (a *app) tradeStore(ctx context.Context) (contracts.TradeStore, error) {
	switch a.cfg.Trades.Store {
	case "postgres":
		db, err := database.New(ctx, a.cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db

		store := trades.NewPostgresStore(db.Pool)
		if err := store.Migrate(ctx, db); err != nil {
			return nil, fmt.Errorf("migrate trades: %w", err)
		}
		a.log.Info("Connected to database")
		return store, nil
	default:
		a.log.WithField("dir", a.cfg.Trades.Dir).Debug("Using file trade store")
		return trades.NewFileStore(a.cfg.Trades.Dir), nil
	}
}

// Close releases database and redis connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
