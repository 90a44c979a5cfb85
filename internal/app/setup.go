package app

import (
	"context"
	"fmt"

	"github.com/mselser95/polymarket-trader/internal/engine"
	"github.com/mselser95/polymarket-trader/internal/execution"
	"github.com/mselser95/polymarket-trader/internal/feed"
	"github.com/mselser95/polymarket-trader/internal/ledger"
	"github.com/mselser95/polymarket-trader/internal/recorder"
	"github.com/mselser95/polymarket-trader/internal/risk"
	"github.com/mselser95/polymarket-trader/internal/storage"
	"github.com/mselser95/polymarket-trader/internal/strategy"
	"github.com/mselser95/polymarket-trader/pkg/cache"
	"github.com/mselser95/polymarket-trader/pkg/config"
	"github.com/mselser95/polymarket-trader/pkg/healthprobe"
	"github.com/mselser95/polymarket-trader/pkg/httpserver"
	"go.uber.org/zap"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	watchlistPath := cfg.WatchlistPath
	if opts.WatchlistPath != "" {
		watchlistPath = opts.WatchlistPath
	}
	watchlist, err := config.LoadWatchlist(watchlistPath)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("load watchlist: %w", err)
	}

	store, err := setupStorage(ctx, cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	ledgerManager, err := setupLedger(ctx, store, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup ledger: %w", err)
	}

	gate, err := setupRiskGate(cfg, store, ledgerManager, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup risk gate: %w", err)
	}

	tickCache, err := setupCache(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	tickRecorder, err := recorder.New(&recorder.Config{
		DataDir: cfg.DataDir,
		Logger:  logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup recorder: %w", err)
	}

	dispatcher, err := setupDispatcher(cfg, gate, ledgerManager, store, tickCache, tickRecorder, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup dispatcher: %w", err)
	}

	feedClient, err := feed.NewClient(feed.Config{
		URL:                   cfg.FeedWSURL,
		DialTimeout:           cfg.WSDialTimeout,
		PingInterval:          cfg.WSPingInterval,
		ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
		ReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
		TickBufferSize:        cfg.TickBufferSize,
		Logger:                logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup feed client: %w", err)
	}

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Ledger:        ledgerManager,
		Gate:          gate,
		Storage:       store,
		Cache:         tickCache,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		feedClient:    feedClient,
		dispatcher:    dispatcher,
		ledger:        ledgerManager,
		gate:          gate,
		store:         store,
		tickCache:     tickCache,
		recorder:      tickRecorder,
		watchlist:     watchlist,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.StorageMode == "memory" {
		return storage.NewMemoryStorage(logger), nil
	}

	pg, err := storage.NewPostgresStorage(&storage.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPass,
		Database: cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSL,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	err = pg.InitSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return pg, nil
}

func setupLedger(ctx context.Context, store storage.Storage, logger *zap.Logger) (*ledger.Manager, error) {
	manager, err := ledger.NewManager(&ledger.ManagerConfig{
		Store:  store,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	// Resume open positions from the last run.
	positions, err := store.OpenPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load open positions: %w", err)
	}
	manager.Hydrate(positions)

	if len(positions) > 0 {
		logger.Info("positions-hydrated", zap.Int("count", len(positions)))
	}

	return manager, nil
}

func setupRiskGate(cfg *config.Config, store storage.Storage, ledgerManager *ledger.Manager, logger *zap.Logger) (*risk.Gate, error) {
	return risk.New(&risk.Config{
		Limits: risk.Limits{
			MaxTotalExposure: cfg.MaxTotalExposure,
			MaxDailyLoss:     cfg.MaxDailyLoss,
			MaxDailyTrades:   cfg.MaxDailyTrades,
			MaxSingleTrade:   cfg.MaxSingleTrade,
			BreakerEnabled:   cfg.BreakerEnabled,
			BreakerCooldown:  cfg.BreakerCooldown,
		},
		Stats:    store,
		Exposure: ledgerManager,
		Logger:   logger,
	})
}

func setupCache(cfg *config.Config, logger *zap.Logger) (*cache.TickCache, error) {
	return cache.New(&cache.Config{
		NumCounters: cfg.CacheMaxItems * 10,
		MaxCost:     cfg.CacheMaxItems,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupStrategy(cfg *config.Config) (strategy.Strategy, error) {
	if cfg.StrategyName == "subprocess" {
		return strategy.NewSubprocess(&strategy.SubprocessConfig{
			Command: cfg.SubprocessCommand,
			Timeout: cfg.SubprocessTimeout,
		})
	}

	return strategy.New(cfg.StrategyName, strategy.Params{
		"buy_size":   cfg.TradeAmount,
		"buy_below":  cfg.BuyThreshold,
		"sell_above": cfg.SellThreshold,
		"lookback":   float64(cfg.MomentumLookback),
		"entry_move": cfg.MomentumEntryMove,
		"exit_move":  cfg.MomentumExitMove,
	})
}

func setupDispatcher(
	cfg *config.Config,
	gate *risk.Gate,
	ledgerManager *ledger.Manager,
	store storage.Storage,
	tickCache *cache.TickCache,
	tickRecorder *recorder.Recorder,
	logger *zap.Logger,
) (*engine.Dispatcher, error) {
	strat, err := setupStrategy(cfg)
	if err != nil {
		return nil, fmt.Errorf("setup strategy: %w", err)
	}

	simulator, err := execution.New(&execution.Config{
		UseBookPrice: cfg.UseBookPrice,
		SlippageBPS:  cfg.SlippageBPS,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("setup simulator: %w", err)
	}

	handler, err := engine.NewStrategyHandler(&engine.HandlerConfig{
		Strategy:  strat,
		Gate:      gate,
		Simulator: simulator,
		Ledger:    ledgerManager,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("setup strategy handler: %w", err)
	}

	dispatcher := engine.NewDispatcher(logger)
	dispatcher.Register(handler)
	dispatcher.Register(engine.NewTickPersister(store))
	dispatcher.Register(engine.NewCacheUpdater(tickCache))
	dispatcher.Register(tickRecorder)

	return dispatcher, nil
}
