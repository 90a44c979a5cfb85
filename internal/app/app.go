package app

import (
	"context"
	"sync"

	"github.com/mselser95/polymarket-trader/internal/engine"
	"github.com/mselser95/polymarket-trader/internal/feed"
	"github.com/mselser95/polymarket-trader/internal/ledger"
	"github.com/mselser95/polymarket-trader/internal/recorder"
	"github.com/mselser95/polymarket-trader/internal/risk"
	"github.com/mselser95/polymarket-trader/internal/storage"
	"github.com/mselser95/polymarket-trader/pkg/cache"
	"github.com/mselser95/polymarket-trader/pkg/config"
	"github.com/mselser95/polymarket-trader/pkg/healthprobe"
	"github.com/mselser95/polymarket-trader/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the main application orchestrator for the live simulated
// trading loop.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	feedClient    *feed.Client
	dispatcher    *engine.Dispatcher
	ledger        *ledger.Manager
	gate          *risk.Gate
	store         storage.Storage
	tickCache     *cache.TickCache
	recorder      *recorder.Recorder
	watchlist     *config.Watchlist
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// Options holds application options.
type Options struct {
	WatchlistPath string // Overrides cfg.WatchlistPath when set
}
