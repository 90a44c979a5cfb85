package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("strategy", a.cfg.StrategyName),
		zap.String("storage-mode", a.cfg.StorageMode),
		zap.String("log-level", a.cfg.LogLevel))

	err := a.startComponents()
	if err != nil {
		return err
	}

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.String("ws-url", a.cfg.FeedWSURL),
		zap.Int("watched-assets", len(a.watchlist.AssetIDs())))

	return a.waitForShutdown()
}

func (a *App) startComponents() error {
	// Start HTTP server first so probes respond while the feed dials
	a.healthChecker.SetReady("feed", false)
	a.healthChecker.SetReady("dispatcher", false)

	a.wg.Add(1)
	go a.runHTTPServer()

	// Start dispatcher consuming the feed channel
	a.wg.Add(1)
	go a.runDispatcher()
	a.healthChecker.SetReady("dispatcher", true)

	// Connect the feed and subscribe the watchlist
	err := a.feedClient.Start()
	if err != nil {
		return fmt.Errorf("start feed client: %w", err)
	}

	err = a.feedClient.Subscribe(a.watchlist.AssetIDs())
	if err != nil {
		return fmt.Errorf("subscribe watchlist: %w", err)
	}
	a.healthChecker.SetReady("feed", true)

	return nil
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runDispatcher() {
	defer a.wg.Done()
	a.dispatcher.Run(a.ctx, a.feedClient.TickChan())
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
