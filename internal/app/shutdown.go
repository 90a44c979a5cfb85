package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application. The feed closes
// first; the dispatcher drains whatever the channel still holds before
// storage goes away.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady("feed", false)
	a.healthChecker.SetReady("dispatcher", false)

	// Stop the tick source. Closing the client closes the tick
	// channel, which ends the dispatcher loop.
	err := a.feedClient.Close()
	if err != nil {
		a.logger.Error("feed-client-close-error", zap.Error(err))
	}

	// Cancel context to signal all components
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	err = a.httpServer.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	// Wait for the dispatcher to finish the in-flight tick
	a.wg.Wait()

	err = a.recorder.Close()
	if err != nil {
		a.logger.Error("recorder-close-error", zap.Error(err))
	}

	a.tickCache.Close()

	err = a.store.Close()
	if err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}

	a.logger.Info("application-shutdown-complete")

	return nil
}
