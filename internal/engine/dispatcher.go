// Package engine drives the live pipeline: it consumes the tick
// stream and fans each tick out to registered observers, strictly one
// tick at a time so ledger mutations stay sequentially consistent.
package engine

import (
	"context"
	"time"

	"github.com/mselser95/polymarket-trader/pkg/types"
	"go.uber.org/zap"
)

// Observer handles one tick. Observers must fully complete before the
// next tick is dispatched; a failing observer never blocks the others.
type Observer interface {
	Name() string
	OnTick(ctx context.Context, tick types.Tick) error
}

// Dispatcher fans ticks out to observers sequentially.
type Dispatcher struct {
	observers []Observer
	logger    *zap.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// Register appends an observer. Observers run in registration order.
func (d *Dispatcher) Register(obs Observer) {
	d.observers = append(d.observers, obs)
	d.logger.Info("observer-registered", zap.String("observer", obs.Name()))
}

// Run consumes ticks until the channel closes or the context is
// cancelled. Each tick is fully processed before the next one.
func (d *Dispatcher) Run(ctx context.Context, ticks <-chan types.Tick) {
	d.logger.Info("dispatcher-started", zap.Int("observers", len(d.observers)))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher-stopped", zap.Error(ctx.Err()))
			return
		case tick, ok := <-ticks:
			if !ok {
				d.logger.Info("tick-stream-closed")
				return
			}
			d.Dispatch(ctx, tick)
		}
	}
}

// Dispatch runs every observer against one tick. Failures and panics
// are contained per observer.
func (d *Dispatcher) Dispatch(ctx context.Context, tick types.Tick) {
	start := time.Now()
	TicksTotal.Inc()

	for _, obs := range d.observers {
		d.dispatchOne(ctx, obs, tick)
	}

	DispatchDurationSeconds.Observe(time.Since(start).Seconds())
}

func (d *Dispatcher) dispatchOne(ctx context.Context, obs Observer, tick types.Tick) {
	defer func() {
		r := recover()
		if r != nil {
			ObserverErrorsTotal.WithLabelValues(obs.Name()).Inc()
			d.logger.Error("observer-panicked",
				zap.String("observer", obs.Name()),
				zap.String("asset-id", tick.AssetID),
				zap.Any("panic", r))
		}
	}()

	err := obs.OnTick(ctx, tick)
	if err != nil {
		ObserverErrorsTotal.WithLabelValues(obs.Name()).Inc()
		d.logger.Error("observer-failed",
			zap.String("observer", obs.Name()),
			zap.String("asset-id", tick.AssetID),
			zap.Error(err))
	}
}
