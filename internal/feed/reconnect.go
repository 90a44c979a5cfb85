package feed

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BackoffConfig holds the exponential backoff settings for reconnects.
type BackoffConfig struct {
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	Multiplier    float64
	JitterPercent float64 // 0.2 = 20%
}

// Reconnector retries a connect function with exponential backoff and
// jitter until it succeeds or the context is cancelled.
type Reconnector struct {
	config  BackoffConfig
	logger  *zap.Logger
	mu      sync.Mutex
	current time.Duration
}

// NewReconnector creates a reconnector starting at the initial delay.
func NewReconnector(cfg BackoffConfig, logger *zap.Logger) *Reconnector {
	return &Reconnector{
		config:  cfg,
		logger:  logger,
		current: cfg.InitialDelay,
	}
}

// Reconnect retries connect until success. On success the backoff is
// reset for the next outage.
func (r *Reconnector) Reconnect(ctx context.Context, connect func(context.Context) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		backoff := r.nextBackoff()
		r.logger.Info("attempting-reconnection", zap.Duration("backoff", backoff))
		ReconnectAttemptsTotal.Inc()

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}

		err := connect(ctx)
		if err == nil {
			r.Reset()
			r.logger.Info("reconnection-successful")
			return nil
		}

		r.logger.Warn("reconnection-failed", zap.Error(err))
		ReconnectFailuresTotal.Inc()
		r.increment()
	}
}

// Reset restores the backoff to the initial delay.
func (r *Reconnector) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = r.config.InitialDelay
}

func (r *Reconnector) nextBackoff() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	jitter := rand.Float64() * r.config.JitterPercent
	return time.Duration(float64(r.current) * (1.0 + jitter))
}

func (r *Reconnector) increment() {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := time.Duration(float64(r.current) * r.config.Multiplier)
	if next > r.config.MaxDelay {
		next = r.config.MaxDelay
	}
	r.current = next
}
