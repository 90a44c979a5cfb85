// Package cache keeps the most recent tick per asset in a
// ristretto-backed cache, serving the dashboard without touching the
// database on every request.
package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/mselser95/polymarket-trader/pkg/types"
	"go.uber.org/zap"
)

// TickCache stores the latest tick per asset ID with a TTL.
type TickCache struct {
	cache  *ristretto.Cache
	logger *zap.Logger
	ttl    time.Duration
}

// Config holds tick cache configuration.
type Config struct {
	NumCounters int64 // keys tracked for frequency, ~10x max items
	MaxCost     int64 // max items held
	BufferItems int64 // keys per Get buffer
	TTL         time.Duration
	Logger      *zap.Logger
}

// New creates a ristretto-backed tick cache.
func New(cfg *Config) (*TickCache, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}

	return &TickCache{
		cache:  cache,
		logger: cfg.Logger,
		ttl:    cfg.TTL,
	}, nil
}

// Put stores the tick as the latest for its asset.
func (c *TickCache) Put(tick types.Tick) bool {
	ok := c.cache.SetWithTTL(tick.AssetID, tick, 1, c.ttl)
	if ok {
		SetsTotal.Inc()
	}
	return ok
}

// Latest returns the most recent tick for an asset, if still cached.
func (c *TickCache) Latest(assetID string) (types.Tick, bool) {
	value, found := c.cache.Get(assetID)
	if !found {
		MissesTotal.Inc()
		return types.Tick{}, false
	}

	tick, ok := value.(types.Tick)
	if !ok {
		MissesTotal.Inc()
		return types.Tick{}, false
	}

	HitsTotal.Inc()
	return tick, true
}

// Wait blocks until pending writes are applied. Test helper.
func (c *TickCache) Wait() {
	c.cache.Wait()
}

// Close releases cache resources.
func (c *TickCache) Close() {
	c.cache.Close()
	c.logger.Info("tick-cache-closed")
}
