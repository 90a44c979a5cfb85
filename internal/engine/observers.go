package engine

import (
	"context"
	"fmt"

	"github.com/mselser95/polymarket-trader/internal/storage"
	"github.com/mselser95/polymarket-trader/pkg/cache"
	"github.com/mselser95/polymarket-trader/pkg/types"
)

// TickPersister writes every tick to storage.
type TickPersister struct {
	store storage.Storage
}

// NewTickPersister creates the persistence observer.
func NewTickPersister(store storage.Storage) *TickPersister {
	return &TickPersister{store: store}
}

// Name implements Observer.
func (p *TickPersister) Name() string { return "persister" }

// OnTick saves the tick to the price history.
func (p *TickPersister) OnTick(ctx context.Context, tick types.Tick) error {
	err := p.store.SaveTick(ctx, tick)
	if err != nil {
		return fmt.Errorf("save tick: %w", err)
	}
	return nil
}

// CacheUpdater keeps the latest-tick cache current.
type CacheUpdater struct {
	cache *cache.TickCache
}

// NewCacheUpdater creates the cache observer.
func NewCacheUpdater(c *cache.TickCache) *CacheUpdater {
	return &CacheUpdater{cache: c}
}

// Name implements Observer.
func (c *CacheUpdater) Name() string { return "cache" }

// OnTick stores the tick as the asset's latest.
func (c *CacheUpdater) OnTick(_ context.Context, tick types.Tick) error {
	if tick.AssetID == "" {
		return nil
	}
	c.cache.Put(tick)
	return nil
}
