package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WatchedMarket is one market the feed subscribes to.
type WatchedMarket struct {
	Slug     string   `yaml:"slug"`
	AssetIDs []string `yaml:"asset_ids"`
}

// Watchlist is the set of markets the trader follows.
type Watchlist struct {
	Markets []WatchedMarket `yaml:"markets"`
}

// LoadWatchlist reads and validates a YAML watchlist file.
func LoadWatchlist(path string) (*Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}

	var wl Watchlist
	err = yaml.Unmarshal(data, &wl)
	if err != nil {
		return nil, fmt.Errorf("parse watchlist: %w", err)
	}

	if len(wl.Markets) == 0 {
		return nil, fmt.Errorf("watchlist has no markets")
	}
	for i, m := range wl.Markets {
		if len(m.AssetIDs) == 0 {
			return nil, fmt.Errorf("watchlist market %d (%s) has no asset ids", i, m.Slug)
		}
	}

	return &wl, nil
}

// AssetIDs returns every asset ID across all watched markets, deduplicated,
// in file order.
func (w *Watchlist) AssetIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, m := range w.Markets {
		for _, id := range m.AssetIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
