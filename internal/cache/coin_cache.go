package cache

import (
	"sync/atomic"
	"time"

	"coin-pulse/internal/domain"
)

// CoinCache maps base assets to their latest ticker snapshot. Readers load an
// immutable map; UpsertAll publishes a freshly built one in a single store, so
// a reader sees either the previous refresh or the next one, never a mix.
type CoinCache struct {
	coins atomic.Pointer[coinSet]
}

type coinSet struct {
	bySymbol  map[string]domain.TickerSnapshot
	updatedAt time.Time
}

func NewCoinCache() *CoinCache {
	c := &CoinCache{}
	c.coins.Store(&coinSet{bySymbol: map[string]domain.TickerSnapshot{}})
	return c
}

// UpsertAll replaces the whole mapping with snapshots keyed by BaseAsset.
// Later entries win over earlier ones with the same base asset.
func (c *CoinCache) UpsertAll(snapshots []domain.TickerSnapshot) {
	next := make(map[string]domain.TickerSnapshot, len(snapshots))
	for _, snap := range snapshots {
		if snap.BaseAsset == "" {
			continue
		}
		next[snap.BaseAsset] = snap
	}
	c.coins.Store(&coinSet{bySymbol: next, updatedAt: time.Now()})
}

func (c *CoinCache) Get(baseAsset string) (domain.TickerSnapshot, bool) {
	snap, ok := c.coins.Load().bySymbol[baseAsset]
	return snap, ok
}

// All returns every cached snapshot in no particular order.
func (c *CoinCache) All() []domain.TickerSnapshot {
	set := c.coins.Load()
	out := make([]domain.TickerSnapshot, 0, len(set.bySymbol))
	for _, snap := range set.bySymbol {
		out = append(out, snap)
	}
	return out
}

func (c *CoinCache) Size() int {
	return len(c.coins.Load().bySymbol)
}

// UpdatedAt is the time of the last UpsertAll, zero before the first one.
func (c *CoinCache) UpdatedAt() time.Time {
	return c.coins.Load().updatedAt
}
