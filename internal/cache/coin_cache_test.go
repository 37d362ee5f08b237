package cache

import (
	"sync"
	"testing"

	"coin-pulse/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(base string) domain.TickerSnapshot {
	return domain.TickerSnapshot{Symbol: base + "USDT", BaseAsset: base, LastPrice: "1"}
}

func TestCoinCacheStartsEmpty(t *testing.T) {
	c := NewCoinCache()
	assert.Equal(t, 0, c.Size())
	assert.Empty(t, c.All())
	assert.True(t, c.UpdatedAt().IsZero())
	_, ok := c.Get("BTC")
	assert.False(t, ok)
}

func TestCoinCacheUpsertAllReplacesInsteadOfMerging(t *testing.T) {
	c := NewCoinCache()
	c.UpsertAll([]domain.TickerSnapshot{snap("A"), snap("B")})
	c.UpsertAll([]domain.TickerSnapshot{snap("B"), snap("C")})

	_, ok := c.Get("A")
	assert.False(t, ok, "A should be dropped by the second refresh")
	_, ok = c.Get("B")
	assert.True(t, ok)
	_, ok = c.Get("C")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
	assert.False(t, c.UpdatedAt().IsZero())
}

func TestCoinCacheKeysMatchBaseAsset(t *testing.T) {
	c := NewCoinCache()
	first := snap("ETH")
	second := snap("ETH")
	second.LastPrice = "2"
	c.UpsertAll([]domain.TickerSnapshot{first, second, {Symbol: "USDT"}})

	require.Equal(t, 1, c.Size())
	got, ok := c.Get("ETH")
	require.True(t, ok)
	assert.Equal(t, "2", got.LastPrice, "last write wins")
	for _, s := range c.All() {
		v, ok := c.Get(s.BaseAsset)
		require.True(t, ok)
		assert.Equal(t, s, v)
	}
}

func TestCoinCacheReadersSeeWholeRefreshes(t *testing.T) {
	c := NewCoinCache()
	oldSet := []domain.TickerSnapshot{snap("A"), snap("B"), snap("C")}
	newSet := []domain.TickerSnapshot{snap("X"), snap("Y"), snap("Z")}
	c.UpsertAll(oldSet)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if i%2 == 0 {
				c.UpsertAll(newSet)
			} else {
				c.UpsertAll(oldSet)
			}
		}
		close(stop)
	}()

	for reader := 0; reader < 4; reader++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				all := c.All()
				if len(all) != 3 {
					t.Errorf("expected 3 coins, got %d", len(all))
					return
				}
				oldCount := 0
				for _, s := range all {
					switch s.BaseAsset {
					case "A", "B", "C":
						oldCount++
					}
				}
				if oldCount != 0 && oldCount != 3 {
					t.Errorf("observed a torn refresh: %+v", all)
					return
				}
			}
		}()
	}
	wg.Wait()
}
