package markets

import (
	"sync"
)

// Lookup resolves markets from a read-only snapshot
type Lookup interface {
	GetByClobPairID(clobPairID string) (PerpetualMarket, bool)
}

// Cache is an in-memory snapshot of the perpetual market table keyed by clob
// pair id. Readers never observe a partially replaced snapshot.
type Cache struct {
	mu      sync.RWMutex
	markets map[string]PerpetualMarket
}

var _ Lookup = (*Cache)(nil)

func NewCache() *Cache {
	return &Cache{markets: make(map[string]PerpetualMarket)}
}

// GetByClobPairID reports false when the market has not been loaded
func (c *Cache) GetByClobPairID(clobPairID string) (PerpetualMarket, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	market, ok := c.markets[clobPairID]
	return market, ok
}

// Replace swaps the whole snapshot
func (c *Cache) Replace(all []PerpetualMarket) {
	next := make(map[string]PerpetualMarket, len(all))
	for _, market := range all {
		next[market.ClobPairID] = market
	}

	c.mu.Lock()
	c.markets = next
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.markets)
}
