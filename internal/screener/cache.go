package screener

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/wonny/spreadscreener/internal/contracts"
	"github.com/wonny/spreadscreener/pkg/logger"
	"github.com/wonny/spreadscreener/pkg/redis"
)

// Cache keeps loaded chains, screened spreads and trades for the session.
// Chains are optionally mirrored into Redis so a restart can skip the fetch.
type Cache struct {
	mu      sync.RWMutex
	chains  map[string]contracts.OptionChain      // ticker -> chain
	spreads map[string]contracts.CallCreditSpread // upper-cased Key() -> spread
	order   []string                              // first-seen order of spreads
	trades  map[string]contracts.CallCreditSpreadTrade

	remote   *redis.Cache
	chainTTL time.Duration
	logger   *logger.Logger
}

// NewCache creates an empty in-memory cache
func NewCache(log *logger.Logger) *Cache {
	if log == nil {
		log = logger.Nop()
	}
	return &Cache{
		chains:  make(map[string]contracts.OptionChain),
		spreads: make(map[string]contracts.CallCreditSpread),
		trades:  make(map[string]contracts.CallCreditSpreadTrade),
		logger:  log.WithComponent("screener_cache"),
	}
}

// WithRedis mirrors chains into Redis with ttl
func (c *Cache) WithRedis(remote *redis.Cache, ttl time.Duration) *Cache {
	c.remote = remote
	c.chainTTL = ttl
	return c
}

// PutChain stores a loaded chain and returns the number of chains held
func (c *Cache) PutChain(ctx context.Context, expiration time.Time, chain contracts.OptionChain) int {
	ticker := strings.ToUpper(chain.Underlying.Ticker)

	c.mu.Lock()
	c.chains[ticker] = chain
	n := len(c.chains)
	c.mu.Unlock()

	if c.remote != nil {
		if err := c.remote.Set(ctx, redis.ChainKey(ticker, expiration), chain, c.chainTTL); err != nil {
			c.logger.WithError(err).WithTicker(ticker).Warn("Failed to mirror chain to redis")
		}
	}
	return n
}

// Chain returns the loaded chain for ticker
func (c *Cache) Chain(ticker string) (contracts.OptionChain, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	chain, ok := c.chains[strings.ToUpper(ticker)]
	return chain, ok
}

// RemoteChain looks a chain up in Redis only
func (c *Cache) RemoteChain(ctx context.Context, ticker string, expiration time.Time) (*contracts.OptionChain, bool) {
	if c.remote == nil {
		return nil, false
	}

	var chain contracts.OptionChain
	found, err := c.remote.Get(ctx, redis.ChainKey(ticker, expiration), &chain)
	if err != nil {
		c.logger.WithError(err).WithTicker(ticker).Warn("Redis chain lookup failed")
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &chain, true
}

// ClearChains drops all loaded chains
func (c *Cache) ClearChains() {
	c.mu.Lock()
	c.chains = make(map[string]contracts.OptionChain)
	c.mu.Unlock()
}

// AddSpreads stores screened spreads. A spread with the same key as a
// cached one replaces it, so a re-screen refreshes prices in place.
func (c *Cache) AddSpreads(spreads ...contracts.CallCreditSpread) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range spreads {
		key := strings.ToUpper(s.Key())
		if _, ok := c.spreads[key]; !ok {
			c.order = append(c.order, key)
		}
		c.spreads[key] = s
	}
}

// Spreads returns every cached spread in first-seen order
func (c *Cache) Spreads() []contracts.CallCreditSpread {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]contracts.CallCreditSpread, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.spreads[key])
	}
	return out
}

// FindSpreadByKey matches contracts.SpreadKey, ignoring case
func (c *Cache) FindSpreadByKey(key string) (contracts.CallCreditSpread, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.spreads[strings.ToUpper(key)]
	return s, ok
}

// ClearSpreads drops all cached spreads
func (c *Cache) ClearSpreads() {
	c.mu.Lock()
	c.spreads = make(map[string]contracts.CallCreditSpread)
	c.order = nil
	c.mu.Unlock()
}

// SetTrades replaces the cached trades
func (c *Cache) SetTrades(trades []contracts.CallCreditSpreadTrade) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trades = make(map[string]contracts.CallCreditSpreadTrade, len(trades))
	for _, t := range trades {
		c.trades[t.ID] = t
	}
}

// PutTrade stores or replaces one trade
func (c *Cache) PutTrade(trade contracts.CallCreditSpreadTrade) {
	c.mu.Lock()
	c.trades[trade.ID] = trade
	c.mu.Unlock()
}

// Trade returns a cached trade by id
func (c *Cache) Trade(id string) (contracts.CallCreditSpreadTrade, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.trades[id]
	return t, ok
}
