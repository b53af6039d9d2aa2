package provider

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Default rate limits per provider (requests per second).
var defaultRateLimits = map[ProviderName]rate.Limit{
	NameMusicBrainz: 1,
	NameCoverArt:    5,
	NameDiscogs:     1,
	NameWikipedia:   10,
}

// RateLimiterMap holds one rate.Limiter per provider, created once at startup
// and shared by every worker of the fetch pool.
type RateLimiterMap struct {
	mu       sync.RWMutex
	limiters map[ProviderName]*rate.Limiter
}

// NewRateLimiterMap creates all provider rate limiters.
func NewRateLimiterMap() *RateLimiterMap {
	m := &RateLimiterMap{
		limiters: make(map[ProviderName]*rate.Limiter, len(defaultRateLimits)),
	}
	for name, limit := range defaultRateLimits {
		m.limiters[name] = rate.NewLimiter(limit, 1)
	}
	return m
}

// NewUnlimitedRateLimiterMap returns a map whose limiters never block.
// Test servers and recorded fixtures use it.
func NewUnlimitedRateLimiterMap() *RateLimiterMap {
	m := &RateLimiterMap{limiters: make(map[ProviderName]*rate.Limiter)}
	for name := range defaultRateLimits {
		m.limiters[name] = rate.NewLimiter(rate.Inf, 1)
	}
	return m
}

// SetLimit changes the limit for one provider, e.g. when an authenticated
// Discogs token raises the allowance.
func (m *RateLimiterMap) SetLimit(name ProviderName, limit rate.Limit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.limiters[name]; ok {
		l.SetLimit(limit)
		return
	}
	m.limiters[name] = rate.NewLimiter(limit, 1)
}

// Wait blocks until the rate limiter for the given provider allows a request,
// or the context is canceled.
func (m *RateLimiterMap) Wait(ctx context.Context, name ProviderName) error {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}
