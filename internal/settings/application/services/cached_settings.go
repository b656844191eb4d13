package services

import (
	"context"
	"sync"
	"time"

	"github.com/domicare/rota/internal/settings/domain"
)

// cacheTTL is how long a loaded settings value is served before the
// repository is consulted again.
const cacheTTL = 60 * time.Second

// CachedSettings serves the settings singleton from an in-memory cache
// with a 60 second TTL. Writers call Invalidate so the next read sees
// the new values immediately. When no row has been written yet the
// defaults are returned.
type CachedSettings struct {
	repo domain.Repository
	now  func() time.Time

	mu        sync.RWMutex
	cached    *domain.SystemSettings
	fetchedAt time.Time
}

// NewCachedSettings creates a CachedSettings backed by the repository.
func NewCachedSettings(repo domain.Repository) *CachedSettings {
	return &CachedSettings{
		repo: repo,
		now:  time.Now,
	}
}

// Current returns the settings in force.
func (c *CachedSettings) Current(ctx context.Context) (*domain.SystemSettings, error) {
	c.mu.RLock()
	if c.cached != nil && c.now().Sub(c.fetchedAt) < cacheTTL {
		cached := c.cached
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another reader may have refreshed while we waited for the lock.
	if c.cached != nil && c.now().Sub(c.fetchedAt) < cacheTTL {
		return c.cached, nil
	}

	stored, err := c.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		stored = domain.DefaultSystemSettings()
	}

	c.cached = stored
	c.fetchedAt = c.now()

	return stored, nil
}

// Invalidate drops the cached value.
func (c *CachedSettings) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
}
