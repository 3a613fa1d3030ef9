package services

import (
	"context"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/patrickmn/go-cache"

	"github.com/youngmin9/vitalsync/internal/core/ports/driven"
	"github.com/youngmin9/vitalsync/internal/logger"
)

// ConnectedSources remembers which user/provider links are known to exist
// so the link check runs at most once per identity.
type ConnectedSources struct {
	cache *cache.Cache
}

// NewConnectedSources creates an empty, non-expiring cache.
func NewConnectedSources() *ConnectedSources {
	return &ConnectedSources{cache: cache.New(cache.NoExpiration, 0)}
}

func connectedSourceKey(userID, provider string) string {
	return userID + "|" + provider
}

// Ensure makes sure provider is linked to userID, creating the link if the
// backend does not list it.
func (c *ConnectedSources) Ensure(ctx context.Context, api driven.APIClient, userID, provider string) error {
	key := connectedSourceKey(userID, provider)
	if _, ok := c.cache.Get(key); ok {
		return nil
	}

	linked, err := api.ListConnectedSources(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "list connected sources")
	}
	if !slices.Contains(linked, provider) {
		logger.Info("creating connected source %s for user %s", provider, userID)
		if err := api.CreateConnectedSource(ctx, userID, provider); err != nil {
			return errors.Wrap(err, "create connected source")
		}
	}

	c.cache.Set(key, true, cache.NoExpiration)
	return nil
}

// Has reports whether the link is cached.
func (c *ConnectedSources) Has(userID, provider string) bool {
	_, ok := c.cache.Get(connectedSourceKey(userID, provider))
	return ok
}

// Len returns the number of cached links.
func (c *ConnectedSources) Len() int {
	return c.cache.ItemCount()
}

// Flush forgets every cached link.
func (c *ConnectedSources) Flush() {
	c.cache.Flush()
}
