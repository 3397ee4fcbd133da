// README: Route catalog service; caches the active-route snapshot used by matching.
package route

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"routecab/internal/types"
)

const activeRoutesKey = "routes:active"

type Catalog struct {
	repo  Repository
	cache *cache.Cache
}

// NewCatalog builds a catalog whose active-route snapshot lives for ttl.
// A ttl <= 0 disables caching.
func NewCatalog(repo Repository, ttl time.Duration) *Catalog {
	c := &Catalog{repo: repo}
	if ttl > 0 {
		c.cache = cache.New(ttl, 2*ttl)
	}
	return c
}

// ActiveRoutes returns the active routes. Callers must not mutate the result.
func (c *Catalog) ActiveRoutes(ctx context.Context) ([]*Route, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(activeRoutesKey); ok {
			return v.([]*Route), nil
		}
	}
	routes, err := c.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.SetDefault(activeRoutesKey, routes)
	}
	return routes, nil
}

func (c *Catalog) Get(ctx context.Context, id types.ID) (*Route, error) {
	return c.repo.Get(ctx, id)
}

// Save validates and persists the route, then drops the cached snapshot.
func (c *Catalog) Save(ctx context.Context, r *Route) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if err := c.repo.Save(ctx, r); err != nil {
		return err
	}
	if c.cache != nil {
		c.cache.Delete(activeRoutesKey)
	}
	return nil
}

// IsBefore reports whether stop a precedes stop b on the given route.
func (c *Catalog) IsBefore(ctx context.Context, routeID, a, b types.ID) (bool, error) {
	r, err := c.repo.Get(ctx, routeID)
	if err != nil {
		return false, err
	}
	return r.IsBefore(a, b)
}

// NearbyRoutes returns active routes with a stop within maxKm of p.
func (c *Catalog) NearbyRoutes(ctx context.Context, p types.Point, maxKm float64) ([]*Route, error) {
	routes, err := c.ActiveRoutes(ctx)
	if err != nil {
		return nil, err
	}
	var out []*Route
	for _, r := range routes {
		if _, _, ok := r.NearestStop(p, maxKm, ""); ok {
			out = append(out, r)
		}
	}
	return out, nil
}
