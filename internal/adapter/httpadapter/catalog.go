package httpadapter

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/couchcryptid/nxny-map-etl/internal/domain"
	"github.com/couchcryptid/nxny-map-etl/internal/observability"
)

// Catalog holds the resolver currently served. It is swapped whole on reload
// so in-flight lookups keep the map they started with.
type Catalog struct {
	resolver atomic.Pointer[domain.Resolver]
	metrics  *observability.Metrics
}

func NewCatalog(metrics *observability.Metrics) *Catalog {
	return &Catalog{metrics: metrics}
}

// Replace installs a resolver over m.
func (c *Catalog) Replace(m *domain.RegionMap) {
	c.resolver.Store(domain.NewResolver(m))
	c.metrics.RegionsLoaded.Set(float64(m.Len()))
}

// Resolver returns the current resolver, or nil before the first Replace.
func (c *Catalog) Resolver() *domain.Resolver {
	return c.resolver.Load()
}

// CheckReadiness returns nil once a map with at least one region is loaded.
func (c *Catalog) CheckReadiness(_ context.Context) error {
	r := c.resolver.Load()
	if r == nil {
		return errors.New("region map not loaded")
	}
	if r.Len() == 0 {
		return errors.New("region map is empty")
	}
	return nil
}
