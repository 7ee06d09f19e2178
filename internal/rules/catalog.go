// File: internal/rules/catalog.go
// Description: Lazily-populated lookup of the service's rule catalog. The
// original client fetched rule descriptions into module-level state at page
// load; here the table is an explicitly owned value handed to the normalizer,
// so normalization stays independent of initialization order.

package rules

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/bidlens/bidlens-cli/api/schemas"
	"github.com/bidlens/bidlens-cli/internal/normalize"
)

// Source lists the service's rule catalog.
type Source interface {
	Rules(ctx context.Context) ([]schemas.Rule, error)
}

// Catalog caches the rule lookup after its first successful fetch.
// Concurrent first calls share a single request via singleflight. A failed
// fetch degrades to an empty lookup for that caller and is retried on the
// next call; catalog data only enriches hits, so its absence is never fatal.
type Catalog struct {
	src    Source
	logger *zap.Logger

	group singleflight.Group

	mu     sync.RWMutex
	lookup normalize.Lookup
}

// NewCatalog wraps a rule source.
func NewCatalog(src Source, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{src: src, logger: logger}
}

// Lookup returns the cached lookup table, fetching it on first use.
func (c *Catalog) Lookup(ctx context.Context) normalize.Lookup {
	c.mu.RLock()
	cached := c.lookup
	c.mu.RUnlock()
	if cached != nil {
		return cached
	}

	v, err, _ := c.group.Do("catalog", func() (any, error) {
		ruleList, err := c.src.Rules(ctx)
		if err != nil {
			return nil, err
		}
		lookup := make(normalize.Lookup, len(ruleList))
		for _, r := range ruleList {
			lookup[r.ID] = normalize.RuleInfo{
				Category:    r.Category,
				Description: r.Description,
				Advice:      r.Advice,
			}
		}
		c.mu.Lock()
		c.lookup = lookup
		c.mu.Unlock()
		return lookup, nil
	})
	if err != nil {
		c.logger.Warn("rule catalog fetch failed; continuing without enrichment", zap.Error(err))
		return normalize.Lookup{}
	}
	return v.(normalize.Lookup)
}
