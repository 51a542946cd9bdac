package geocode

import (
	"context"
	"errors"
	"fmt"

	"github.com/apex/log"
	"github.com/ukaji3/branchlang-go/pkg/branchlang/cache"
	"github.com/ukaji3/branchlang-go/pkg/branchlang/models"
)

// CountyFetcher resolves one postal code against the geocoding service.
type CountyFetcher interface {
	County(ctx context.Context, postalCode string) (string, error)
}

// Policy decides counties without asking the service.
type Policy struct {
	// Overrides maps postal codes to counties and wins over the cache and
	// the service.
	Overrides map[string]string
	// FallbackCounty replaces an empty county from the service. When empty,
	// a LookupError is returned instead.
	FallbackCounty string
}

// Source tells where a resolved county came from.
type Source int

const (
	SourceCache Source = iota
	SourceService
	SourceOverride
	SourceFallback
)

// ResolveStats counts resolutions by source.
type ResolveStats struct {
	Cached    int
	Fetched   int
	Overrides int
	Fallbacks int
}

// Resolver maps postal codes to counties, consulting overrides, then the
// cache, then the service.
type Resolver struct {
	fetcher CountyFetcher
	cache   *cache.Cache
	policy  Policy
	stats   ResolveStats
}

// NewResolver returns a Resolver. Cache entries are written only for
// counties the service actually returned.
func NewResolver(fetcher CountyFetcher, c *cache.Cache, policy Policy) *Resolver {
	return &Resolver{fetcher: fetcher, cache: c, policy: policy}
}

// Resolve returns the county for postalCode and where it came from.
func (r *Resolver) Resolve(ctx context.Context, postalCode string) (string, Source, error) {
	if county, ok := r.policy.Overrides[postalCode]; ok {
		r.stats.Overrides++
		return county, SourceOverride, nil
	}

	fetched := false
	county, err := r.cache.GetOrFetch(ctx, postalCode, func(ctx context.Context, key string) (string, error) {
		fetched = true
		return r.fetcher.County(ctx, key)
	})

	var lookupErr *LookupError
	switch {
	case err == nil && fetched:
		r.stats.Fetched++
		return county, SourceService, nil
	case err == nil:
		r.stats.Cached++
		return county, SourceCache, nil
	case errors.As(err, &lookupErr) && r.policy.FallbackCounty != "":
		r.stats.Fallbacks++
		log.WithFields(log.Fields{
			"postal_code": postalCode,
			"fallback":    r.policy.FallbackCounty,
		}).Warn("no county returned, using fallback")
		return r.policy.FallbackCounty, SourceFallback, nil
	default:
		return "", 0, err
	}
}

// ResolveAll resolves every row in order and fills in County. The first
// failure aborts with the offending row in the error; rows are not
// partially resolved.
func (r *Resolver) ResolveAll(ctx context.Context, rows []models.BranchRow) ([]string, error) {
	counties := make([]string, len(rows))
	for i, row := range rows {
		county, _, err := r.Resolve(ctx, row.PostalCode)
		if err != nil {
			return nil, fmt.Errorf("row %d (%q): %w", row.R, row.Address, err)
		}
		counties[i] = county
	}

	for i := range rows {
		rows[i].County = counties[i]
	}
	return counties, nil
}

// Stats returns resolution counts since the Resolver was created.
func (r *Resolver) Stats() ResolveStats {
	return r.stats
}
