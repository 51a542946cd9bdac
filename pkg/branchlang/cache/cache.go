// Package cache persists resolved postal code → county lookups so repeat
// runs skip the geocoding service.
package cache

import (
	"context"
	"fmt"
	"sort"

	"github.com/apex/log"
)

// LoadStatus describes what a Store found when loading.
type LoadStatus int

const (
	// StatusLoaded means the stored mapping was read and decoded.
	StatusLoaded LoadStatus = iota
	// StatusAbsent means nothing has been stored yet.
	StatusAbsent
	// StatusCorrupt means stored data exists but could not be decoded.
	StatusCorrupt
)

func (s LoadStatus) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusAbsent:
		return "absent"
	case StatusCorrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("LoadStatus(%d)", int(s))
	}
}

// Store loads and saves the complete mapping. Save always replaces the
// whole mapping; there are no partial writes.
type Store interface {
	Load(ctx context.Context) (map[string]string, LoadStatus, error)
	Save(ctx context.Context, entries map[string]string) error
}

// FetchFunc resolves a value for key on a cache miss.
type FetchFunc func(ctx context.Context, key string) (string, error)

// Stats counts cache traffic since the Cache was opened.
type Stats struct {
	Hits   int
	Misses int
}

// Cache is an in-memory view of a Store that writes through on every miss.
// It is not safe for concurrent use.
type Cache struct {
	store   Store
	entries map[string]string
	stats   Stats
}

// Open loads the store. An absent or corrupt store yields an empty cache;
// the two cases are logged differently. Only store access failures (for
// example an unreachable Redis) are returned.
func Open(ctx context.Context, store Store) (*Cache, error) {
	entries, status, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading cache: %w", err)
	}

	switch status {
	case StatusAbsent:
		log.Info("no cache found, starting empty")
	case StatusCorrupt:
		log.Warn("cache could not be decoded, starting empty")
	default:
		log.WithField("entries", len(entries)).Debug("cache loaded")
	}

	if entries == nil || status != StatusLoaded {
		entries = make(map[string]string)
	}

	return &Cache{store: store, entries: entries}, nil
}

// Get returns the cached value for key.
func (c *Cache) Get(key string) (string, bool) {
	v, ok := c.entries[key]
	return v, ok
}

// GetOrFetch returns the cached value for key, or calls fetch, stores its
// result, and persists the full mapping before returning. A fetch error is
// returned as is and nothing is stored.
func (c *Cache) GetOrFetch(ctx context.Context, key string, fetch FetchFunc) (string, error) {
	if v, ok := c.entries[key]; ok {
		c.stats.Hits++
		log.WithField("key", key).Debug("using cache")
		return v, nil
	}

	c.stats.Misses++
	log.WithField("key", key).Debug("fetching")

	v, err := fetch(ctx, key)
	if err != nil {
		return "", err
	}

	c.entries[key] = v
	if err := c.store.Save(ctx, c.entries); err != nil {
		return "", fmt.Errorf("saving cache after %q: %w", key, err)
	}

	return v, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() Stats {
	return c.stats
}

// Entry is a single cached key/value pair.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Entries returns all entries sorted by key.
func (c *Cache) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for k, v := range c.entries {
		out = append(out, Entry{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
