// Package netcache memoizes resolved RelationshipSets per person.
//
// Entries never expire; they are dropped only by Invalidate or Clear.
// Concurrent misses for the same person share one resolution, and a set is
// visible to readers only once it is complete. Failed resolutions are never
// stored.
package netcache

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/DrSkyle/kinship/pkg/resolver"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

// Resolver produces the RelationshipSet for a person.
type Resolver interface {
	Resolve(ctx context.Context, id person.ID) (*resolver.RelationshipSet, error)
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Entries     int   `json:"entries"`
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Resolutions int64 `json:"resolutions"`
	Errors      int64 `json:"errors"`
}

// Cache is safe for concurrent use.
type Cache struct {
	resolver Resolver

	mu      sync.RWMutex
	entries map[person.ID]*resolver.RelationshipSet
	// epoch advances on Clear and gens[id] on Invalidate(id). A resolution
	// that started before either moved is returned to its callers but not
	// published.
	epoch uint64
	gens  map[person.ID]uint64

	flight singleflight.Group

	hits        atomic.Int64
	misses      atomic.Int64
	resolutions atomic.Int64
	errors      atomic.Int64
}

func New(r Resolver) *Cache {
	return &Cache{
		resolver: r,
		entries:  make(map[person.ID]*resolver.RelationshipSet),
		gens:     make(map[person.ID]uint64),
	}
}

// Get returns the cached set for id, resolving it on a miss. The returned set
// is shared and must not be modified.
func (c *Cache) Get(ctx context.Context, id person.ID) (*resolver.RelationshipSet, error) {
	if set, ok := c.Peek(id); ok {
		c.hits.Add(1)
		recordHit(ctx)
		return set, nil
	}
	c.misses.Add(1)
	recordMiss(ctx)

	ch := c.flight.DoChan(strconv.FormatInt(int64(id), 10), func() (interface{}, error) {
		// Resolution outlives any single waiter so late joiners still get a result.
		return c.resolve(context.WithoutCancel(ctx), id)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*resolver.RelationshipSet), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) resolve(ctx context.Context, id person.ID) (*resolver.RelationshipSet, error) {
	// Another flight may have published between Peek and DoChan.
	if set, ok := c.Peek(id); ok {
		return set, nil
	}

	c.mu.RLock()
	epoch, gen := c.epoch, c.gens[id]
	c.mu.RUnlock()

	ctx, span := startResolveSpan(ctx, int64(id))
	defer span.End()

	c.resolutions.Add(1)
	set, err := c.resolver.Resolve(ctx, id)
	recordResolution(ctx, err)
	if err != nil {
		c.errors.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolution failed")
		return nil, err
	}

	c.mu.Lock()
	if c.epoch == epoch && c.gens[id] == gen {
		c.entries[id] = set
	}
	c.mu.Unlock()
	return set, nil
}

// Peek returns the cached set for id without resolving.
func (c *Cache) Peek(id person.ID) (*resolver.RelationshipSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	set, ok := c.entries[id]
	return set, ok
}

// Invalidate drops the entry for id.
func (c *Cache) Invalidate(id person.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.gens[id]++
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[person.ID]*resolver.RelationshipSet)
	c.gens = make(map[person.ID]uint64)
	c.epoch++
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Stats() Stats {
	return Stats{
		Entries:     c.Len(),
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Resolutions: c.resolutions.Load(),
		Errors:      c.errors.Load(),
	}
}
