// Package cache is a bounded LRU for calculation results. Concurrent
// misses for the same key share one computation.
package cache

import (
	"container/list"
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"
)

const DefaultCapacity = 256

var meter = otel.Meter("github.com/njchilds90/calcsteps/internal/cache")

var (
	hitCounter      metric.Int64Counter
	missCounter     metric.Int64Counter
	evictionCounter metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		if hitCounter, metricsErr = meter.Int64Counter("calcsteps_cache_hits_total",
			metric.WithDescription("Result cache hits")); metricsErr != nil {
			return
		}
		if missCounter, metricsErr = meter.Int64Counter("calcsteps_cache_misses_total",
			metric.WithDescription("Result cache misses")); metricsErr != nil {
			return
		}
		evictionCounter, metricsErr = meter.Int64Counter("calcsteps_cache_evictions_total",
			metric.WithDescription("Result cache evictions"))
	})
	return metricsErr
}

func record(ctx context.Context, c metric.Int64Counter, name string) {
	if initMetrics() != nil {
		return
	}
	c.Add(ctx, 1, metric.WithAttributes(attribute.String("cache", name)))
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Size      int    `json:"size"`
	Capacity  int    `json:"capacity"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

type entry[V any] struct {
	key   string
	value V
}

// LRU is safe for concurrent use.
type LRU[V any] struct {
	name     string
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List // front is most recent
	group    singleflight.Group

	hits, misses, evictions uint64
}

// New returns an LRU holding at most capacity entries. A non-positive
// capacity uses DefaultCapacity.
func New[V any](name string, capacity int) *LRU[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &LRU[V]{
		name:     name,
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

func (c *LRU[V]) Get(ctx context.Context, key string) (V, bool) {
	c.mu.Lock()
	el, ok := c.items[key]
	if ok {
		c.order.MoveToFront(el)
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()

	if !ok {
		record(ctx, missCounter, c.name)
		var zero V
		return zero, false
	}
	record(ctx, hitCounter, c.name)
	return el.Value.(*entry[V]).value, true
}

func (c *LRU[V]) Set(ctx context.Context, key string, value V) {
	c.mu.Lock()
	evicted := c.set(key, value)
	c.mu.Unlock()
	if evicted {
		record(ctx, evictionCounter, c.name)
	}
}

// set must be called with mu held. It reports whether an entry was evicted.
func (c *LRU[V]) set(key string, value V) bool {
	if el, ok := c.items[key]; ok {
		el.Value.(*entry[V]).value = value
		c.order.MoveToFront(el)
		return false
	}
	c.items[key] = c.order.PushFront(&entry[V]{key: key, value: value})
	if c.order.Len() <= c.capacity {
		return false
	}
	oldest := c.order.Back()
	c.order.Remove(oldest)
	delete(c.items, oldest.Value.(*entry[V]).key)
	c.evictions++
	return true
}

// GetOrCompute returns the cached value for key, or runs compute once for
// all concurrent callers and caches its value. Values for which keep
// returns false are returned but not stored.
func (c *LRU[V]) GetOrCompute(ctx context.Context, key string, compute func() V, keep func(V) bool) V {
	if v, ok := c.Get(ctx, key); ok {
		return v
	}
	out, _, _ := c.group.Do(key, func() (any, error) {
		v := compute()
		if keep == nil || keep(v) {
			c.Set(ctx, key, v)
		}
		return v, nil
	})
	return out.(V)
}

func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *LRU[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element, c.capacity)
	c.order.Init()
}

func (c *LRU[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Size:      c.order.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
