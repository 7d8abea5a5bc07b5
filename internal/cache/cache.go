// Package cache is the query cache shared by every read in the service. Reads
// are keyed by (entity, params); concurrent reads of one key share a single
// backend call, and mutations invalidate whole entities.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Key identifies a cached query result.
type Key struct {
	Entity string
	Params string
}

// NewKey builds a key from an entity name and the query parameters.
func NewKey(entity string, params ...any) Key {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprint(p)
	}
	return Key{Entity: entity, Params: strings.Join(parts, "|")}
}

func (k Key) String() string {
	return k.Entity + ":" + k.Params
}

type Options struct {
	// StaleTime is how long a cached value of entity stays fresh.
	StaleTime func(entity string) time.Duration
	// ReadRetries is how many times a failed read is retried before the error
	// is returned.
	ReadRetries int
	Now         func() time.Time
}

type entry struct {
	value     any
	fetchedAt time.Time
	gen       uint64
}

// Client caches query results. It is safe for concurrent use.
type Client struct {
	opts  Options
	log   zerolog.Logger
	group singleflight.Group

	mu      sync.Mutex
	entries map[Key]*entry
	gens    map[string]uint64
}

func New(opts Options, log zerolog.Logger) *Client {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.StaleTime == nil {
		opts.StaleTime = func(string) time.Duration { return 0 }
	}
	if opts.ReadRetries < 0 {
		opts.ReadRetries = 0
	}
	return &Client{
		opts:    opts,
		log:     log.With().Str("component", "cache").Logger(),
		entries: make(map[Key]*entry),
		gens:    make(map[string]uint64),
	}
}

// lookup returns a fresh cached value, and the entity generation observed.
func (c *Client) lookup(key Key) (any, bool, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.gens[key.Entity]
	e := c.entries[key]
	if e == nil || e.gen != gen {
		return nil, false, gen
	}
	if c.opts.Now().Sub(e.fetchedAt) >= c.opts.StaleTime(key.Entity) {
		return nil, false, gen
	}
	return e.value, true, gen
}

// store keeps v unless the entity was invalidated after the fetch began.
func (c *Client) store(key Key, v any, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[key.Entity] != gen {
		return
	}
	c.entries[key] = &entry{value: v, fetchedAt: c.opts.Now(), gen: gen}
}

func (c *Client) fetchWithRetry(ctx context.Context, key Key, fetch func(context.Context) (any, error)) (any, error) {
	var lastErr error
	for attempt := 0; attempt <= c.opts.ReadRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := fetch(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		c.log.Warn().Err(err).Str("key", key.String()).Int("attempt", attempt+1).Msg("query failed")
	}
	return nil, lastErr
}

// Get returns the cached value of key, calling fetch when it is missing or
// stale. Callers asking for the same key and generation share one fetch.
func (c *Client) Get(ctx context.Context, key Key, fetch func(context.Context) (any, error)) (any, error) {
	v, ok, gen := c.lookup(key)
	if ok {
		return v, nil
	}
	flight := fmt.Sprintf("%s#%d", key, gen)
	// The shared fetch must outlive any single caller giving up.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flight, func() (any, error) {
		v, err := c.fetchWithRetry(shared, key, fetch)
		if err != nil {
			return nil, err
		}
		c.store(key, v, gen)
		return v, nil
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate marks every key of the given entities stale. Fetches already in
// flight for those entities will not be cached as fresh.
func (c *Client) Invalidate(entities ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range entities {
		c.gens[e]++
		for k := range c.entries {
			if k.Entity == e {
				delete(c.entries, k)
			}
		}
	}
	c.log.Debug().Strs("entities", entities).Msg("invalidated")
}

// Len is the number of cached entries.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Refresh refetches key now and stores the result as fresh, unless the entity
// is invalidated while the fetch runs.
func (c *Client) Refresh(ctx context.Context, key Key, fetch func(context.Context) (any, error)) error {
	_, _, gen := c.lookup(key)
	v, err := c.fetchWithRetry(ctx, key, fetch)
	if err != nil {
		return err
	}
	c.store(key, v, gen)
	return nil
}

// Poll refetches key every interval until ctx is done, keeping it warm for
// readers. It blocks; run it in its own goroutine.
func (c *Client) Poll(ctx context.Context, key Key, interval time.Duration, fetch func(context.Context) (any, error)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx, key, fetch); err != nil {
				c.log.Error().Err(err).Str("key", key.String()).Msg("poll refresh failed")
			}
		}
	}
}

// Fetch is the typed form of Client.Get.
func Fetch[T any](ctx context.Context, c *Client, key Key, fn func(context.Context) (T, error)) (T, error) {
	v, err := c.Get(ctx, key, func(ctx context.Context) (any, error) {
		t, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return t, nil
	})
	var zero T
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache: %s holds %T", key, v)
	}
	return t, nil
}
