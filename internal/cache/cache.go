// Package cache implements the namespace/TTL-scoped read-through cache that
// sits beneath the forge client. Entries are created on miss, refreshed on
// invalidation, and expired by TTL.
package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// SelfOwner is the sentinel owner used when no organization context is set,
// so per-user entries never collide with per-org entries.
const SelfOwner = "@self"

// Descriptor identifies one cacheable forge read. Params take part in the
// key so differently-parameterized reads of the same resource do not alias.
type Descriptor struct {
	Namespace  string
	Owner      string
	Repo       string
	Identifier string
	Params     map[string]string
}

const keySep = "\x00"

func (d Descriptor) owner() string {
	if d.Owner == "" {
		return SelfOwner
	}
	return strings.ToLower(d.Owner)
}

// key must be deterministic: params are serialized with sorted keys.
func (d Descriptor) key() string {
	return d.Namespace + keySep + d.owner() + keySep + strings.ToLower(d.Repo) + keySep + d.Identifier + keySep + stableParamsKey(d.Params)
}

func stableParamsKey(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, "&")
}

// Config controls cache behavior. TTL is per namespace; a namespace with no
// TTL entry is never cached. Enabled=false turns every GetOrLoad into a
// transparent passthrough.
type Config struct {
	Enabled bool
	TTL     map[string]time.Duration
}

type entry struct {
	value   any
	expires time.Time
}

type Cache struct {
	enabled bool
	ttl     map[string]time.Duration

	mu      sync.RWMutex
	entries map[string]entry

	group singleflight.Group

	// now is a test seam for TTL expiry.
	now func() time.Time
}

func New(cfg Config) *Cache {
	return &Cache{
		enabled: cfg.Enabled,
		ttl:     cfg.TTL,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// GetOrLoad returns the cached value for desc when a live entry exists;
// otherwise it invokes loader, stores the result with the namespace's TTL,
// and returns it. Concurrent loads for the same key are de-duplicated via
// singleflight; loads for distinct keys proceed independently.
func (c *Cache) GetOrLoad(ctx context.Context, desc Descriptor, loader func(context.Context) (any, error)) (any, error) {
	if c == nil || !c.enabled {
		return loader(ctx)
	}
	ttl, ok := c.ttl[desc.Namespace]
	if !ok || ttl <= 0 {
		return loader(ctx)
	}

	key := desc.key()

	if val, ok := c.lookup(key); ok {
		return val, nil
	}

	val, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: a concurrent caller may have filled it.
		if val, ok := c.lookup(key); ok {
			return val, nil
		}
		val, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		c.store(key, val, ttl)
		return val, nil
	})
	return val, err
}

// InvalidateNamespace removes every entry under (namespace, owner[, repo]).
// Mutating forge calls invoke this right after the mutation succeeds so the
// re-check after a fix observes fresh state.
func (c *Cache) InvalidateNamespace(namespace, owner, repo string) {
	if c == nil || !c.enabled {
		return
	}

	prefix := Descriptor{Namespace: namespace, Owner: owner}.prefix(repo)

	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

func (d Descriptor) prefix(repo string) string {
	p := d.Namespace + keySep + d.owner() + keySep
	if repo != "" {
		p += strings.ToLower(repo) + keySep
	}
	return p
}

func (c *Cache) lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expires) {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) store(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expires: c.now().Add(ttl)}
}
