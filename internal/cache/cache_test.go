package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(ttl map[string]time.Duration) *Cache {
	return New(Config{Enabled: true, TTL: ttl})
}

func countingLoader(value any) (func(context.Context) (any, error), *atomic.Int64) {
	var calls atomic.Int64
	return func(context.Context) (any, error) {
		calls.Add(1)
		return value, nil
	}, &calls
}

func TestGetOrLoadHitBeforeTTLInvokesLoaderOnce(t *testing.T) {
	c := newTestCache(map[string]time.Duration{"repos": time.Minute})
	desc := Descriptor{Namespace: "repos", Owner: "acme", Repo: "api", Identifier: "details"}
	loader, calls := countingLoader("v1")

	for i := 0; i < 3; i++ {
		got, err := c.GetOrLoad(context.Background(), desc, loader)
		require.NoError(t, err)
		assert.Equal(t, "v1", got)
	}
	assert.Equal(t, int64(1), calls.Load())
}

func TestGetOrLoadExpiryReloads(t *testing.T) {
	c := newTestCache(map[string]time.Duration{"repos": time.Minute})
	now := time.Now()
	c.now = func() time.Time { return now }

	desc := Descriptor{Namespace: "repos", Owner: "acme", Repo: "api", Identifier: "details"}
	loader, calls := countingLoader("v1")

	_, err := c.GetOrLoad(context.Background(), desc, loader)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = c.GetOrLoad(context.Background(), desc, loader)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestInvalidateNamespaceForcesReload(t *testing.T) {
	c := newTestCache(map[string]time.Duration{"protection": time.Hour})
	desc := Descriptor{Namespace: "protection", Owner: "acme", Repo: "api", Identifier: "main"}
	loader, calls := countingLoader("v1")

	_, err := c.GetOrLoad(context.Background(), desc, loader)
	require.NoError(t, err)

	c.InvalidateNamespace("protection", "acme", "api")

	_, err = c.GetOrLoad(context.Background(), desc, loader)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestInvalidateNamespaceScoping(t *testing.T) {
	c := newTestCache(map[string]time.Duration{"repos": time.Hour})
	ctx := context.Background()

	descA := Descriptor{Namespace: "repos", Owner: "acme", Repo: "api", Identifier: "details"}
	descB := Descriptor{Namespace: "repos", Owner: "acme", Repo: "web", Identifier: "details"}
	loadA, callsA := countingLoader("a")
	loadB, callsB := countingLoader("b")

	_, _ = c.GetOrLoad(ctx, descA, loadA)
	_, _ = c.GetOrLoad(ctx, descB, loadB)

	// Repo-scoped invalidation must not touch sibling repos.
	c.InvalidateNamespace("repos", "acme", "api")
	_, _ = c.GetOrLoad(ctx, descA, loadA)
	_, _ = c.GetOrLoad(ctx, descB, loadB)
	assert.Equal(t, int64(2), callsA.Load())
	assert.Equal(t, int64(1), callsB.Load())

	// Owner-scoped invalidation clears everything under the owner.
	c.InvalidateNamespace("repos", "acme", "")
	_, _ = c.GetOrLoad(ctx, descA, loadA)
	_, _ = c.GetOrLoad(ctx, descB, loadB)
	assert.Equal(t, int64(3), callsA.Load())
	assert.Equal(t, int64(2), callsB.Load())
}

func TestDisabledCacheIsPassthrough(t *testing.T) {
	c := New(Config{Enabled: false, TTL: map[string]time.Duration{"repos": time.Hour}})
	desc := Descriptor{Namespace: "repos", Owner: "acme", Repo: "api", Identifier: "details"}
	loader, calls := countingLoader("v")

	for i := 0; i < 3; i++ {
		_, err := c.GetOrLoad(context.Background(), desc, loader)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), calls.Load())
}

func TestNamespaceWithoutTTLIsNotCached(t *testing.T) {
	c := newTestCache(map[string]time.Duration{"repos": time.Hour})
	desc := Descriptor{Namespace: "teams", Owner: "acme", Repo: "api", Identifier: "list"}
	loader, calls := countingLoader("v")

	for i := 0; i < 2; i++ {
		_, err := c.GetOrLoad(context.Background(), desc, loader)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(2), calls.Load())
}

func TestLoaderErrorNotCached(t *testing.T) {
	c := newTestCache(map[string]time.Duration{"repos": time.Hour})
	desc := Descriptor{Namespace: "repos", Owner: "acme", Repo: "api", Identifier: "details"}

	var calls atomic.Int64
	loader := func(context.Context) (any, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("boom")
		}
		return "ok", nil
	}

	_, err := c.GetOrLoad(context.Background(), desc, loader)
	require.Error(t, err)

	got, err := c.GetOrLoad(context.Background(), desc, loader)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestParamsArePartOfTheKey(t *testing.T) {
	c := newTestCache(map[string]time.Duration{"collaborators": time.Hour})
	ctx := context.Background()

	direct := Descriptor{Namespace: "collaborators", Owner: "acme", Repo: "api", Identifier: "list", Params: map[string]string{"affiliation": "direct"}}
	all := Descriptor{Namespace: "collaborators", Owner: "acme", Repo: "api", Identifier: "list", Params: map[string]string{"affiliation": "all"}}
	loader, calls := countingLoader("v")

	_, _ = c.GetOrLoad(ctx, direct, loader)
	_, _ = c.GetOrLoad(ctx, all, loader)
	assert.Equal(t, int64(2), calls.Load())

	// Same params again: both are live hits.
	_, _ = c.GetOrLoad(ctx, direct, loader)
	_, _ = c.GetOrLoad(ctx, all, loader)
	assert.Equal(t, int64(2), calls.Load())
}

func TestSelfOwnerSentinel(t *testing.T) {
	c := newTestCache(map[string]time.Duration{"repos": time.Hour})
	ctx := context.Background()

	unowned := Descriptor{Namespace: "repos", Repo: "api", Identifier: "details"}
	loader, calls := countingLoader("v")

	_, _ = c.GetOrLoad(ctx, unowned, loader)

	// Invalidating an org owner must not clear the self-scoped entry.
	c.InvalidateNamespace("repos", "acme", "")
	_, _ = c.GetOrLoad(ctx, unowned, loader)
	assert.Equal(t, int64(1), calls.Load())

	c.InvalidateNamespace("repos", "", "")
	_, _ = c.GetOrLoad(ctx, unowned, loader)
	assert.Equal(t, int64(2), calls.Load())
}

func TestConcurrentIndependentKeys(t *testing.T) {
	c := newTestCache(map[string]time.Duration{"repos": time.Hour})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			desc := Descriptor{Namespace: "repos", Owner: "acme", Repo: string(rune('a' + i)), Identifier: "details"}
			got, err := c.GetOrLoad(ctx, desc, func(context.Context) (any, error) { return i, nil })
			assert.NoError(t, err)
			assert.Equal(t, i, got)
		}(i)
	}
	wg.Wait()
}
