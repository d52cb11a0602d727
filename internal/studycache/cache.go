package studycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/at-ishikawa/studyset/internal/inference"
	"golang.org/x/sync/singleflight"
)

// DefaultNamespace prefixes every key of free-tier generations.
const DefaultNamespace = "studyset_free_cache"

// ErrVariantRequiresPro is returned for free-tier requests asking for a different set than the cached one.
var ErrVariantRequiresPro = errors.New("generating a different study set requires the pro tier")

// GenerateFunc produces a fresh study set, typically through the resilience executor.
type GenerateFunc func(ctx context.Context) (inference.GenerationResult, error)

// Cache memoizes free-tier study-set generation. Pro-tier calls bypass it entirely.
type Cache struct {
	store     Store
	namespace string
	logger    *slog.Logger
	group     *singleflight.Group
}

type Option func(*Cache)

func WithNamespace(namespace string) Option {
	return func(c *Cache) {
		if namespace != "" {
			c.namespace = namespace
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithCoalescing makes concurrent misses for the same key in this process share one generation.
func WithCoalescing() Option {
	return func(c *Cache) {
		c.group = &singleflight.Group{}
	}
}

func New(store Store, options ...Option) *Cache {
	cache := &Cache{
		store:     store,
		namespace: DefaultNamespace,
		logger:    slog.Default(),
	}
	for _, option := range options {
		option(cache)
	}
	return cache
}

// Key returns the key request is stored under.
func (c *Cache) Key(request inference.GenerationRequest) string {
	return Key(c.namespace, request)
}

// GetOrGenerate returns the cached study set for a free-tier request or generates and stores it.
// Failures of generate are returned unchanged and never cached.
//
// A free-tier request with Variant set is rejected with ErrVariantRequiresPro instead of being
// generated uncached: the cache is the free-tier quota, and a variant would step around it.
//
// With coalescing, the shared generation is detached from the cancellation of whichever caller
// started it. Each caller still stops waiting when its own ctx is done.
func (c *Cache) GetOrGenerate(
	ctx context.Context,
	request inference.GenerationRequest,
	tier Tier,
	generate GenerateFunc,
) (inference.GenerationResult, error) {
	if tier == TierPro {
		return generate(ctx)
	}
	if request.Variant {
		return inference.GenerationResult{}, ErrVariantRequiresPro
	}

	key := c.Key(request)
	if result, ok := c.lookup(ctx, key); ok {
		return result, nil
	}

	if c.group == nil {
		return c.generateAndStore(ctx, key, generate)
	}
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.generateAndStore(detached, key, generate)
	})
	select {
	case <-ctx.Done():
		return inference.GenerationResult{}, fmt.Errorf("studycache.GetOrGenerate > %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return inference.GenerationResult{}, res.Err
		}
		if res.Shared {
			c.logger.Debug("study set generation shared with a concurrent miss", "key", key)
		}
		return res.Val.(inference.GenerationResult), nil
	}
}

func (c *Cache) lookup(ctx context.Context, key string) (inference.GenerationResult, bool) {
	contents, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("failed to read study set cache, treating as a miss", "key", key, "error", err)
		return inference.GenerationResult{}, false
	}
	if !ok {
		c.logger.Debug("study set cache miss", "key", key)
		return inference.GenerationResult{}, false
	}

	var result inference.GenerationResult
	if err := json.Unmarshal(contents, &result); err != nil {
		c.logger.Warn("corrupt study set cache entry, treating as a miss", "key", key, "error", err)
		return inference.GenerationResult{}, false
	}
	c.logger.Debug("study set cache hit", "key", key)
	return result, true
}

func (c *Cache) generateAndStore(ctx context.Context, key string, generate GenerateFunc) (inference.GenerationResult, error) {
	result, err := generate(ctx)
	if err != nil {
		return inference.GenerationResult{}, err
	}

	contents, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("failed to encode study set for cache", "key", key, "error", err)
		return result, nil
	}
	if err := c.store.Put(ctx, key, contents); err != nil {
		c.logger.Warn("failed to store study set in cache", "key", key, "error", fmt.Errorf("store.Put > %w", err))
	}
	return result, nil
}
