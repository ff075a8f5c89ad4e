package gltfio

import (
	"errors"
	"io"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
)

// StreamCache maps URIs to open input streams so repeated reads against the
// same buffer reuse one handle. The cache owns every stream it holds and
// closes it on eviction, overwrite, Erase or Close.
type StreamCache interface {
	// Get returns the cached stream for uri, opening it through the
	// provider on a miss.
	Get(uri string) (io.ReadSeeker, error)
	// Set inserts or replaces the stream for uri without asking the provider.
	Set(uri string, s io.ReadSeeker)
	// Erase drops uri; it fails if uri is not cached.
	Erase(uri string) error
	Close() error
}

// mapCache is the unbounded StreamCache.
type mapCache struct {
	provider StreamProvider
	streams  map[string]io.ReadSeeker
	logger   *slog.Logger
}

// NewStreamCache returns an unbounded cache over provider.
func NewStreamCache(provider StreamProvider, logger *slog.Logger) StreamCache {
	return &mapCache{
		provider: provider,
		streams:  make(map[string]io.ReadSeeker),
		logger:   orDiscard(logger),
	}
}

func (c *mapCache) Get(uri string) (io.ReadSeeker, error) {
	if s, ok := c.streams[uri]; ok {
		return s, nil
	}
	c.logger.Debug("stream cache miss", "uri", uri)
	s, err := c.provider.InputStream(uri)
	if err != nil {
		return nil, wrapDataErr("stream.open", err, "cannot open %q", uri)
	}
	c.streams[uri] = s
	return s, nil
}

func (c *mapCache) Set(uri string, s io.ReadSeeker) {
	if old, ok := c.streams[uri]; ok && old != s {
		closeIfCloser(old)
	}
	c.streams[uri] = s
}

func (c *mapCache) Erase(uri string) error {
	s, ok := c.streams[uri]
	if !ok {
		return contractErr("cache.erase", "uri %q is not cached", uri)
	}
	delete(c.streams, uri)
	return closeIfCloser(s)
}

func (c *mapCache) Close() error {
	var errs []error
	for uri, s := range c.streams {
		errs = append(errs, closeIfCloser(s))
		delete(c.streams, uri)
	}
	return errors.Join(errs...)
}

// lruCache is the bounded StreamCache; it evicts the least recently
// accessed stream when full.
type lruCache struct {
	provider StreamProvider
	entries  *lru.Cache[string, io.ReadSeeker]
	logger   *slog.Logger
}

// NewStreamCacheLRU returns a cache holding at most maxSize streams.
func NewStreamCacheLRU(provider StreamProvider, maxSize int, logger *slog.Logger) (StreamCache, error) {
	if maxSize < 1 {
		return nil, contractErr("cache.size", "LRU cache size must be at least 1, got %d", maxSize)
	}
	c := &lruCache{provider: provider, logger: orDiscard(logger)}
	entries, err := lru.NewWithEvict(maxSize, func(uri string, s io.ReadSeeker) {
		c.logger.Debug("stream cache evict", "uri", uri)
		closeIfCloser(s)
	})
	if err != nil {
		return nil, err
	}
	c.entries = entries
	return c, nil
}

func (c *lruCache) Get(uri string) (io.ReadSeeker, error) {
	if s, ok := c.entries.Get(uri); ok {
		return s, nil
	}
	c.logger.Debug("stream cache miss", "uri", uri)
	s, err := c.provider.InputStream(uri)
	if err != nil {
		return nil, wrapDataErr("stream.open", err, "cannot open %q", uri)
	}
	c.entries.Add(uri, s)
	return s, nil
}

func (c *lruCache) Set(uri string, s io.ReadSeeker) {
	// Add replaces an existing value without running the evict callback.
	if old, ok := c.entries.Peek(uri); ok && old != s {
		closeIfCloser(old)
	}
	c.entries.Add(uri, s)
}

func (c *lruCache) Erase(uri string) error {
	if !c.entries.Remove(uri) {
		return contractErr("cache.erase", "uri %q is not cached", uri)
	}
	return nil
}

func (c *lruCache) Close() error {
	c.entries.Purge()
	return nil
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
