package amazon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// CachedSource wraps a Source with a TTL file cache. Scraping is slow and
// rate-limited, so repeated runs within the TTL reuse the previous fetch.
// The cache key includes the lookback window; a different window misses.
type CachedSource struct {
	inner  Source
	path   string
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

type cacheFile struct {
	FetchedAt time.Time `json:"fetched_at"`
	Days      int       `json:"days"`
	Orders    []Order   `json:"orders"`
}

// NewCachedSource creates a caching wrapper around inner.
func NewCachedSource(inner Source, path string, ttl time.Duration, logger *slog.Logger) *CachedSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{
		inner:  inner,
		path:   path,
		ttl:    ttl,
		logger: logger.With("system", "amazon"),
		now:    time.Now,
	}
}

// FetchOrders returns cached orders when fresh, otherwise delegates to the
// inner source and rewrites the cache. Cache read/write failures fall back
// to a live fetch and are never fatal.
func (c *CachedSource) FetchOrders(ctx context.Context, opts FetchOptions) ([]Order, error) {
	if !opts.ForceRefresh {
		if orders, ok := c.read(opts.Days); ok {
			c.logger.Debug("Using cached orders", "count", len(orders), "path", c.path)
			return orders, nil
		}
	}

	orders, err := c.inner.FetchOrders(ctx, opts)
	if err != nil {
		return nil, err
	}

	if err := c.write(opts.Days, orders); err != nil {
		c.logger.Warn("Failed to write order cache", "path", c.path, "error", err)
	}

	return orders, nil
}

func (c *CachedSource) read(days int) ([]Order, bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, false
	}

	var cached cacheFile
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Warn("Discarding unreadable order cache", "path", c.path, "error", err)
		return nil, false
	}

	if cached.Days != days {
		return nil, false
	}
	if c.now().Sub(cached.FetchedAt) > c.ttl {
		return nil, false
	}

	return cached.Orders, true
}

func (c *CachedSource) write(days int, orders []Order) error {
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create cache dir: %w", err)
		}
	}

	data, err := json.Marshal(cacheFile{
		FetchedAt: c.now(),
		Days:      days,
		Orders:    orders,
	})
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0o600)
}
