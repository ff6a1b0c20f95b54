// Package lru keeps recently recognized OCR text in memory in front of a
// persistent cache.
package lru

import (
	"context"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultSize is the number of entries kept when no size is given.
const DefaultSize = 512

var _ harvest.OCRCache = (*OCRCache)(nil)

// OCRCache is a read-through, write-through in-memory cache. Next may be
// nil, in which case entries live only in memory.
type OCRCache struct {
	next  harvest.OCRCache
	cache *expirable.LRU[string, string]
}

// NewOCRCache wraps next with an LRU of the given size. A ttl of zero keeps
// entries until evicted.
func NewOCRCache(next harvest.OCRCache, size int, ttl time.Duration) *OCRCache {
	if size <= 0 {
		size = DefaultSize
	}
	return &OCRCache{
		next:  next,
		cache: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

func (c *OCRCache) GetOCR(ctx context.Context, data []byte, languages []string) (string, bool, error) {
	key := harvest.OCRCacheKey(data, languages)
	if text, ok := c.cache.Get(key); ok {
		return text, true, nil
	}
	if c.next == nil {
		return "", false, nil
	}

	text, ok, err := c.next.GetOCR(ctx, data, languages)
	if err != nil || !ok {
		return "", false, err
	}
	c.cache.Add(key, text)
	return text, true, nil
}

func (c *OCRCache) SetOCR(ctx context.Context, data []byte, languages []string, text string) error {
	if c.next != nil {
		if err := c.next.SetOCR(ctx, data, languages, text); err != nil {
			return err
		}
	}
	c.cache.Add(harvest.OCRCacheKey(data, languages), text)
	return nil
}

// Len returns the number of entries held in memory.
func (c *OCRCache) Len() int {
	return c.cache.Len()
}
