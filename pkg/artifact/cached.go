package artifact

import (
	"context"
	"errors"

	"github.com/coocood/freecache"
	"github.com/rs/zerolog/log"

	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/metric"
)

const infiniteExpiry = -1

// CachedStore is a read-through freecache in front of another Backend. Put
// writes through and refreshes the cached blob.
type CachedStore struct {
	next  Backend
	cache *freecache.Cache
}

func NewCachedStore(next Backend, sizeInBytes int) *CachedStore {
	return &CachedStore{next: next, cache: freecache.NewCache(sizeInBytes)}
}

func (c *CachedStore) Name() string { return "cached-" + c.next.Name() }

func (c *CachedStore) Put(ctx context.Context, key string, blob []byte) error {
	if err := c.next.Put(ctx, key, blob); err != nil {
		c.cache.Del([]byte(key))
		return err
	}
	c.fill(key, blob)
	return nil
}

func (c *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	if blob, err := c.cache.Get([]byte(key)); err == nil {
		c.count("hit")
		return blob, nil
	} else if !errors.Is(err, freecache.ErrNotFound) {
		log.Warn().Err(err).Str("key", key).Msg("cache lookup failed")
	}
	c.count("miss")
	blob, err := c.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	c.fill(key, blob)
	return blob, nil
}

// fill caches blob under key. A blob too large for the cache evicts any older
// copy so reads fall through to next.
func (c *CachedStore) fill(key string, blob []byte) {
	if err := c.cache.Set([]byte(key), blob, infiniteExpiry); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("bundle not cached")
		c.cache.Del([]byte(key))
	}
}

func (c *CachedStore) count(result string) {
	metric.Incr(metric.CacheLookupCount, metric.BuildTag(metric.NewTag(metric.TagCacheResult, result)))
}
