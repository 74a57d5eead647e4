package classifier

import (
	"github.com/dmitrymomot/conntrack/pkg/signature"
)

// DefaultCacheSize is the number of classifications kept by New when no option overrides it.
const DefaultCacheSize = 1024

// maxCachedUALength keeps pathological user agents out of the cache.
const maxCachedUALength = 1024

// Classifier classifies user agents against the current snapshot of a catalog.
// It is safe for concurrent use.
type Classifier struct {
	catalog *signature.Catalog
	cache   *resultCache
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithCacheSize sets the LRU capacity. Zero or negative disables caching.
func WithCacheSize(n int) Option {
	return func(c *Classifier) {
		if n <= 0 {
			c.cache = nil
			return
		}
		c.cache = newResultCache(n)
	}
}

// New returns a Classifier reading from catalog.
func New(catalog *signature.Catalog, opts ...Option) *Classifier {
	c := &Classifier{
		catalog: catalog,
		cache:   newResultCache(DefaultCacheSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify resolves a user agent. An uninitialized catalog yields an all-Unknown result.
func (c *Classifier) Classify(userAgent string) Classification {
	snap, err := c.catalog.Snapshot()
	if err != nil {
		return Classify(nil, userAgent)
	}

	if c.cache == nil || len(userAgent) > maxCachedUALength {
		return Classify(snap, userAgent)
	}

	key := cacheKey{version: snap.Version(), ua: userAgent}
	if cached, ok := c.cache.get(key); ok {
		return cached.Clone()
	}
	result := Classify(snap, userAgent)
	c.cache.put(key, result.Clone())
	return result
}

// Catalog returns the catalog the classifier reads from.
func (c *Classifier) Catalog() *signature.Catalog { return c.catalog }
