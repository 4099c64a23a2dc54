package errcache

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/t2bot/nzbkit/metrics"
)

// ErrCache remembers errors by key for a while, so repeated requests for
// something known to be broken fail fast.
type ErrCache struct {
	name  string
	cache *cache.Cache
	mu    sync.Mutex
}

func NewErrCache(name string, expiration time.Duration) *ErrCache {
	e := &ErrCache{name: name, cache: cache.New(expiration, expiration*2)}
	metrics.OnBeforeMetricsRequested(func() {
		metrics.CacheNumItems.With(prometheus.Labels{"cache": name}).Set(float64(e.Count()))
	})
	return e
}

func (e *ErrCache) Resize(expiration time.Duration) {
	e.mu.Lock()
	e.cache = cache.NewFrom(expiration, expiration*2, e.cache.Items())
	e.mu.Unlock()
}

func (e *ErrCache) Get(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err, ok := e.cache.Get(key); ok {
		metrics.CacheHits.With(prometheus.Labels{"cache": e.name}).Inc()
		return err.(error)
	}
	metrics.CacheMisses.With(prometheus.Labels{"cache": e.name}).Inc()
	return nil
}

func (e *ErrCache) Set(key string, err error) {
	e.mu.Lock()
	e.cache.Set(key, err, cache.DefaultExpiration)
	e.mu.Unlock()
}

func (e *ErrCache) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.ItemCount()
}
