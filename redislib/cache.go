package redislib

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/t2bot/nzbkit/common/config"
	"github.com/t2bot/nzbkit/common/rcontext"
	"github.com/t2bot/nzbkit/metrics"
)

const keyPrefix = "nzb:article:"
const redisMaxValueSize = 512 * 1024 * 1024 // 512mb

func expiration() time.Duration {
	minutes := config.Get().Redis.ExpirationMinutes
	if minutes <= 0 {
		minutes = 15
	}
	return time.Duration(minutes) * time.Minute
}

// StoreArticle caches a raw article body by bare message-id. It is a no-op
// when redis is not configured.
func StoreArticle(ctx rcontext.RequestContext, id string, body []byte) error {
	makeConnection()
	if ring == nil {
		return nil
	}
	if len(body) >= redisMaxValueSize {
		ctx.Log.Debugf("Not caching %s because %d>%d", id, len(body), redisMaxValueSize)
		return nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx.Context, 20*time.Second)
	defer cancel()
	return ring.Set(timeoutCtx, keyPrefix+id, body, expiration()).Err()
}

// TryGetArticle returns the cached body, or nil on a miss.
func TryGetArticle(ctx rcontext.RequestContext, id string) ([]byte, error) {
	makeConnection()
	if ring == nil {
		return nil, nil
	}

	timeoutCtx, cancel := context.WithTimeout(ctx.Context, 20*time.Second)
	defer cancel()

	b, err := ring.Get(timeoutCtx, keyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			metrics.CacheMisses.With(prometheus.Labels{"cache": "articles"}).Inc()
			return nil, nil
		}
		return nil, err
	}

	metrics.CacheHits.With(prometheus.Labels{"cache": "articles"}).Inc()
	return b, nil
}

func DeleteArticle(ctx rcontext.RequestContext, id string) error {
	makeConnection()
	if ring == nil {
		return nil
	}
	return ring.Del(ctx, keyPrefix+id).Err()
}
