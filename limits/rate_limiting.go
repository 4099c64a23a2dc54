package limits

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/libstring"
	"github.com/didip/tollbooth/v7/limiter"

	"github.com/t2bot/nzbkit/api/_responses"
	"github.com/t2bot/nzbkit/common/config"
)

var requestLimiter *limiter.Limiter
var limiterLock = &sync.Mutex{}

func init() {
	requestLimiter = tollbooth.NewLimiter(0, nil)
	requestLimiter.SetIPLookups([]string{"X-Forwarded-For", "X-Real-IP", "RemoteAddr"})
	requestLimiter.SetTokenBucketExpirationTTL(time.Hour)

	b, _ := json.Marshal(_responses.RateLimitReached())
	requestLimiter.SetMessage(string(b))
	requestLimiter.SetMessageContentType("application/json")
}

// GetRequestLimiter returns the shared limiter, sized from the current
// rateLimit config.
func GetRequestLimiter() *limiter.Limiter {
	limiterLock.Lock()
	defer limiterLock.Unlock()

	requestLimiter.SetBurst(config.Get().RateLimit.BurstCount)
	requestLimiter.SetMax(config.Get().RateLimit.RequestsPerSecond)

	return requestLimiter
}

// Wrap puts next behind the request limiter when rate limiting is enabled.
func Wrap(next http.Handler) http.Handler {
	if !config.Get().RateLimit.Enabled {
		return next
	}
	return tollbooth.LimitHandler(GetRequestLimiter(), next)
}

func GetRequestIP(r *http.Request) string {
	// Same implementation as tollbooth
	return libstring.RemoteIP(requestLimiter.GetIPLookups(), requestLimiter.GetForwardedForIndexFromBehind(), r)
}
