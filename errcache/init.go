package errcache

import (
	"sync"
	"time"

	"github.com/t2bot/nzbkit/common/config"
)

var initLock = &sync.Once{}

// MissingArticles holds articles a server answered 430 for, keyed by bare
// message-id.
var MissingArticles *ErrCache

func Init() {
	initLock.Do(func() {
		MissingArticles = NewErrCache("missing_articles", missingExpiration())
	})
}

func AdjustSize() {
	Init()
	MissingArticles.Resize(missingExpiration())
}

func missingExpiration() time.Duration {
	minutes := config.Get().Downloads.MissingCacheMinutes
	if minutes <= 0 {
		minutes = 1
	}
	return time.Duration(minutes) * time.Minute
}
