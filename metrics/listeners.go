package metrics

import (
	"net/http"
)

var beforeMetricsCalledFns = make([]func(), 0)

// OnBeforeMetricsRequested registers fn to run before every scrape, for
// gauges that are cheaper to sample than to keep current.
func OnBeforeMetricsRequested(fn func()) {
	beforeMetricsCalledFns = append(beforeMetricsCalledFns, fn)
}

func withListeners(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, fn := range beforeMetricsCalledFns {
			fn()
		}
		next.ServeHTTP(w, r)
	})
}
