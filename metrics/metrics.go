package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var HttpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "nzb_http_requests_total",
}, []string{"host", "action", "method"})
var InvalidHttpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "nzb_invalid_http_requests_total",
}, []string{"action", "method"})
var HttpResponses = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "nzb_http_responses_total",
}, []string{"host", "action", "method", "statusCode"})
var HttpResponseTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Name: "nzb_http_response_time_seconds",
}, []string{"host", "action", "method"})
var CacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "nzb_cache_hits_total",
}, []string{"cache"})
var CacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "nzb_cache_misses_total",
}, []string{"cache"})
var CacheNumItems = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Name: "nzb_cache_num_items",
}, []string{"cache"})
var ArticlesFetched = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "nzb_articles_fetched_total",
}, []string{"server", "method"})
var ArticlesPosted = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "nzb_articles_posted_total",
}, []string{"server"})
var ArticlesMissing = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "nzb_articles_missing_total",
}, []string{"server"})
var PostFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "nzb_post_failures_total",
}, []string{"server", "status"})
var BytesDecoded = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "nzb_bytes_decoded_total",
})
var ConnectionsOpen = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Name: "nzb_connections_open",
}, []string{"server"})
var S3Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "nzb_s3_operations_total",
}, []string{"operation"})

func init() {
	prometheus.MustRegister(HttpRequests)
	prometheus.MustRegister(InvalidHttpRequests)
	prometheus.MustRegister(HttpResponses)
	prometheus.MustRegister(HttpResponseTime)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(CacheNumItems)
	prometheus.MustRegister(ArticlesFetched)
	prometheus.MustRegister(ArticlesPosted)
	prometheus.MustRegister(ArticlesMissing)
	prometheus.MustRegister(PostFailures)
	prometheus.MustRegister(BytesDecoded)
	prometheus.MustRegister(ConnectionsOpen)
	prometheus.MustRegister(S3Operations)
}
