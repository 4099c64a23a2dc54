package _routers

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/t2bot/nzbkit/common"
	"github.com/t2bot/nzbkit/limits"
)

type RequestCounter struct {
	lastId atomic.Uint64
}

func (c *RequestCounter) NextId() string {
	return "REQ-" + strconv.FormatUint(c.lastId.Add(1)-1, 10)
}

type InstallMetadataRouter struct {
	next       http.Handler
	actionName string
	counter    *RequestCounter
}

func NewInstallMetadataRouter(actionName string, counter *RequestCounter, next http.Handler) *InstallMetadataRouter {
	return &InstallMetadataRouter{
		next:       next,
		actionName: actionName,
		counter:    counter,
	}
}

func (i *InstallMetadataRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestId := i.counter.NextId()
	logger := logrus.WithFields(logrus.Fields{
		"method":     r.Method,
		"host":       r.Host,
		"resource":   r.URL.Path,
		"range":      r.Header.Get("Range"),
		"requestId":  requestId,
		"remoteAddr": limits.GetRequestIP(r),
		"userAgent":  r.UserAgent(),
	})

	ctx := r.Context()
	ctx = context.WithValue(ctx, common.ContextRequestId, requestId)
	ctx = context.WithValue(ctx, common.ContextAction, i.actionName)
	ctx = context.WithValue(ctx, common.ContextLogger, logger)
	ctx = context.WithValue(ctx, common.ContextStartTime, time.Now())
	r = r.WithContext(ctx)

	if i.next != nil {
		i.next.ServeHTTP(w, r)
	}
}

func GetActionName(r *http.Request) string {
	x, ok := r.Context().Value(common.ContextAction).(string)
	if !ok {
		return "<UNKNOWN>"
	}
	return x
}

func GetRequestId(r *http.Request) string {
	x, ok := r.Context().Value(common.ContextRequestId).(string)
	if !ok {
		return ""
	}
	return x
}

func GetStartTime(r *http.Request) (time.Time, bool) {
	x, ok := r.Context().Value(common.ContextStartTime).(time.Time)
	return x, ok
}

func GetLogger(r *http.Request) *logrus.Entry {
	x, ok := r.Context().Value(common.ContextLogger).(*logrus.Entry)
	if !ok {
		return logrus.WithField("requestId", GetRequestId(r))
	}
	return x
}
