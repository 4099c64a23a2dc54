package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/sirupsen/logrus"

	"github.com/t2bot/nzbkit/api/site"
	"github.com/t2bot/nzbkit/common/config"
	"github.com/t2bot/nzbkit/limits"
)

var srv *http.Server
var waitGroup = &sync.WaitGroup{}

// Handler is the full serving stack for s, without a listener.
func Handler(s *site.Site) http.Handler {
	handler := buildRoutes(s)

	if config.Get().RateLimit.Enabled {
		logrus.Debug("Enabling rate limit")
		handler = limits.Wrap(handler)
	}

	// Note: we bind Sentry here to ensure we capture *everything*
	sentryHandler := sentryhttp.New(sentryhttp.Options{})
	return sentryHandler.Handle(handler)
}

func Init(s *site.Site) *sync.WaitGroup {
	address := net.JoinHostPort(config.Get().Serve.BindAddress, strconv.Itoa(config.Get().Serve.Port))

	server := &http.Server{Addr: address, Handler: Handler(s)}
	srv = server
	waitGroup.Add(1)

	go func() {
		defer waitGroup.Done()
		//goland:noinspection HttpUrlsUsage
		logrus.WithField("address", address).Info("Started up. Listening at http://" + address)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			sentry.CaptureException(err)
			logrus.Fatal(err)
		}
	}()

	return waitGroup
}

func Stop() {
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			panic(err)
		}
	}
}
