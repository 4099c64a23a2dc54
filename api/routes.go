package api

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/t2bot/nzbkit/api/_routers"
	"github.com/t2bot/nzbkit/api/site"
)

func buildRoutes(s *site.Site) http.Handler {
	counter := &_routers.RequestCounter{}
	router := buildPrimaryRouter()

	indexRoute := makeRoute(s.Index, "index", counter)
	register([]string{"GET", "HEAD"}, "/", router, indexRoute)
	register([]string{"POST"}, "/", router, makeRoute(s.Action, "action", counter))
	register([]string{"GET", "HEAD"}, "/:file", router, makeRoute(s.File, "file", counter))

	// /healthz would shadow a file called "healthz" in the router, so it
	// is matched before the router sees the request
	mux := http.NewServeMux()
	mux.Handle("/healthz", makeRoute(s.Healthz, "healthz", counter))
	mux.Handle("/", router)
	return mux
}

func makeRoute(generator _routers.GeneratorFn, name string, counter *_routers.RequestCounter) http.Handler {
	return _routers.NewInstallMetadataRouter(name, counter,
		_routers.NewInstallHeadersRouter(
			_routers.NewHostRouter(
				_routers.NewMetricsRequestRouter(
					_routers.NewRContextRouter(generator, _routers.NewMetricsResponseRouter(nil)),
				),
			),
		))
}

type routeRegistrar interface {
	Handler(method string, path string, handler http.Handler)
}

func register(methods []string, path string, router routeRegistrar, handler http.Handler) {
	for _, method := range methods {
		router.Handler(method, path, handler)
		logrus.Debug("Registering route: ", method, " ", path)
	}
}
