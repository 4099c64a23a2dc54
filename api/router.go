package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"github.com/t2bot/nzbkit/api/_responses"
	"github.com/t2bot/nzbkit/api/_routers"
)

func buildPrimaryRouter() *httprouter.Router {
	router := httprouter.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false // file names are case sensitive
	router.MethodNotAllowed = http.HandlerFunc(methodNotAllowedFn)
	router.NotFound = http.HandlerFunc(notFoundFn)
	router.HandleOPTIONS = true
	router.GlobalOPTIONS = _routers.NewInstallHeadersRouter(http.HandlerFunc(finishCorsFn))
	router.PanicHandler = panicFn
	return router
}

func writeJson(w http.ResponseWriter, statusCode int, res *_responses.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	b, err := json.Marshal(res)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("error preparing %s: %v", res.InternalCode, err))
		logrus.Errorf("error preparing %s: %v", res.InternalCode, err)
		return
	}
	_, _ = w.Write(b)
}

func methodNotAllowedFn(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusMethodNotAllowed, _responses.MethodNotAllowed())
}

func notFoundFn(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusNotFound, _responses.NotFoundError())
}

func finishCorsFn(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func panicFn(w http.ResponseWriter, r *http.Request, i interface{}) {
	logrus.Errorf("Panic received on %s %s: %s", r.Method, r.URL.Path, i)

	//goland:noinspection GoTypeAssertionOnErrors
	if e, ok := i.(error); ok {
		sentry.CaptureException(e)
	} else {
		sentry.CaptureMessage(fmt.Sprintf("Unknown panic received: %T %s %+v", i, i, i))
	}

	writeJson(w, http.StatusInternalServerError, _responses.InternalServerError(errors.New("unexpected error").Error()))
}
