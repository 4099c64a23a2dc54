package _routers

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func GetParam(name string, r *http.Request) string {
	p := httprouter.ParamsFromContext(r.Context())
	if p == nil {
		return ""
	}
	return p.ByName(name)
}
