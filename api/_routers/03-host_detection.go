package _routers

import (
	"net"
	"net/http"
	"strings"

	"github.com/sebest/xff"

	"github.com/t2bot/nzbkit/common/config"
)

type HostRouter struct {
	next http.Handler
}

func NewHostRouter(next http.Handler) *HostRouter {
	return &HostRouter{next: next}
}

func (h *HostRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cfg := config.Get().Serve
	if r.Header.Get("X-Forwarded-Host") != "" && cfg.UseForwardedHost {
		r.Host = r.Header.Get("X-Forwarded-Host")
	}
	r.Host = strings.Split(r.Host, ":")[0]

	var raddr string
	if cfg.TrustAnyForward {
		raddr = strings.TrimSpace(strings.Split(r.Header.Get("X-Forwarded-For"), ",")[0])
	} else {
		raddr = xff.GetRemoteAddr(r)
	}
	if raddr == "" {
		raddr = r.RemoteAddr
	}
	if host, _, err := net.SplitHostPort(raddr); err == nil {
		raddr = host
	}
	r.RemoteAddr = raddr

	if h.next != nil {
		h.next.ServeHTTP(w, r)
	}
}
