package server

import (
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mplusd/internal/proxy"
)

// Routes is the gateway's route table. Nil entries are not mounted.
type Routes struct {
	Gateway *proxy.Gateway
	Static  Handler
	Metrics http.Handler
	Logger  *log.Logger
}

// NewRouter builds a [BasicRouter] serving rt:
//
//	GET /api/blizzard[/...]  authenticated proxy
//	GET /proxy               legacy proxy
//	GET /metrics             Prometheus metrics
//	GET /                    static files
//	OPTIONS *                CORS preflight
func NewRouter(rt Routes) *BasicRouter {
	logger := rt.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	r := NewBasicRouter()
	r.Use(RequestLogger(logger), Recover(logger), CORS)

	if rt.Gateway != nil {
		r.HandlePrefix(http.MethodGet, "/api/blizzard", http.HandlerFunc(rt.Gateway.Authenticated))
		r.Handle(http.MethodGet, "/proxy", http.HandlerFunc(rt.Gateway.Legacy))
	}
	if rt.Metrics != nil {
		r.Handle(http.MethodGet, "/metrics", rt.Metrics)
	}
	if rt.Static != nil {
		r.Handler(rt.Static)
	}
	return r
}
