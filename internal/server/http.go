package server

import (
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves the metrics gathered by g in the Prometheus text format.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// newMux returns a mux with the unauthenticated health and metrics routes.
// metrics may be nil.
func newMux(metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	return mux
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}
}

// NewMetricsServer returns an HTTP server exposing /metrics and /healthz.
func NewMetricsServer(addr string, g prometheus.Gatherer) *http.Server {
	return newHTTPServer(addr, newMux(MetricsHandler(g)))
}

// NewStreamableHTTPServer returns an unauthenticated HTTP server serving MCP
// on mcpEndpoint next to /metrics and /healthz.
func NewStreamableHTTPServer(mcpSrv *mcpserver.MCPServer, addr, mcpEndpoint string, metrics http.Handler) *http.Server {
	mux := newMux(metrics)
	mux.Handle(mcpEndpoint, mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(mcpEndpoint),
	))
	return newHTTPServer(addr, mux)
}
