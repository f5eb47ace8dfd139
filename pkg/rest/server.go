// Package rest exposes the periodic Lyapunov solver as a REST service:
// one POST call per solve, diagnostics for Floquet multipliers, and a
// Prometheus metrics endpoint.
package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/control-num/dple/internal/metrics"
)

// metrics registry served by the metrics endpoint
var promRegistry *prometheus.Registry

// A stateless REST server: every solve call carries its full problem
type SolveServer struct {
	BaseServer
}

// create a solve REST server
func NewSolveServer() *SolveServer {
	server := &SolveServer{
		BaseServer: *NewBaseServer(),
	}

	promRegistry = prometheus.NewRegistry()
	metrics.InitMetrics(promRegistry)

	server.router.POST("/solve", solve)
	server.router.POST("/multipliers", multipliers)

	server.router.GET("/strategies", getStrategies)
	server.router.GET("/healthz", healthz)
	server.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	return server
}
