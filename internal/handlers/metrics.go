package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// MetricsHandler exposes the service registry in the Prometheus text format.
type MetricsHandler struct {
	handler gin.HandlerFunc
}

func NewMetricsHandler(logger *logrus.Logger, gatherer prometheus.Gatherer) *MetricsHandler {
	return &MetricsHandler{
		handler: gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
			ErrorLog:      logger,
			ErrorHandling: promhttp.ContinueOnError,
		})),
	}
}

func (h *MetricsHandler) Serve(c *gin.Context) {
	h.handler(c)
}
