// Package server registers Prometheus collectors for the relay's hub and
// exposes the /metrics handler.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	connectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roomrelay_connected_clients",
		Help: "Number of currently connected WebSocket clients.",
	})
	activeRooms = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roomrelay_active_rooms",
		Help: "Number of rooms with at least one member.",
	})
	messagesBroadcast = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roomrelay_broadcasts_total",
		Help: "Total number of messages fanned out to a room.",
	})
	failedDeliveries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roomrelay_failed_deliveries_total",
		Help: "Total number of per-member sends that were dropped.",
	})
)

func init() {
	prometheus.MustRegister(connectedClients, activeRooms, messagesBroadcast, failedDeliveries)
}

// MetricsHandler exposes Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
