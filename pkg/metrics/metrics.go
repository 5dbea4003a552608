package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// IntentsProcessed counts room intents by type, accepted or not.
	IntentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tictactoe_intents_total",
		Help: "Number of processed room intents by type.",
	}, []string{"intent"})

	// ActiveConnections tracks currently connected websocket clients.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tictactoe_active_connections",
		Help: "Currently connected websocket clients.",
	})
)

// Handler exposes the Prometheus registry, mounted at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
