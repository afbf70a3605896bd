package match

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "orderbook"

const (
	orderResultAccepted = "accepted"
	orderResultRejected = "rejected"
	orderResultInvalid  = "invalid"

	cancelCauseUser        = "user"
	cancelCauseFillAndKill = "fill_and_kill"
	cancelCauseModify      = "modify"
	cancelCausePrune       = "prune"
)

type metrics struct {
	orders         *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	trades         prometheus.Counter
	tradedQuantity prometheus.Counter
	cancels        *prometheus.CounterVec
	restingOrders  prometheus.Gauge
	pruneRuns      prometheus.Counter
}

// newMetrics creates the book collectors. With a nil registerer the
// collectors still count but are not exported. Every series carries the
// instrument label, so one registerer can serve several books as long as
// their instruments differ.
func newMetrics(reg prometheus.Registerer, instrument string) *metrics {
	if reg != nil {
		reg = prometheus.WrapRegistererWith(prometheus.Labels{"instrument": instrument}, reg)
	}
	factory := promauto.With(reg)

	return &metrics{
		orders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "orders_total",
			Help:      "Orders submitted to the book, by admission result.",
		}, []string{"result"}),
		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rejections_total",
			Help:      "Orders rejected on admission, by reason.",
		}, []string{"reason"}),
		trades: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "trades_total",
			Help:      "Trades produced by the matching loop.",
		}),
		tradedQuantity: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "traded_quantity_total",
			Help:      "Quantity executed by the matching loop.",
		}),
		cancels: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cancels_total",
			Help:      "Resting orders cancelled, by cause.",
		}, []string{"cause"}),
		restingOrders: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "resting_orders",
			Help:      "Orders currently resting in the book.",
		}),
		pruneRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "prune_runs_total",
			Help:      "End-of-day pruning runs.",
		}),
	}
}
