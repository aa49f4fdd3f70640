// Package telemetry exposes Prometheus metrics for the cart funnel.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for cart and order observability.
// All cart metrics carry a mode label so guest and authenticated funnels
// can be segmented on dashboards.
type Metrics struct {
	CartItemsAdded   *prometheus.CounterVec
	CartUpdated      *prometheus.CounterVec
	CartCleared      *prometheus.CounterVec
	MutationFailures *prometheus.CounterVec

	OrdersSubmitted *prometheus.CounterVec
	OrderFailures   *prometheus.CounterVec
	OrderValue      *prometheus.HistogramVec
}

// NewMetrics creates and registers cart metrics on the given registerer.
// Tests pass a private registry to avoid collisions.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "ostara"
	}
	factory := promauto.With(reg)

	return &Metrics{
		CartItemsAdded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cart_items_added_total",
				Help:      "Total quantity of items added to carts",
			},
			[]string{"mode"},
		),
		CartUpdated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cart_updates_total",
				Help:      "Total cart line updates and removals",
			},
			[]string{"mode", "operation"},
		),
		CartCleared: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cart_cleared_total",
				Help:      "Total cart clears",
			},
			[]string{"mode"},
		),
		MutationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cart_mutation_failures_total",
				Help:      "Total failed cart mutations by error code",
			},
			[]string{"mode", "operation", "code"},
		),
		OrdersSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_submitted_total",
				Help:      "Total successfully submitted orders",
			},
			[]string{"mode"},
		),
		OrderFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "order_failures_total",
				Help:      "Total failed order submissions by error code",
			},
			[]string{"mode", "code"},
		),
		OrderValue: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "order_value_cents",
				Help:      "Distribution of submitted order totals in cents",
				Buckets:   []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000},
			},
			[]string{"mode"},
		),
	}
}
