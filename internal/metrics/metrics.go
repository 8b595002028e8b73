package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce           sync.Once
	remoteCallsTotal      *prometheus.CounterVec
	remoteCallSeconds     *prometheus.HistogramVec
	checkoutOutcomesTotal *prometheus.CounterVec
	gatewayCallbacksTotal *prometheus.CounterVec
	settlementFailures    prometheus.Counter
)

func initMetrics() {
	metricsOnce.Do(func() {
		remoteCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "remote",
			Name:      "calls_total",
			Help:      "Backend calls by operation and outcome",
		}, []string{"op", "outcome"})

		remoteCallSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "remote",
			Name:      "call_duration_seconds",
			Help:      "Duration of backend calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"})

		checkoutOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "checkout",
			Name:      "outcomes_total",
			Help:      "Checkout submissions by payment mode and final state",
		}, []string{"mode", "state"})

		gatewayCallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "payment",
			Name:      "gateway_callbacks_total",
			Help:      "Terminal gateway callbacks by source and result",
		}, []string{"source", "result"})

		settlementFailures = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "payment",
			Name:      "settlement_persist_failures_total",
			Help:      "Payment status updates the backend did not accept",
		})
	})
}

func ObserveRemoteCall(op, outcome string, took time.Duration) {
	initMetrics()
	remoteCallsTotal.WithLabelValues(op, outcome).Inc()
	remoteCallSeconds.WithLabelValues(op).Observe(took.Seconds())
}

func CheckoutOutcome(mode, state string) {
	initMetrics()
	checkoutOutcomesTotal.WithLabelValues(mode, state).Inc()
}

// GatewayCallback counts terminal messages; source is "page", "dismiss" or "timeout".
func GatewayCallback(source string, success bool) {
	initMetrics()
	result := "failure"
	if success {
		result = "success"
	}
	gatewayCallbacksTotal.WithLabelValues(source, result).Inc()
}

func SettlementPersistFailure() {
	initMetrics()
	settlementFailures.Inc()
}
