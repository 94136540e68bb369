package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for placements and payments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	ordersCreated        *prometheus.CounterVec
	orderValue           *prometheus.HistogramVec
	subscriptionsCreated *prometheus.CounterVec
	statusChanges        *prometheus.CounterVec
	payments             *prometheus.CounterVec
	providerCalls        *prometheus.HistogramVec
}

func New(registry prometheus.Registerer) *Metrics {
	f := promauto.With(registry)
	return &Metrics{
		ordersCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders placed, by payment method",
		}, []string{"payment_method"}),
		orderValue: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "order_value_minor_units",
			Help:    "Order totals in minor currency units",
			Buckets: prometheus.ExponentialBuckets(1000, 4, 7),
		}, []string{"payment_method"}),
		subscriptionsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "subscriptions_created_total",
			Help: "Equipment subscriptions placed, by type",
		}, []string{"subscription_type"}),
		statusChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "status_changes_total",
			Help: "Status transitions applied to orders and subscriptions",
		}, []string{"kind", "status"}),
		payments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment confirmations by result",
		}, []string{"result"}),
		providerCalls: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payment_provider_request_seconds",
			Help:    "Latency of payment provider calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
}

func (m *Metrics) OrderCreated(method string, value int64) {
	if m == nil {
		return
	}
	m.ordersCreated.WithLabelValues(method).Inc()
	m.orderValue.WithLabelValues(method).Observe(float64(value))
}

func (m *Metrics) SubscriptionCreated(typ string) {
	if m == nil {
		return
	}
	m.subscriptionsCreated.WithLabelValues(typ).Inc()
}

func (m *Metrics) StatusChanged(kind, status string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(kind, status).Inc()
}

// Payment records a confirmation outcome: "captured", "replayed",
// "invalid_signature" or "failed".
func (m *Metrics) Payment(result string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(result).Inc()
}

func (m *Metrics) ProviderCall(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(outcome).Observe(seconds)
}
