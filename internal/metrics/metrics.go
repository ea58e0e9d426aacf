package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "credits_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CreditsPurchasedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_purchased_total",
			Help: "Total number of credits added by package purchases",
		},
		[]string{"package"},
	)

	CreditsConsumedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "credits_consumed_total",
			Help: "Total number of credits consumed by free accounts",
		},
	)

	CreditsDeclinedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_declined_total",
			Help: "Total number of declined credit operations",
		},
		[]string{"reason"},
	)

	PurchaseMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_purchase_messages_total",
			Help: "Total number of purchase confirmation messages handled",
		},
		[]string{"result"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordPurchase(packageID string, credits int64) {
	CreditsPurchasedTotal.WithLabelValues(packageID).Add(float64(credits))
}

func RecordConsumption(amount int64) {
	CreditsConsumedTotal.Add(float64(amount))
}

func RecordDecline(reason string) {
	CreditsDeclinedTotal.WithLabelValues(reason).Inc()
}

func RecordPurchaseMessage(result string) {
	PurchaseMessagesTotal.WithLabelValues(result).Inc()
}
