package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QuotationsTotal counts quotation requests by outcome status.
	QuotationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cotizador",
		Name:      "quotations_total",
		Help:      "Quotation requests processed, by status.",
	}, []string{"status"})

	// QuotationGrandTotalEUR tracks the distribution of quotation grand totals.
	QuotationGrandTotalEUR = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cotizador",
		Name:      "quotation_grand_total_eur",
		Help:      "Grand total of generated quotations in EUR.",
		Buckets:   prometheus.ExponentialBuckets(1000, 2, 12),
	})

	// SinkFailuresTotal counts persistence failures by sink.
	SinkFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cotizador",
		Name:      "sink_failures_total",
		Help:      "Quotation persistence failures, by sink.",
	}, []string{"sink"})

	// WebhookProxyRequestsTotal counts proxied calls by webhook and upstream status code.
	WebhookProxyRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cotizador",
		Name:      "webhook_proxy_requests_total",
		Help:      "Requests forwarded through the webhook proxy.",
	}, []string{"webhook", "code"})
)
