// internal/metrics/metrics.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

var CampaignsClaimedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "campaigns_claimed_total",
		Help: "Total number of campaigns claimed by the scheduler",
	},
)

var CampaignsCompletedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "campaigns_completed_total",
		Help: "Total number of campaigns that reached completed",
	},
)

var DeliveriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "deliveries_total",
		Help: "Total number of delivery attempts logged, by outcome",
	},
	[]string{"outcome"},
)

var DeliverySendDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "delivery_send_duration_seconds",
		Help:    "Time taken by single mail transport attempts",
		Buckets: prometheus.DefBuckets,
	},
)

var DuplicateDeliveriesTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "duplicate_deliveries_total",
		Help: "Total number of delivery results discarded by the uniqueness constraint",
	},
)

var ReportsGeneratedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reports_generated_total",
		Help: "Total number of campaign report generations, by result",
	},
	[]string{"result"},
)

// Init registers all pipeline collectors on the default registry. Call once
// per process, before serving /metrics.
func Init() {
	prometheus.MustRegister(CampaignsClaimedTotal)
	prometheus.MustRegister(CampaignsCompletedTotal)
	prometheus.MustRegister(DeliveriesTotal)
	prometheus.MustRegister(DeliverySendDuration)
	prometheus.MustRegister(DuplicateDeliveriesTotal)
	prometheus.MustRegister(ReportsGeneratedTotal)
}
