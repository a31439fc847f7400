package notifications

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "queueline"

var (
	deliveriesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "sent_total",
			Help:      "Total delivery attempts by transport and outcome",
		},
		[]string{"transport", "status"},
	)

	deliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "send_duration_seconds",
			Help:      "Time to deliver one notification",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"transport"},
	)

	schedulerTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "scheduler_ticks_total",
			Help:      "Completed delivery passes by transport",
		},
		[]string{"transport"},
	)

	subscriptionCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "subscriptions",
			Help:      "Subscriptions seen by the last delivery pass",
		},
		[]string{"transport"},
	)
)

func recordDelivery(transport, status string) {
	deliveriesSent.WithLabelValues(transport, status).Inc()
}

func recordDeliveryDuration(transport string, duration time.Duration) {
	deliveryDuration.WithLabelValues(transport).Observe(duration.Seconds())
}

func recordTick(transport string) {
	schedulerTicks.WithLabelValues(transport).Inc()
}

func recordSubscriptions(transport string, count int) {
	subscriptionCount.WithLabelValues(transport).Set(float64(count))
}
