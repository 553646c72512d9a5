package monitor

import "github.com/prometheus/client_golang/prometheus"

var (
	// WebhookRequestsReceived 入站 webhook 请求
	WebhookRequestsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_requests_received_total",
			Help: "Total number of inbound webhook requests.",
		},
		[]string{"result"},
	)
	WebhookBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webhook_batch_size",
			Help:    "Number of transactions per inbound webhook batch.",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)

	// ClassificationOutcomes 分类结果统计
	ClassificationOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classification_outcomes_total",
			Help: "Total number of classified transaction events by outcome.",
		},
		[]string{"outcome"},
	)

	// NotificationsEnqueued 投递队列指标
	NotificationsEnqueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_enqueued_total",
			Help: "Total number of notifications enqueued for delivery.",
		},
		[]string{"kind"},
	)
	NotificationsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dropped_total",
			Help: "Total number of notifications dropped before delivery.",
		},
		[]string{"reason"},
	)
	NotificationsDelivered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_delivered_total",
			Help: "Total number of notifications delivered with a 2xx response.",
		},
	)
	NotificationsSuppressed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_suppressed_total",
			Help: "Total number of notifications suppressed by the recent-delivery window.",
		},
	)
	DeliveryRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_retries_total",
			Help: "Total number of scheduled delivery retries.",
		},
		[]string{"cause"},
	)
	DeliveryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "delivery_duration_seconds",
			Help:    "Time taken for one delivery attempt to the chat webhook.",
			Buckets: []float64{0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
	)
	DeliveryQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "delivery_queue_depth",
			Help: "Current number of notifications waiting in the delivery queue.",
		},
	)

	// OutcomeEmitterMessages Kafka 外发指标
	OutcomeEmitterMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outcome_emitter_messages_total",
			Help: "Total number of classification outcomes published to Kafka.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		// 入站指标
		WebhookRequestsReceived,
		WebhookBatchSize,
		ClassificationOutcomes,

		// 投递指标
		NotificationsEnqueued,
		NotificationsDropped,
		NotificationsDelivered,
		NotificationsSuppressed,
		DeliveryRetries,
		DeliveryDuration,
		DeliveryQueueDepth,

		// 外发指标
		OutcomeEmitterMessages,
	)
}
