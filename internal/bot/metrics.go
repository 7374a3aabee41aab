package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics структура для метрик Prometheus
type Metrics struct {
	MessagesProcessed    prometheus.Counter
	CommandsProcessed    *prometheus.CounterVec
	FlowsCompleted       *prometheus.CounterVec
	ErrorsTotal          prometheus.Counter
	NotificationsSent    prometheus.Counter
	NotificationsFailed  prometheus.Counter
	UpdateProcessingTime prometheus.Histogram
}

// NewMetrics создает новые метрики
func NewMetrics() *Metrics {
	return &Metrics{
		MessagesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "avito_bot_messages_processed_total",
			Help: "Total number of processed messages",
		}),

		CommandsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "avito_bot_commands_processed_total",
			Help: "Total number of processed commands",
		}, []string{"command"}),

		FlowsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "avito_bot_flows_completed_total",
			Help: "Total number of completed conversation flows by outcome",
		}, []string{"flow", "outcome"}),

		ErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "avito_bot_errors_total",
			Help: "Total number of errors",
		}),

		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "avito_bot_notifications_sent_total",
			Help: "Total number of operator notifications sent",
		}),

		NotificationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "avito_bot_notifications_failed_total",
			Help: "Total number of operator notifications that failed to send",
		}),

		UpdateProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "avito_bot_update_processing_time_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
