package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	WebhookMessages     *prometheus.CounterVec
	MemoryMode          prometheus.Gauge
	CorruptRecords      prometheus.Counter
	MemoryWriteFailures prometheus.Counter
	ResetCommands       prometheus.Counter
	ModelLatency        prometheus.Histogram
	ToolCalls           *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		WebhookMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_messages_total",
			Help:      "Inbound webhook messages by provider and outcome.",
		}, []string{"provider", "outcome"}),
		MemoryMode: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_durable_mode",
			Help:      "1 when conversation memory is durable, 0 in cache-only mode.",
		}),
		CorruptRecords: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_corrupt_records_total",
			Help:      "Durable memory records that existed but could not be decoded.",
		}),
		MemoryWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_write_failures_total",
			Help:      "Failed durable writes of conversation history.",
		}),
		ResetCommands: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reset_commands_total",
			Help:      "Conversations cleared via the reset command.",
		}),
		ModelLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_latency_ms",
			Help:      "Latency of model completions in milliseconds.",
			Buckets:   []float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
		}),
		ToolCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool executions by tool and outcome.",
		}, []string{"tool", "outcome"}),
	}
}

func (m *Metrics) ObserveModelLatency(d time.Duration) {
	m.ModelLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
