package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "remind"

// Metrics groups the Prometheus collectors of the assistant.
// Every recorder is nil-safe so components can run without metrics in tests.
type Metrics struct {
	ingested        prometheus.Counter
	dropped         prometheus.Counter
	analyzed        *prometheus.CounterVec
	remindersSaved  prometheus.Counter
	notifications   *prometheus.CounterVec
	inflight        prometheus.Gauge
	tickDuration    prometheus.Histogram
	queueLength     *prometheus.GaugeVec
	sinkFailures    *prometheus.CounterVec
	weatherRequests *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg (the default registerer when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		ingested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_ingested_total",
			Help:      "Inbound messages accepted and stored",
		}),
		dropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_dropped_total",
			Help:      "Analysis commands dropped because the queue was full",
		}),
		analyzed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_analyzed_total",
			Help:      "Messages analysed, by intent",
		}, []string{"intent"}),
		remindersSaved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_created_total",
			Help:      "Reminders created from messages or the API",
		}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "notifications_total",
			Help:      "Notifications dispatched, by kind and outcome",
		}, []string{"kind", "outcome"}),
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "dispatches_inflight",
			Help:      "Sends currently waiting on the messaging transport",
		}),
		tickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "tick_duration_seconds",
			Help:      "Time spent evaluating one scheduler tick",
			Buckets:   prometheus.DefBuckets,
		}),
		queueLength: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "queue_length",
			Help:      "Buffered items waiting in an internal channel",
		}, []string{"queue"}),
		sinkFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "sink_failures_total",
			Help:      "Events a sink failed to consume",
		}, []string{"sink"}),
		weatherRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "weather",
			Name:      "requests_total",
			Help:      "Weather lookups, by cache outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) MessageIngested() {
	if m == nil {
		return
	}
	m.ingested.Inc()
}

func (m *Metrics) CommandDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

func (m *Metrics) MessageAnalyzed(intent string) {
	if m == nil {
		return
	}
	m.analyzed.WithLabelValues(intent).Inc()
}

func (m *Metrics) ReminderCreated() {
	if m == nil {
		return
	}
	m.remindersSaved.Inc()
}

// NotificationSent records one dispatch; outcome is "sent", "failed" or "timeout".
func (m *Metrics) NotificationSent(kind, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) DispatchStarted() {
	if m == nil {
		return
	}
	m.inflight.Inc()
}

func (m *Metrics) DispatchDone() {
	if m == nil {
		return
	}
	m.inflight.Dec()
}

func (m *Metrics) ObserveTick(seconds float64) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(seconds)
}

func (m *Metrics) QueueLength(queue string, length int) {
	if m == nil {
		return
	}
	m.queueLength.WithLabelValues(queue).Set(float64(length))
}

func (m *Metrics) SinkFailed(sink string) {
	if m == nil {
		return
	}
	m.sinkFailures.WithLabelValues(sink).Inc()
}

// WeatherRequest records a lookup; outcome is "hit", "miss" or "error".
func (m *Metrics) WeatherRequest(outcome string) {
	if m == nil {
		return
	}
	m.weatherRequests.WithLabelValues(outcome).Inc()
}
