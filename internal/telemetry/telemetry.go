package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Telemetry holds the service's Prometheus collectors. A nil *Telemetry is
// valid and records nothing, so callers never need to guard.
type Telemetry struct {
	jobsSubmitted  prometheus.Counter
	jobsFinished   *prometheus.CounterVec
	toolCalls      *prometheus.CounterVec
	inferenceRound prometheus.Histogram
}

func New() *Telemetry {
	return &Telemetry{
		jobsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agentd_jobs_submitted_total",
			Help: "Chat jobs accepted for asynchronous execution.",
		}),
		jobsFinished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentd_jobs_finished_total",
			Help: "Jobs that reached a terminal status.",
		}, []string{"status"}),
		toolCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agentd_tool_calls_total",
			Help: "Tool invocations requested by the model.",
		}, []string{"tool"}),
		inferenceRound: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "agentd_inference_round_seconds",
			Help:    "Wall time of one streamed inference round.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 12),
		}),
	}
}

func (t *Telemetry) JobSubmitted() {
	if t == nil {
		return
	}
	t.jobsSubmitted.Inc()
}

func (t *Telemetry) JobFinished(status string) {
	if t == nil {
		return
	}
	t.jobsFinished.WithLabelValues(status).Inc()
}

func (t *Telemetry) ToolCalled(tool string) {
	if t == nil {
		return
	}
	t.toolCalls.WithLabelValues(tool).Inc()
}

func (t *Telemetry) InferenceRound(d time.Duration) {
	if t == nil {
		return
	}
	t.inferenceRound.Observe(d.Seconds())
}
