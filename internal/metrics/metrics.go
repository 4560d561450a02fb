package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "empath_gateway_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "empath_gateway_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "empath_gateway_pipeline_stage_duration_seconds",
			Help: "Duration of each analysis pipeline stage in seconds",
		},
		[]string{"stage"},
	)

	TranscriptionPolls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "empath_gateway_transcription_polls_total",
			Help: "Total number of transcript job status polls",
		},
	)

	ReplyFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "empath_gateway_reply_failures_total",
			Help: "Total number of reply generations that fell back to an error reply",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "empath_gateway_active_sessions",
			Help: "Number of conversation sessions held in memory",
		},
	)
)
