package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Completion Prometheus metrics.
var (
	CompletionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbassist",
			Name:      "completion_requests_total",
			Help:      "Total number of text completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	CompletionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kbassist",
			Name:      "completion_request_duration_seconds",
			Help:      "Text completion request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	CompletionTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbassist",
			Name:      "completion_tokens_total",
			Help:      "Total completion tokens consumed",
		},
		[]string{"provider", "model", "type"}, // "prompt" / "output"
	)

	CompletionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbassist",
			Name:      "completion_errors_total",
			Help:      "Total completion errors by failure reason",
		},
		[]string{"provider", "model", "reason"},
	)

	CompletionBudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "kbassist",
			Name:      "completion_budget_tokens_remaining",
			Help:      "Remaining completion token budget",
		},
		[]string{"provider", "period"},
	)

	SummaryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbassist",
			Name:      "summary_cache_total",
			Help:      "Summary cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

// Pipeline Prometheus metrics.
var (
	ContextAssemblyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbassist",
			Name:      "context_assembly_total",
			Help:      "Context assemblies by outcome",
		},
		[]string{"mode"}, // empty / verbatim / summarized / truncated
	)

	ContextTokens = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kbassist",
			Name:      "context_tokens",
			Help:      "Estimated tokens of assembled context sent to the model",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 3000, 4000, 8000},
		},
	)

	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbassist",
			Name:      "answers_total",
			Help:      "Answers by status",
		},
		[]string{"status"},
	)

	PrioritizedDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kbassist",
			Name:      "prioritized_dropped_total",
			Help:      "Context articles dropped by keyword-overlap prioritization",
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers completion and pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		CompletionRequestsTotal,
		CompletionRequestDuration,
		CompletionTokensTotal,
		CompletionErrorsTotal,
		CompletionBudgetTokensRemaining,
		SummaryCacheTotal,
		ContextAssemblyTotal,
		ContextTokens,
		AnswersTotal,
		PrioritizedDroppedTotal,
	)
	pipelineMetricsRegistered = true
}

// RecordCompletion records one provider call. reason is empty on success.
func RecordCompletion(provider, model string, d time.Duration, promptTokens, outputTokens int, reason string) {
	if reason != "" {
		CompletionRequestsTotal.WithLabelValues(provider, model, "error").Inc()
		CompletionErrorsTotal.WithLabelValues(provider, model, reason).Inc()
		return
	}
	CompletionRequestsTotal.WithLabelValues(provider, model, "success").Inc()
	CompletionRequestDuration.WithLabelValues(provider, model).Observe(d.Seconds())
	if promptTokens > 0 {
		CompletionTokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	}
	if outputTokens > 0 {
		CompletionTokensTotal.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	}
}
