// Package metrics exposes the Prometheus instrumentation for the decision
// engine: provider call outcomes and token usage, admission rejections, and
// quality-gate rejections. All collectors are registered once at import time
// and are safe for concurrent use.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "decision_eval"

var (
	// ProviderCalls counts completion attempts per provider and outcome.
	ProviderCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_calls_total",
		Help:      "Completion provider attempts by provider and status.",
	}, []string{"provider", "status"})

	// ProviderTokens counts tokens reported by backends that expose usage.
	ProviderTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_tokens_total",
		Help:      "Cumulative token usage by provider.",
	}, []string{"provider"})

	// AdmissionRejections counts rate-limit rejections by period and tier.
	AdmissionRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admission_rejections_total",
		Help:      "Requests rejected by the rate limiter, by exceeded period and tier.",
	}, []string{"period", "tier"})

	// QualityRejections counts responses rejected by the quality gate.
	QualityRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quality_rejections_total",
		Help:      "Provider responses rejected for insufficient substantive content.",
	})

	// Analyses counts completed pipeline runs by outcome.
	Analyses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analyses_total",
		Help:      "Decision analyses by final outcome.",
	}, []string{"status"})

	// AnalysisDuration observes end-to-end pipeline latency.
	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analysis_duration_seconds",
		Help:      "End-to-end analysis duration by provider used.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})
)
