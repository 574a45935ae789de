package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"decision-eval/backend/internal/limits"
	"decision-eval/backend/internal/metrics"
	"decision-eval/backend/internal/provider"
	"decision-eval/backend/internal/quality"
	"decision-eval/backend/internal/scoring"
)

// MalformedOutputError reports provider output that could not be turned into
// dimensions: broken JSON, missing fields, or out-of-range values.
type MalformedOutputError struct {
	Reason string
	Err    error
}

func (e *MalformedOutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed provider output: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed provider output: %s", e.Reason)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Err
}

// llmPayload mirrors the JSON schema providers are instructed to emit. The
// dimensions pointer distinguishes a missing block from a zero-valued one.
type llmPayload struct {
	Dimensions             *scoring.Dimensions `json:"dimensions"`
	EthicalAlignment       string              `json:"ethical_alignment"`
	SystemicRisk           string              `json:"systemic_risk"`
	KeyTensions            []string            `json:"key_tensions"`
	UnintendedConsequences []string            `json:"unintended_consequences"`
	Recommendation         string              `json:"recommendation"`
	ExplanationSummary     string              `json:"explanation_summary"`
	AnalysisVersion        string              `json:"analysis_version"`
}

// Engine coordinates one analysis from admission to the quality gate.
type Engine struct {
	orchestrator *provider.Orchestrator
	tracker      *limits.Tracker
	limiter      *limits.Limiter
	now          func() time.Time
}

// New wires the pipeline over a provider orchestrator and a usage tracker.
func New(orchestrator *provider.Orchestrator, tracker *limits.Tracker) *Engine {
	return &Engine{
		orchestrator: orchestrator,
		tracker:      tracker,
		limiter:      limits.NewLimiter(tracker),
		now:          time.Now,
	}
}

// Analyze runs the full pipeline for one request. Usage is charged only when
// a response clears the quality gate; rejected or failed requests cost the
// customer nothing.
func (e *Engine) Analyze(ctx context.Context, req Request) (*Response, error) {
	started := e.now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	snap, err := e.limiter.Check(req.CustomerID, req.Tier)
	if err != nil {
		var exceeded *limits.ExceededError
		if errors.As(err, &exceeded) {
			metrics.AdmissionRejections.WithLabelValues(string(exceeded.Period), string(exceeded.Tier)).Inc()
		}
		metrics.Analyses.WithLabelValues("rate_limited").Inc()
		return nil, err
	}

	text, providerName, err := e.orchestrator.Complete(ctx, buildMessages(req), completionTemperature, req.ProviderOverride)
	if err != nil {
		metrics.Analyses.WithLabelValues("provider_failure").Inc()
		return nil, err
	}

	payload, err := parsePayload(text)
	if err != nil {
		metrics.Analyses.WithLabelValues("malformed").Inc()
		return nil, err
	}

	scorer := scoring.NewEngine(req.Industry)
	index := scorer.CalculateIndex(*payload.Dimensions)
	confidence := scorer.DeriveConfidence(*payload.Dimensions)
	coherence := scorer.DeriveCoherence(index)
	breakdown := scorer.GetBreakdown(*payload.Dimensions)

	content := quality.Content{
		Index:          index,
		Confidence:     confidence,
		Tensions:       payload.KeyTensions,
		Consequences:   payload.UnintendedConsequences,
		Recommendation: payload.Recommendation,
		Explanation:    payload.ExplanationSummary,
	}
	if err := quality.Validate(content); err != nil {
		metrics.QualityRejections.Inc()
		metrics.Analyses.WithLabelValues("quality_rejected").Inc()
		logrus.WithError(err).WithFields(logrus.Fields{
			"customer": req.CustomerID,
			"provider": providerName,
		}).Warn("provider output rejected by quality gate")
		return nil, err
	}
	qualityScore := quality.Score(content)

	e.tracker.RecordRequest(req.CustomerID)

	elapsed := e.now().Sub(started)
	metrics.Analyses.WithLabelValues("success").Inc()
	metrics.AnalysisDuration.WithLabelValues(providerName).Observe(elapsed.Seconds())

	resp := &Response{
		ID:                     uuid.NewString(),
		DecisionIndex:          index,
		DecisionConfidence:     confidence,
		DecisionCoherence:      coherence,
		EthicalAlignment:       payload.EthicalAlignment,
		SystemicRisk:           payload.SystemicRisk,
		KeyTensions:            payload.KeyTensions,
		UnintendedConsequences: payload.UnintendedConsequences,
		Recommendation:         payload.Recommendation,
		ExplanationSummary:     payload.ExplanationSummary,
		AnalysisVersion:        AnalysisVersion,
		Dimensions:             *payload.Dimensions,
		Metadata: Metadata{
			ProviderUsed:     providerName,
			Industry:         scorer.Industry(),
			ScoringBreakdown: breakdown,
			QualityScore:     qualityScore,
			ProcessingMS:     elapsed.Milliseconds(),
			Usage: UsageMeta{
				RequestsRemaining: map[string]int{
					string(limits.PeriodMinute): snap.Remaining(limits.PeriodMinute, 1),
					string(limits.PeriodDay):    snap.Remaining(limits.PeriodDay, 1),
					string(limits.PeriodMonth):  snap.Remaining(limits.PeriodMonth, 1),
				},
				Tier: req.Tier,
			},
		},
	}

	logrus.WithFields(logrus.Fields{
		"customer":  req.CustomerID,
		"provider":  providerName,
		"index":     index,
		"coherence": coherence,
		"quality":   qualityScore,
		"elapsed":   elapsed,
	}).Info("analysis completed")
	return resp, nil
}

func parsePayload(text string) (*llmPayload, error) {
	var payload llmPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, &MalformedOutputError{Reason: "invalid JSON", Err: err}
	}
	if payload.Dimensions == nil {
		return nil, &MalformedOutputError{Reason: "missing dimensions block"}
	}
	if err := payload.Dimensions.Validate(); err != nil {
		return nil, &MalformedOutputError{Reason: "invalid dimensions", Err: err}
	}
	if v := strings.TrimSpace(payload.AnalysisVersion); v != "" && v != AnalysisVersion {
		logrus.WithField("version", v).Warn("unexpected analysis version in provider output")
	}
	return &payload, nil
}

// UsageStats snapshots a customer's current usage against their tier.
func (e *Engine) UsageStats(customerID string, tier limits.Tier) limits.Snapshot {
	return limits.Snapshot{
		Minute:   e.tracker.Usage(customerID, limits.PeriodMinute),
		Day:      e.tracker.Usage(customerID, limits.PeriodDay),
		Month:    e.tracker.Usage(customerID, limits.PeriodMonth),
		Ceilings: limits.CeilingsFor(tier),
	}
}

// LastRequest reports when the customer last completed an analysis.
func (e *Engine) LastRequest(customerID string) (time.Time, bool) {
	return e.tracker.LastRequest(customerID)
}

// ActivePeriods counts the admission windows the customer currently occupies.
func (e *Engine) ActivePeriods(customerID string) int {
	return e.tracker.ActivePeriods(customerID)
}

// ResetUsage clears a customer's admission counters.
func (e *Engine) ResetUsage(customerID string, period limits.Period) error {
	return e.tracker.Reset(customerID, period)
}

// SwitchPrimary changes the preferred completion provider.
func (e *Engine) SwitchPrimary(name string) error {
	return e.orchestrator.SwitchPrimary(name)
}

// Primary reports the preferred completion provider.
func (e *Engine) Primary() string {
	return e.orchestrator.Primary()
}

// Providers lists registered completion providers.
func (e *Engine) Providers() []string {
	return e.orchestrator.Names()
}

// ProviderStats snapshots adapter usage counters.
func (e *Engine) ProviderStats() map[string]provider.Stats {
	return e.orchestrator.AllStats()
}
