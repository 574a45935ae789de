// Package engine runs the decision analysis pipeline: admission, completion,
// extraction, scoring, assembly, and the quality gate.
package engine

import (
	"errors"
	"strings"

	"decision-eval/backend/internal/limits"
	"decision-eval/backend/internal/scoring"
)

// Request is one decision question submitted for analysis.
type Request struct {
	CustomerID       string
	Tier             limits.Tier
	Question         string
	Context          string
	Industry         string
	Stakeholders     []string
	Constraints      []string
	TimeHorizon      string
	ProviderOverride string
}

// Validate checks the request's structural requirements. Every text field
// must survive trimming; the question additionally carries a length floor.
func (r Request) Validate() error {
	if strings.TrimSpace(r.CustomerID) == "" {
		return errors.New("customer id is required")
	}
	if len(strings.TrimSpace(r.Question)) < 10 {
		return errors.New("question must be at least 10 characters")
	}
	if strings.TrimSpace(r.Context) == "" {
		return errors.New("context is required")
	}
	if strings.TrimSpace(r.TimeHorizon) == "" {
		return errors.New("time horizon is required")
	}
	return nil
}

// UsageMeta reports post-request admission headroom. Remaining counts reflect
// the request just served; unlimited periods stay -1.
type UsageMeta struct {
	RequestsRemaining map[string]int `json:"requests_remaining"`
	Tier              limits.Tier    `json:"tier"`
}

// Metadata carries the non-scored envelope of a response.
type Metadata struct {
	ProviderUsed     string            `json:"provider_used"`
	Industry         string            `json:"industry"`
	ScoringBreakdown scoring.Breakdown `json:"scoring_breakdown"`
	QualityScore     float64           `json:"quality_score"`
	ProcessingMS     int64             `json:"processing_time_ms"`
	Usage            UsageMeta         `json:"usage"`
}

// Response is the assembled analysis delivered to the caller.
type Response struct {
	ID                     string             `json:"id"`
	DecisionIndex          float64            `json:"decision_index"`
	DecisionConfidence     float64            `json:"decision_confidence"`
	DecisionCoherence      scoring.Coherence  `json:"decision_coherence"`
	EthicalAlignment       string             `json:"ethical_alignment"`
	SystemicRisk           string             `json:"systemic_risk"`
	KeyTensions            []string           `json:"key_tensions"`
	UnintendedConsequences []string           `json:"unintended_consequences"`
	Recommendation         string             `json:"recommendation"`
	ExplanationSummary     string             `json:"explanation_summary"`
	AnalysisVersion        string             `json:"analysis_version"`
	Dimensions             scoring.Dimensions `json:"dimensions"`
	Metadata               Metadata           `json:"metadata"`
}
