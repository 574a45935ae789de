package scoring

import (
	"fmt"
	"math"
)

// RiskLevel is the categorical ethical-risk assessment produced alongside the
// numeric sub-scores.
type RiskLevel string

// Ordered risk levels, from benign to prohibitive.
const (
	RiskNone     RiskLevel = "None"
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// ParseRiskLevel validates a raw risk label. Anything outside the five known
// levels is a parse failure, never a clamp.
func ParseRiskLevel(value string) (RiskLevel, error) {
	switch RiskLevel(value) {
	case RiskNone, RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return RiskLevel(value), nil
	default:
		return "", fmt.Errorf("unknown ethical risk level %q", value)
	}
}

// Dimensions holds the four raw evaluation axes extracted from provider
// output before any scoring.
type Dimensions struct {
	Clarity            int       `json:"clarity_score"`
	StakeholderBenefit int       `json:"stakeholder_benefit_score"`
	Feasibility        int       `json:"feasibility_score"`
	EthicalRisk        RiskLevel `json:"ethical_risk_level"`
}

// Validate enforces the dimension invariants: integers strictly within
// [0,100] and a known risk category.
func (d Dimensions) Validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{"clarity_score", d.Clarity},
		{"stakeholder_benefit_score", d.StakeholderBenefit},
		{"feasibility_score", d.Feasibility},
	}
	for _, c := range checks {
		if c.value < 0 || c.value > 100 {
			return fmt.Errorf("%s out of range: %d", c.name, c.value)
		}
	}
	if _, err := ParseRiskLevel(string(d.EthicalRisk)); err != nil {
		return err
	}
	return nil
}

// Coherence is the three-level label derived purely from the index.
type Coherence string

// Coherence labels.
const (
	CoherenceHigh   Coherence = "High"
	CoherenceMedium Coherence = "Medium"
	CoherenceLow    Coherence = "Low"
)

// Penalty multipliers converting the categorical risk into a numeric ethics
// component.
var ethicalPenalties = map[RiskLevel]float64{
	RiskNone:     1.0,
	RiskLow:      0.9,
	RiskMedium:   0.6,
	RiskHigh:     0.3,
	RiskCritical: 0.0,
}

// Veto caps applied after weighting: risky decisions can never score high
// regardless of the other sub-scores.
var ethicalCaps = map[RiskLevel]float64{
	RiskCritical: 0.40,
	RiskHigh:     0.60,
}

// Engine is the deterministic index calculator. Its only state is the active
// weight profile; every method is a pure function of its inputs.
type Engine struct {
	industry string
	weights  Weights
}

// NewEngine resolves the weight profile for the industry, falling back to the
// general profile for unknown tags.
func NewEngine(industry string) *Engine {
	resolved, weights := ProfileFor(industry)
	return &Engine{industry: resolved, weights: weights}
}

// Industry returns the resolved industry tag.
func (e *Engine) Industry() string {
	return e.industry
}

// Weights returns the active weight profile.
func (e *Engine) Weights() Weights {
	return e.weights
}

// CalculateIndex converts dimensions into the single decision-quality index
// in [0,1]: normalized weighted sum, then the ethical veto cap, then
// two-decimal rounding.
func (e *Engine) CalculateIndex(d Dimensions) float64 {
	raw := float64(d.Clarity)/100.0*e.weights.Clarity +
		float64(d.StakeholderBenefit)/100.0*e.weights.Stakeholder +
		float64(d.Feasibility)/100.0*e.weights.Feasibility +
		ethicalPenalties[d.EthicalRisk]*e.weights.Ethics

	if cap, ok := ethicalCaps[d.EthicalRisk]; ok {
		raw = math.Min(raw, cap)
	}
	return round2(raw)
}

// DeriveCoherence maps an index to its coherence label. The thresholds are
// exhaustive with no hysteresis.
func (e *Engine) DeriveCoherence(index float64) Coherence {
	switch {
	case index >= 0.75:
		return CoherenceHigh
	case index >= 0.5:
		return CoherenceMedium
	default:
		return CoherenceLow
	}
}

// DeriveConfidence reflects sub-score disagreement, never absolute magnitude:
// the numeric range across the three integer sub-scores maps linearly from
// confidence 1.0 (range 0) to 0.0 (range 100), floored at 0.5.
func (e *Engine) DeriveConfidence(d Dimensions) float64 {
	scores := []int{d.Clarity, d.StakeholderBenefit, d.Feasibility}
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	confidence := 1.0 - float64(hi-lo)/100.0
	if confidence < 0.5 {
		confidence = 0.5
	}
	return round2(confidence)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
