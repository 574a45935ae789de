package engine

import (
	"fmt"
	"strings"

	"decision-eval/backend/internal/provider"
)

// AnalysisVersion tags the output schema generation.
const AnalysisVersion = "v2.0"

// completionTemperature keeps provider output near-deterministic.
const completionTemperature = 0.2

const systemPrompt = `You are a deep synthesis reasoning engine for evaluating complex decisions.

CRITICAL: You must output ONLY valid JSON. No additional text, no markdown, no explanations outside the JSON.

Your role is to analyze decisions across multiple dimensions:

1. **Clarity** (0-100): How well-defined is the problem?
2. **Stakeholder Benefit** (0-100): Net benefit across all affected parties
3. **Feasibility** (0-100): Likelihood of successful implementation
4. **Ethical Risk**: Categorical assessment of ethical concerns

REQUIRED OUTPUT SCHEMA:

{
  "dimensions": {
    "clarity_score": <int 0-100>,
    "stakeholder_benefit_score": <int 0-100>,
    "feasibility_score": <int 0-100>,
    "ethical_risk_level": "<None|Low|Medium|High|Critical>"
  },
  "ethical_alignment": "<Aligned|Partial|Misaligned>",
  "systemic_risk": "<Low|Medium|High|Critical>",
  "key_tensions": [
    "<tension 1: describe structural trade-off>",
    "<tension 2: ...>",
    "<tension 3: ...>",
    "<tension 4: ...>"
  ],
  "unintended_consequences": [
    "<consequence 1: describe second-order effect>",
    "<consequence 2: ...>",
    "<consequence 3: ...>",
    "<consequence 4: ...>",
    "<consequence 5: ...>"
  ],
  "recommendation": "<Concrete, actionable recommendation (50+ chars)>",
  "explanation_summary": "<Clear explanation of the analysis rationale (100+ chars)>",
  "analysis_version": "v2.0"
}

CRITICAL QUALITY REQUIREMENTS:
- key_tensions: MINIMUM 4 items, each substantive (10+ chars)
- unintended_consequences: MINIMUM 5 items, each substantive (10+ chars)
- recommendation: MINIMUM 50 characters, specific and actionable
- explanation_summary: MINIMUM 100 characters, clear rationale
- NO generic phrases like "it depends", "consider all options", "evaluate carefully"
- NO placeholder text like "N/A", "TBD", "None"
- Each tension and consequence must be unique and specific

DO NOT generate a decision index, confidence, or coherence label.
These are calculated deterministically from your dimensional scores.`

// buildMessages assembles the two-message conversation for one request.
func buildMessages(req Request) []provider.Message {
	var b strings.Builder
	b.WriteString("DECISION ANALYSIS REQUEST:\n\n")
	fmt.Fprintf(&b, "Context: %s\n\n", strings.TrimSpace(req.Context))
	fmt.Fprintf(&b, "Decision Question: %s\n\n", strings.TrimSpace(req.Question))
	if len(req.Stakeholders) > 0 {
		fmt.Fprintf(&b, "Stakeholders: %s\n\n", strings.Join(req.Stakeholders, ", "))
	}
	if len(req.Constraints) > 0 {
		fmt.Fprintf(&b, "Constraints: %s\n\n", strings.Join(req.Constraints, ", "))
	}
	fmt.Fprintf(&b, "Time Horizon: %s\n\n", strings.TrimSpace(req.TimeHorizon))
	b.WriteString("Evaluate this decision across every dimension.\nReturn ONLY valid JSON following the schema above.")

	return []provider.Message{
		{Role: provider.RoleSystem, Content: systemPrompt},
		{Role: provider.RoleUser, Content: b.String()},
	}
}
