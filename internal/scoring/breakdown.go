package scoring

// Component records every intermediate value for one numeric dimension.
type Component struct {
	Score        int     `json:"score"`
	Normalized   float64 `json:"normalized"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// EthicsComponent records the categorical dimension's conversion.
type EthicsComponent struct {
	RiskLevel         RiskLevel `json:"risk_level"`
	PenaltyMultiplier float64   `json:"penalty_multiplier"`
	Weight            float64   `json:"weight"`
	Contribution      float64   `json:"contribution"`
}

// Components groups the per-dimension audit entries.
type Components struct {
	Clarity            Component       `json:"clarity"`
	StakeholderBenefit Component       `json:"stakeholder_benefit"`
	Feasibility        Component       `json:"feasibility"`
	Ethics             EthicsComponent `json:"ethics"`
}

// Breakdown is the audit artifact for one index calculation. It is
// reproducible byte-for-byte from the dimensions and the active weight
// profile alone.
type Breakdown struct {
	Components        Components `json:"components"`
	RawIndex          float64    `json:"raw_index"`
	EthicalCapApplied bool       `json:"ethical_cap_applied"`
	FinalIndex        float64    `json:"final_index"`
	Industry          string     `json:"industry"`
}

// GetBreakdown exposes every intermediate value behind CalculateIndex.
func (e *Engine) GetBreakdown(d Dimensions) Breakdown {
	clarity := float64(d.Clarity) / 100.0
	benefit := float64(d.StakeholderBenefit) / 100.0
	feasibility := float64(d.Feasibility) / 100.0
	penalty := ethicalPenalties[d.EthicalRisk]
	_, capped := ethicalCaps[d.EthicalRisk]
	index := e.CalculateIndex(d)

	return Breakdown{
		Components: Components{
			Clarity: Component{
				Score:        d.Clarity,
				Normalized:   clarity,
				Weight:       e.weights.Clarity,
				Contribution: round3(clarity * e.weights.Clarity),
			},
			StakeholderBenefit: Component{
				Score:        d.StakeholderBenefit,
				Normalized:   benefit,
				Weight:       e.weights.Stakeholder,
				Contribution: round3(benefit * e.weights.Stakeholder),
			},
			Feasibility: Component{
				Score:        d.Feasibility,
				Normalized:   feasibility,
				Weight:       e.weights.Feasibility,
				Contribution: round3(feasibility * e.weights.Feasibility),
			},
			Ethics: EthicsComponent{
				RiskLevel:         d.EthicalRisk,
				PenaltyMultiplier: penalty,
				Weight:            e.weights.Ethics,
				Contribution:      round3(penalty * e.weights.Ethics),
			},
		},
		RawIndex:          index,
		EthicalCapApplied: capped,
		FinalIndex:        index,
		Industry:          e.industry,
	}
}
