package scoring

import "sort"

// Weights is a linear-combination profile over the four dimensions. Profiles
// are not required to sum to exactly 1.0.
type Weights struct {
	Clarity     float64 `json:"clarity"`
	Stakeholder float64 `json:"stakeholder"`
	Feasibility float64 `json:"feasibility"`
	Ethics      float64 `json:"ethics"`
}

const defaultIndustry = "general"

// Fixed named profiles shipped with the engine.
var industryWeights = map[string]Weights{
	"general": {
		Clarity:     0.20,
		Stakeholder: 0.30,
		Feasibility: 0.30,
		Ethics:      0.20,
	},
	"healthcare": {
		Clarity:     0.15,
		Stakeholder: 0.25,
		Feasibility: 0.20,
		Ethics:      0.40,
	},
	"finance": {
		Clarity:     0.25,
		Stakeholder: 0.25,
		Feasibility: 0.35,
		Ethics:      0.15,
	},
	"nonprofit": {
		Clarity:     0.15,
		Stakeholder: 0.40,
		Feasibility: 0.15,
		Ethics:      0.30,
	},
	"technology": {
		Clarity:     0.25,
		Stakeholder: 0.25,
		Feasibility: 0.35,
		Ethics:      0.15,
	},
}

// ProfileFor resolves an industry tag to its weight profile. Unknown or empty
// tags fall back to the general profile; the resolved tag is returned so
// callers can report which profile actually applied.
func ProfileFor(industry string) (string, Weights) {
	if w, ok := industryWeights[industry]; ok {
		return industry, w
	}
	return defaultIndustry, industryWeights[defaultIndustry]
}

// Industries lists the named profiles in stable order.
func Industries() []string {
	out := make([]string, 0, len(industryWeights))
	for name := range industryWeights {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
