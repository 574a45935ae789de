package scoring

import (
	"encoding/json"
	"testing"
)

func TestCalculateIndex(t *testing.T) {
	tests := []struct {
		name     string
		industry string
		dims     Dimensions
		expected float64
	}{
		{
			"general no risk",
			"general",
			Dimensions{Clarity: 100, StakeholderBenefit: 100, Feasibility: 100, EthicalRisk: RiskNone},
			1.0,
		},
		{
			"critical capped",
			"general",
			Dimensions{Clarity: 100, StakeholderBenefit: 100, Feasibility: 100, EthicalRisk: RiskCritical},
			0.40,
		},
		{
			"high capped",
			"general",
			Dimensions{Clarity: 100, StakeholderBenefit: 100, Feasibility: 100, EthicalRisk: RiskHigh},
			0.60,
		},
		{
			"high below cap untouched",
			"general",
			Dimensions{Clarity: 20, StakeholderBenefit: 20, Feasibility: 20, EthicalRisk: RiskHigh},
			0.22, // 0.2*0.2+0.2*0.3+0.2*0.3+0.3*0.2
		},
		{
			"unknown industry falls back to general",
			"aerospace",
			Dimensions{Clarity: 100, StakeholderBenefit: 100, Feasibility: 100, EthicalRisk: RiskNone},
			1.0,
		},
		{
			"all zero",
			"general",
			Dimensions{Clarity: 0, StakeholderBenefit: 0, Feasibility: 0, EthicalRisk: RiskCritical},
			0.0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			engine := NewEngine(tc.industry)
			got := engine.CalculateIndex(tc.dims)
			if got != tc.expected {
				t.Fatalf("expected %.2f got %.2f", tc.expected, got)
			}
			if got < 0 || got > 1 {
				t.Fatalf("index out of range: %.2f", got)
			}
		})
	}
}

func TestCalculateIndexHealthcareProfile(t *testing.T) {
	// 0.15*0.80 + 0.25*0.70 + 0.20*0.60 + 0.40*0.90 = 0.715
	engine := NewEngine("healthcare")
	dims := Dimensions{Clarity: 80, StakeholderBenefit: 70, Feasibility: 60, EthicalRisk: RiskLow}
	index := engine.CalculateIndex(dims)
	if diff := index - 0.715; diff > 0.006 || diff < -0.006 {
		t.Fatalf("expected index near 0.715, got %.4f", index)
	}
	if got := engine.DeriveCoherence(index); got != CoherenceMedium {
		t.Fatalf("expected Medium coherence, got %s", got)
	}
}

func TestCalculateIndexCapsAreHard(t *testing.T) {
	engine := NewEngine("finance")
	for clarity := 0; clarity <= 100; clarity += 20 {
		critical := engine.CalculateIndex(Dimensions{
			Clarity: clarity, StakeholderBenefit: 100, Feasibility: 100, EthicalRisk: RiskCritical,
		})
		if critical > 0.40 {
			t.Fatalf("critical risk index %.2f exceeds cap", critical)
		}
		high := engine.CalculateIndex(Dimensions{
			Clarity: clarity, StakeholderBenefit: 100, Feasibility: 100, EthicalRisk: RiskHigh,
		})
		if high > 0.60 {
			t.Fatalf("high risk index %.2f exceeds cap", high)
		}
	}
}

func TestDeriveCoherence(t *testing.T) {
	engine := NewEngine("general")
	tests := []struct {
		index    float64
		expected Coherence
	}{
		{0.0, CoherenceLow},
		{0.49, CoherenceLow},
		{0.50, CoherenceMedium},
		{0.715, CoherenceMedium},
		{0.74, CoherenceMedium},
		{0.75, CoherenceHigh},
		{1.0, CoherenceHigh},
	}
	for _, tc := range tests {
		if got := engine.DeriveCoherence(tc.index); got != tc.expected {
			t.Fatalf("index %.2f: expected %s got %s", tc.index, tc.expected, got)
		}
	}
}

func TestDeriveConfidence(t *testing.T) {
	engine := NewEngine("general")
	tests := []struct {
		name     string
		dims     Dimensions
		expected float64
	}{
		{"full agreement", Dimensions{Clarity: 70, StakeholderBenefit: 70, Feasibility: 70, EthicalRisk: RiskNone}, 1.0},
		{"small spread", Dimensions{Clarity: 70, StakeholderBenefit: 80, Feasibility: 75, EthicalRisk: RiskNone}, 0.9},
		{"wide spread floored", Dimensions{Clarity: 0, StakeholderBenefit: 100, Feasibility: 50, EthicalRisk: RiskNone}, 0.5},
		{"spread at floor boundary", Dimensions{Clarity: 25, StakeholderBenefit: 75, Feasibility: 50, EthicalRisk: RiskNone}, 0.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := engine.DeriveConfidence(tc.dims); got != tc.expected {
				t.Fatalf("expected %.2f got %.2f", tc.expected, got)
			}
		})
	}
}

func TestDeriveConfidenceMonotonic(t *testing.T) {
	engine := NewEngine("general")
	prev := 1.1
	for spread := 0; spread <= 100; spread += 10 {
		dims := Dimensions{Clarity: 0, StakeholderBenefit: spread, Feasibility: 0, EthicalRisk: RiskNone}
		conf := engine.DeriveConfidence(dims)
		if conf > prev {
			t.Fatalf("confidence increased with spread %d: %.2f > %.2f", spread, conf, prev)
		}
		if conf < 0.5 {
			t.Fatalf("confidence below floor: %.2f", conf)
		}
		prev = conf
	}
}

func TestDimensionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		dims    Dimensions
		wantErr bool
	}{
		{"valid", Dimensions{Clarity: 50, StakeholderBenefit: 50, Feasibility: 50, EthicalRisk: RiskMedium}, false},
		{"clarity over range", Dimensions{Clarity: 101, StakeholderBenefit: 50, Feasibility: 50, EthicalRisk: RiskLow}, true},
		{"negative feasibility", Dimensions{Clarity: 50, StakeholderBenefit: 50, Feasibility: -1, EthicalRisk: RiskLow}, true},
		{"unknown risk", Dimensions{Clarity: 50, StakeholderBenefit: 50, Feasibility: 50, EthicalRisk: "Severe"}, true},
		{"empty risk", Dimensions{Clarity: 50, StakeholderBenefit: 50, Feasibility: 50}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.dims.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestBreakdownReproducible(t *testing.T) {
	dims := Dimensions{Clarity: 80, StakeholderBenefit: 70, Feasibility: 60, EthicalRisk: RiskHigh}
	first, err := json.Marshal(NewEngine("nonprofit").GetBreakdown(dims))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := json.Marshal(NewEngine("nonprofit").GetBreakdown(dims))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("breakdown not reproducible:\n%s\n%s", first, second)
	}

	breakdown := NewEngine("nonprofit").GetBreakdown(dims)
	if !breakdown.EthicalCapApplied {
		t.Fatal("expected ethical cap flag for high risk")
	}
	if breakdown.Industry != "nonprofit" {
		t.Fatalf("unexpected industry %q", breakdown.Industry)
	}
	if breakdown.FinalIndex != NewEngine("nonprofit").CalculateIndex(dims) {
		t.Fatal("breakdown index diverges from CalculateIndex")
	}
}
