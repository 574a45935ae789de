package api

import (
	"time"

	"decision-eval/backend/internal/provider"
	"decision-eval/backend/internal/store"
)

// AnalyzeRequest is the POST /v2/analyze body.
type AnalyzeRequest struct {
	Question     string   `json:"decision_question" binding:"required,min=10"`
	Context      string   `json:"context" binding:"required"`
	Industry     string   `json:"industry"`
	Stakeholders []string `json:"stakeholders"`
	Constraints  []string `json:"constraints"`
	TimeHorizon  string   `json:"time_horizon" binding:"required"`
	Provider     string   `json:"provider"`
}

// AnalysisDTO is the API representation of a persisted analysis.
type AnalysisDTO struct {
	ID               string    `json:"id"`
	Question         string    `json:"decision_question"`
	Industry         string    `json:"industry"`
	Provider         string    `json:"provider"`
	DecisionIndex    float64   `json:"decision_index"`
	Confidence       float64   `json:"decision_confidence"`
	Coherence        string    `json:"decision_coherence"`
	EthicalRisk      string    `json:"ethical_risk_level"`
	EthicalAlignment string    `json:"ethical_alignment"`
	SystemicRisk     string    `json:"systemic_risk"`
	KeyTensions      []string  `json:"key_tensions"`
	Consequences     []string  `json:"unintended_consequences"`
	Recommendation   string    `json:"recommendation"`
	Explanation      string    `json:"explanation_summary"`
	QualityScore     float64   `json:"quality_score"`
	ProcessingMS     int64     `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// FromModel converts a store.Analysis into the DTO representation.
func FromModel(a store.Analysis) AnalysisDTO {
	return AnalysisDTO{
		ID:               a.ID,
		Question:         a.Question,
		Industry:         a.Industry,
		Provider:         a.Provider,
		DecisionIndex:    a.IndexScore,
		Confidence:       a.Confidence,
		Coherence:        a.Coherence,
		EthicalRisk:      a.EthicalRisk,
		EthicalAlignment: a.EthicalAlignment,
		SystemicRisk:     a.SystemicRisk,
		KeyTensions:      a.Tensions(),
		Consequences:     a.Consequences(),
		Recommendation:   a.Recommendation,
		Explanation:      a.Explanation,
		QualityScore:     a.QualityScore,
		ProcessingMS:     a.ProcessingMS,
		CreatedAt:        a.CreatedAt,
	}
}

// HistoryResponse holds paginated analysis history.
type HistoryResponse struct {
	Items []AnalysisDTO `json:"items"`
	Total int64         `json:"total"`
}

// StatsResponse summarizes service activity for a customer.
type StatsResponse struct {
	TotalAnalyses int64                     `json:"total_analyses"`
	AverageIndex  float64                   `json:"average_index"`
	ByProvider    []store.ProviderCount     `json:"by_provider"`
	Providers     map[string]provider.Stats `json:"providers"`
	Primary       string                    `json:"primary_provider"`
	StreamClients int                       `json:"stream_clients"`
}

// SwitchProviderRequest names the adapter to promote.
type SwitchProviderRequest struct {
	Provider string `json:"provider" binding:"required"`
}

// ResetUsageRequest targets one customer's admission counters.
type ResetUsageRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
	Period     string `json:"period"`
}
