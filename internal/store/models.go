package store

import (
	"encoding/json"
	"strings"
	"time"
)

// Analysis is one persisted decision analysis: every response that passed
// the quality gate and was delivered to a caller.
type Analysis struct {
	ID               string  `gorm:"primaryKey;size:36"`
	CustomerID       string  `gorm:"size:128;index"`
	Question         string  `gorm:"type:text"`
	Industry         string  `gorm:"size:64;index"`
	Provider         string  `gorm:"size:32;index"`
	IndexScore       float64 `gorm:"index"`
	Confidence       float64
	Coherence        string `gorm:"size:16;index"`
	EthicalRisk      string `gorm:"size:16"`
	EthicalAlignment string `gorm:"size:32"`
	SystemicRisk     string `gorm:"size:16"`
	QualityScore     float64
	ProcessingMS     int64
	TensionsJSON     string `gorm:"type:text"`
	ConsequencesJSON string `gorm:"type:text"`
	Recommendation   string `gorm:"type:text"`
	Explanation      string `gorm:"type:text"`
	CreatedAt        time.Time
}

// SetTensions stores the tension list as JSON.
func (a *Analysis) SetTensions(tensions []string) {
	a.TensionsJSON = marshalList(tensions)
}

// Tensions reads the stored tension list.
func (a *Analysis) Tensions() []string {
	return unmarshalList(a.TensionsJSON)
}

// SetConsequences stores the consequence list as JSON.
func (a *Analysis) SetConsequences(consequences []string) {
	a.ConsequencesJSON = marshalList(consequences)
}

// Consequences reads the stored consequence list.
func (a *Analysis) Consequences() []string {
	return unmarshalList(a.ConsequencesJSON)
}

func marshalList(items []string) string {
	if items == nil {
		return "[]"
	}
	payload, _ := json.Marshal(items)
	return string(payload)
}

func unmarshalList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
